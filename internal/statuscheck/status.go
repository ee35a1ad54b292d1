// Package statuscheck probes the external dependencies behind a running
// instance: the suggestion oracle, the Redis cache and the artifact store.
// The dashboard polls the summary; a red light here explains a 503 there.
package statuscheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// Checker aggregates health checks for everything configured at startup.
type Checker struct {
	redis        RedisPinger
	provider     string
	openAIKey    string
	anthropicKey string
	storeBackend string
	resultDir    string
	s3Bucket     string
	s3Region     string
	s3AccessKey  string
	s3SecretKey  string
	httpClient   *http.Client
}

// Options configures the Checker. Redis may be nil when the suggestion
// cache is disabled.
type Options struct {
	Redis        RedisPinger
	Provider     string
	OpenAIKey    string
	AnthropicKey string
	StoreBackend string
	ResultDir    string
	S3Bucket     string
	S3Region     string
	S3AccessKey  string
	S3SecretKey  string
	HTTPClient   *http.Client
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// Summary bundles all subsystem statuses for the dashboard.
type Summary struct {
	Oracle Status `json:"oracle"`
	Cache  Status `json:"cache"`
	Store  Status `json:"store"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Checker{
		redis:        opts.Redis,
		provider:     strings.ToLower(strings.TrimSpace(opts.Provider)),
		openAIKey:    strings.TrimSpace(opts.OpenAIKey),
		anthropicKey: strings.TrimSpace(opts.AnthropicKey),
		storeBackend: strings.ToLower(strings.TrimSpace(opts.StoreBackend)),
		resultDir:    opts.ResultDir,
		s3Bucket:     opts.S3Bucket,
		s3Region:     opts.S3Region,
		s3AccessKey:  opts.S3AccessKey,
		s3SecretKey:  opts.S3SecretKey,
		httpClient:   client,
	}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	return Summary{
		Oracle: c.checkOracle(ctx),
		Cache:  c.checkCache(ctx),
		Store:  c.checkStore(ctx),
	}
}

func (c *Checker) checkOracle(ctx context.Context) Status {
	switch c.provider {
	case "openai":
		if c.openAIKey == "" {
			return Status{OK: false, Message: "API key missing"}
		}
		return c.checkOpenAI(ctx)
	case "anthropic":
		if c.anthropicKey == "" {
			return Status{OK: false, Message: "API key missing"}
		}
		return c.checkAnthropic(ctx)
	default:
		return Status{OK: false, Message: "No provider configured"}
	}
}

func (c *Checker) checkCache(ctx context.Context) Status {
	// The cache is optional; absent is healthy, unreachable is not.
	if c.redis == nil {
		return Status{OK: true, Message: "Disabled"}
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.redis.Ping(ctx); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkStore(ctx context.Context) Status {
	switch c.storeBackend {
	case "s3":
		return c.checkS3(ctx)
	case "disk":
		return c.checkDisk()
	default:
		return Status{OK: true, Message: "In-memory"}
	}
}

func (c *Checker) checkS3(ctx context.Context) Status {
	if c.s3Bucket == "" {
		return Status{OK: false, Message: "Bucket not configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var loadOpts []func(*awscfg.LoadOptions) error
	if c.s3Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(c.s3Region))
	}
	if c.s3AccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.s3AccessKey, c.s3SecretKey, "")))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	cli := s3.NewFromConfig(cfg)
	if _, err := cli.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &c.s3Bucket}); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkDisk() Status {
	if c.resultDir == "" {
		return Status{OK: false, Message: "Directory not configured"}
	}
	if err := os.MkdirAll(c.resultDir, 0o755); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	f, err := os.CreateTemp(c.resultDir, ".probe-*")
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	f.Close()
	os.Remove(f.Name())
	return Status{OK: true, Message: "Writable"}
}

func (c *Checker) checkOpenAI(ctx context.Context) Status {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.openai.com/v1/models?limit=1", nil)
	req.Header.Set("Authorization", "Bearer "+c.openAIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Status{OK: false, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	return Status{OK: true, Message: "Available"}
}

func (c *Checker) checkAnthropic(ctx context.Context) Status {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "https://api.anthropic.com/v1/models", nil)
	req.Header.Set("x-api-key", c.anthropicKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Status{OK: false, Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	return Status{OK: true, Message: "Available"}
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
