package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplitter/internal/metrics"
)

// S3Store keeps artifacts in a bucket under artifacts/<handle>. With a
// non-empty password every object is AES-GCM encrypted at rest. Objects are
// deleted on release.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	prefix   string
	password string
}

type S3Options struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	// Password enables client-side encryption when set.
	Password string
}

// NewS3Store builds the client from the environment chain, overridden by
// static credentials when configured.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 store needs a bucket")
	}

	var loadOpts []func(*awscfg.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg)
	return &S3Store{
		client:   cli,
		uploader: manager.NewUploader(cli),
		bucket:   opts.Bucket,
		prefix:   "artifacts/",
		password: opts.Password,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, name string, data []byte) (string, error) {
	handle := uuid.NewString()
	key := s.prefix + handle

	payload := data
	encrypted := "false"
	if s.password != "" {
		enc, err := encryptGCM(data, s.password)
		if err != nil {
			return "", fmt.Errorf("encrypt artifact: %w", err)
		}
		payload = enc
		encrypted = "true"
	}

	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(payload),
		Metadata: map[string]string{
			"name":      name,
			"encrypted": encrypted,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	metrics.AddArtifactBytes(s.Backend(), len(payload))
	log.Debug().Str("key", key).Str("name", name).Int("size", len(payload)).Msg("uploaded artifact to S3")
	return handle, nil
}

func (s *S3Store) Get(ctx context.Context, handle string) (Artifact, error) {
	key := s.prefix + handle

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Artifact{}, ErrNotFound
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to read S3 object: %w", err)
	}

	// S3 returns user metadata keys with unpredictable casing.
	name := handle
	for _, k := range []string{"name", "Name"} {
		if v, ok := result.Metadata[k]; ok && v != "" {
			name = v
			break
		}
	}

	if isGCMEncrypted(data) {
		data, err = decryptGCM(data, s.password)
		if err != nil {
			return Artifact{}, fmt.Errorf("failed to decrypt artifact: %w", err)
		}
	}

	return Artifact{Name: name, Data: data}, nil
}

func (s *S3Store) Release(ctx context.Context, handles ...string) error {
	var lastErr error
	for _, h := range handles {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.prefix + h),
		})
		if err != nil {
			log.Warn().Err(err).Str("handle", h).Msg("failed to delete artifact from S3")
			lastErr = err
		}
	}
	return lastErr
}

func (s *S3Store) Backend() string { return "s3" }
