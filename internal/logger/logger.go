// Package logger configures the process-wide zerolog logger: stdout
// (pretty in dev), a rotating file, and an optional Axiom shipper for
// centralized search. Call sites log through the package-global
// github.com/rs/zerolog/log.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "pdfsplitter"

// Options defines logger initialization parameters.
type Options struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Axiom
	SendToAxiom  bool
	AxiomAPIKey  string
	AxiomOrgID   string
	AxiomDataset string
	AxiomFlush   time.Duration
}

var shipper *axiomShipper

// Init wires the global logger once at boot, before anything logs.
func Init(opts Options) error {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	writers := make([]io.Writer, 0, 3)
	if opts.Pretty {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		writers = append(writers, os.Stdout)
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return fmt.Errorf("create logs dir: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   opts.Compress,
		})
	}

	if opts.SendToAxiom && opts.AxiomAPIKey != "" {
		s, err := newAxiomShipper(opts)
		if err != nil {
			// keep booting on local logs only
			fmt.Fprintf(os.Stderr, "axiom shipping disabled: %v\n", err)
		} else {
			shipper = s
			writers = append(writers, s)
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	return nil
}

// Close flushes the Axiom shipper. Call on shutdown.
func Close() {
	if shipper != nil {
		shipper.Close()
	}
}

// axiomShipper batches zerolog JSON lines into Axiom ingest calls. Debug
// lines are dropped before shipping and every event carries the service
// field.
type axiomShipper struct {
	client  *axiom.Client
	dataset string
	events  chan axiom.Event
	done    chan struct{}
	wg      sync.WaitGroup
}

func newAxiomShipper(opts Options) (*axiomShipper, error) {
	copts := []axiom.Option{axiom.SetToken(opts.AxiomAPIKey)}
	if opts.AxiomOrgID != "" {
		copts = append(copts, axiom.SetOrganizationID(opts.AxiomOrgID))
	}
	client, err := axiom.NewClient(copts...)
	if err != nil {
		return nil, err
	}

	dataset := opts.AxiomDataset
	if dataset == "" {
		dataset = serviceName
	}
	flush := opts.AxiomFlush
	if flush <= 0 {
		flush = 10 * time.Second
	}

	s := &axiomShipper{
		client:  client,
		dataset: dataset,
		events:  make(chan axiom.Event, 1024),
		done:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.pump(flush)
	return s, nil
}

func (s *axiomShipper) Write(p []byte) (int, error) {
	var ev map[string]interface{}
	if err := json.Unmarshal(p, &ev); err != nil {
		ev = map[string]interface{}{"message": string(p)}
	}
	if lvl, _ := ev["level"].(string); lvl == "debug" {
		return len(p), nil
	}
	ev["service"] = serviceName
	if _, ok := ev[ingest.TimestampField]; !ok {
		ev[ingest.TimestampField] = time.Now()
	}

	select {
	case s.events <- axiom.Event(ev):
	default:
		// a full buffer drops the line rather than block the log call
	}
	return len(p), nil
}

func (s *axiomShipper) pump(flushEvery time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()

	batch := make([]axiom.Event, 0, 256)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		_, _ = s.client.IngestEvents(ctx, s.dataset, batch)
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case <-s.done:
			// drain the queue, then flush one last time
			for {
				select {
				case ev := <-s.events:
					batch = append(batch, ev)
				default:
					flush()
					return
				}
			}
		case <-ticker.C:
			flush()
		case ev := <-s.events:
			batch = append(batch, ev)
			if len(batch) >= 256 {
				flush()
			}
		}
	}
}

func (s *axiomShipper) Close() {
	close(s.done)
	s.wg.Wait()
}
