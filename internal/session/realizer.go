package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplitter/internal/archive"
	"github.com/local/pdfsplitter/internal/process"
	"github.com/local/pdfsplitter/internal/storage"
)

// realizer turns frozen output specs into stored artifacts: one PDF per
// spec plus a zip bundling them all.
type realizer struct {
	codec    Codec
	packager Packager
	store    storage.Store
}

func (r *realizer) Realize(ctx context.Context, job process.Job) ([]process.OutputResult, *process.OutputResult, error) {
	docs, err := r.codec.ExtractAll(ctx, job.Source, job.Specs)
	if err != nil {
		return nil, nil, err
	}

	var stored []string
	abort := func(cause error) ([]process.OutputResult, *process.OutputResult, error) {
		// Keep the store free of half-finished runs.
		if len(stored) > 0 {
			if relErr := r.store.Release(ctx, stored...); relErr != nil {
				log.Warn().Err(relErr).Int("handles", len(stored)).Msg("rollback release failed")
			}
		}
		return nil, nil, cause
	}

	results := make([]process.OutputResult, 0, len(job.Specs))
	entries := make([]archive.Entry, 0, len(job.Specs))
	for i, spec := range job.Specs {
		name := spec.Name + ".pdf"
		handle, err := r.store.Put(ctx, name, docs[i])
		if err != nil {
			return abort(fmt.Errorf("store %s: %w", name, err))
		}
		stored = append(stored, handle)
		results = append(results, process.OutputResult{
			Name:      name,
			PageCount: spec.PageCount(),
			ByteSize:  int64(len(docs[i])),
			Handle:    handle,
		})
		entries = append(entries, archive.Entry{Name: spec.Name, Data: docs[i]})
	}

	zipData, err := r.packager.Pack(entries)
	if err != nil {
		return abort(fmt.Errorf("package archive: %w", err))
	}
	zipName := job.BaseName + "_split.zip"
	zipHandle, err := r.store.Put(ctx, zipName, zipData)
	if err != nil {
		return abort(fmt.Errorf("store %s: %w", zipName, err))
	}

	return results, &process.OutputResult{
		Name:     zipName,
		ByteSize: int64(len(zipData)),
		Handle:   zipHandle,
	}, nil
}
