// Package archive bundles split outputs into a single zip download.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
)

// Entry is one document going into the bundle. Name carries no extension;
// Pack appends .pdf.
type Entry struct {
	Name string
	Data []byte
}

// Zip packages entries with the stdlib zip writer.
type Zip struct{}

func (Zip) Pack(entries []Entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, errors.New("nothing to pack")
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name + ".pdf")
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}
