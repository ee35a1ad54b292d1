package filetype

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupported marks uploads that are not PDF documents.
var ErrUnsupported = errors.New("only PDF uploads are supported")

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	IsPDF       bool
	Description string
}

// Detector classifies uploads by magic bytes, never by filename. Only PDF
// makes it past the load gate; the rest is detected just to produce a
// useful rejection message.
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect sniffs the upload's actual type from its leading bytes.
func (d *Detector) Detect(data []byte) *FileTypeInfo {
	mtype := mimetype.Detect(data)

	info := &FileTypeInfo{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}

	switch {
	case info.MIMEType == "application/pdf":
		info.IsPDF = true
		info.Description = "PDF document"
	case strings.HasPrefix(info.MIMEType, "image/"):
		info.Description = "Image file"
	case strings.HasPrefix(info.MIMEType, "text/"):
		info.Description = "Plain text file"
	case info.MIMEType == "application/zip":
		info.Description = "ZIP archive"
	case strings.Contains(info.MIMEType, "officedocument"), info.MIMEType == "application/msword":
		info.Description = "Office document"
	default:
		info.Description = fmt.Sprintf("File of type %s", info.MIMEType)
	}
	return info
}

// RequirePDF returns an error describing the detected type unless the data
// is a PDF document.
func (d *Detector) RequirePDF(data []byte) (*FileTypeInfo, error) {
	info := d.Detect(data)
	if !info.IsPDF {
		return info, fmt.Errorf("%w, got %s", ErrUnsupported, strings.ToLower(info.Description))
	}
	return info, nil
}
