// Package export renders weekly summary reports as PDF and archives
// them to object storage.
package export

import (
	"errors"
	"time"
)

// Request contains parameters for a report export.
type Request struct {
	UserID   string
	UserName string
	Week     time.Time // end of the reporting window
}

// Result contains the export output.
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
