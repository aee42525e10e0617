// Package scan implements CT scan uploads and their classification
// through the external predictor service.
package scan

import (
	"time"

	"github.com/coviddx/platform/internal/shared/types"
)

// Classification labels returned by the predictor.
const (
	LabelCovid  = "covid19_scan"
	LabelNormal = "normal_scan"
)

// Scan represents an uploaded CT scan and its classification
type Scan struct {
	ID       types.ID `json:"id"`
	FileName string   `json:"file_name"`
	FilePath string   `json:"-"`
	FileHash string   `json:"file_hash"`
	FileSize int64    `json:"file_size"`

	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`

	UploadedBy types.ID  `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsPositive reports whether the scan was classified as COVID-19.
func (s *Scan) IsPositive() bool {
	return s.Label == LabelCovid
}
