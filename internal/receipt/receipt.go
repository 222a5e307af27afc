package receipt

import (
	"time"

	"github.com/zombor/receipt-processor/internal/points"
)

// Source values for Record.Source
const (
	SourceJSON = "json"
	SourceScan = "scan"
)

// Record is a scored receipt as kept in the database
type Record struct {
	ID          string                `json:"id"`
	Receipt     points.Receipt        `json:"receipt"`
	Points      int                   `json:"points"`
	Breakdown   []points.Contribution `json:"breakdown"`
	Source      string                `json:"source"`
	Image       string                `json:"image,omitempty"` // Storage path of the scanned image
	ContentType string                `json:"content_type,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}
