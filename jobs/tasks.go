package jobs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskCollectionsExpirationScan checks for expired unpaid quotes and sends
	// the collections report.
	TaskCollectionsExpirationScan = "collections:expiration_scan"
)

// ExpirationScanPayload configures one expiration scan. Empty fields fall
// back to the configured destination and to today.
type ExpirationScanPayload struct {
	Destination   string `json:"destination,omitempty"`
	ReferenceDate string `json:"reference_date,omitempty"`
}

// NewExpirationScanTask constructs an Asynq task for the expiration scan.
func NewExpirationScanTask(payload ExpirationScanPayload) (*asynq.Task, error) {
	payload.Destination = strings.TrimSpace(payload.Destination)
	payload.ReferenceDate = strings.TrimSpace(payload.ReferenceDate)
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode expiration scan payload: %w", err)
	}
	return asynq.NewTask(TaskCollectionsExpirationScan, data), nil
}
