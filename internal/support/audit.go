package support

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is one line of the append-only run log.
type AuditEntry struct {
	RunID             string `json:"runId"`
	TimestampUtc      string `json:"timestampUtc"`
	ProjectPath       string `json:"projectPath"`
	PassCount         int    `json:"passCount"`
	FailCount         int    `json:"failCount"`
	OverallPercentage string `json:"overallPercentage"`
	DurationMs        int64  `json:"durationMs"`
}

// NewRunID returns a fresh analysis run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// AppendAudit appends one entry to <outputDir>/audit.log.
func AppendAudit(outputDir string, entry AuditEntry) error {
	entry.TimestampUtc = time.Now().UTC().Format(time.RFC3339)
	path := filepath.Join(outputDir, "audit.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}
