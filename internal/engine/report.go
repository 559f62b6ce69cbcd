package engine

import "fmt"

// CheckpointReport is one evaluated checkpoint in the response contract.
type CheckpointReport struct {
	Question string `json:"question"`
	Status   string `json:"status"`
	Comment  string `json:"comment"`
}

// AreaReport groups the evaluated checkpoints of one area, in emission
// order.
type AreaReport struct {
	Name        string             `json:"name"`
	Checkpoints []CheckpointReport `json:"checkpoints"`
}

// Stats are the aggregate counts. N/A results are excluded everywhere.
type Stats struct {
	PassCount         int    `json:"pass_count"`
	FailCount         int    `json:"fail_count"`
	OverallPercentage string `json:"overall_percentage"`
}

// Report is the full analysis result returned to callers.
type Report struct {
	Areas []AreaReport `json:"areas"`
	Stats Stats        `json:"stats"`
}

// percentage renders round(pass/(pass+fail)*100, 2) as a string, or the
// "N/A" sentinel when nothing was evaluated. Zero would misleadingly
// imply full failure.
func percentage(pass, fail int) string {
	total := pass + fail
	if total == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", float64(pass)/float64(total)*100)
}
