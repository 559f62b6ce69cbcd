package main

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/kasunvimukthi/RPA-Reviewer/internal/config"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/engine"
)

// gateViolations applies the optional CI gate to the run's stats. An
// empty result means the gate passes; each reason fails the build.
func gateViolations(gate cfgpkg.Gate, stats engine.Stats) []string {
	var reasons []string

	if gate.FailOnFail != nil && *gate.FailOnFail && stats.FailCount > 0 {
		reasons = append(reasons, fmt.Sprintf("fail_on_fail: %d failing checkpoints", stats.FailCount))
	}
	if gate.MaxFail != nil && stats.FailCount > *gate.MaxFail {
		reasons = append(reasons, fmt.Sprintf("max_fail exceeded: %d > %d", stats.FailCount, *gate.MaxFail))
	}
	if gate.MinPercentage != nil && stats.OverallPercentage != "N/A" {
		pct, err := strconv.ParseFloat(stats.OverallPercentage, 64)
		if err == nil && pct < *gate.MinPercentage {
			reasons = append(reasons, fmt.Sprintf("compliance %.2f%% below min_percentage %.2f%%", pct, *gate.MinPercentage))
		}
	}
	return reasons
}
