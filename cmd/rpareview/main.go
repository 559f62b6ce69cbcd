// RPA Reviewer - workflow compliance analyzer
//
// Usage:
//   rpareview [flags] <project-path>
//   rpareview --serve [--addr :8000]
//
// Flags:
//   --version              Show version information
//   --config <path>        Use specific config file
//   --areas <a,b,...>      Restrict evaluation to the named areas
//   --include-framework    Evaluate framework scaffold files too
//   --json                 Print the full report JSON to stdout
//   --watch                Re-run analysis on workflow changes
//   --serve                Start the HTTP API
//   --addr <addr>          Listen address for --serve (default :8000)

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	cfgpkg "github.com/kasunvimukthi/RPA-Reviewer/internal/config"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/engine"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/server"
	"github.com/kasunvimukthi/RPA-Reviewer/internal/support"
)

// Version information (set at build time)
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
)

func main() {
	args := os.Args[1:]

	var (
		configFlag       string
		areasFlag        string
		addr             = ":8000"
		includeFramework bool
		jsonOut          bool
		watchMode        bool
		serveMode        bool
		showVersion      bool
		projectPath      string
	)

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			showVersion = true
		case "--config":
			if i+1 < len(args) {
				i++
				configFlag = args[i]
			}
		case "--areas":
			if i+1 < len(args) {
				i++
				areasFlag = args[i]
			}
		case "--addr":
			if i+1 < len(args) {
				i++
				addr = args[i]
			}
		case "--include-framework":
			includeFramework = true
		case "--json":
			jsonOut = true
		case "--watch":
			watchMode = true
		case "--serve":
			serveMode = true
		default:
			projectPath = args[i]
		}
	}

	if showVersion {
		fmt.Printf("rpareview %s (built %s)\n", Version, BuildDate)
		return
	}

	cfg, cfgPath, err := cfgpkg.Resolve(cfgpkg.Flags{ConfigPath: configFlag})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)
	if cfgPath != "" {
		logger.Debug("loaded config", "path", cfgPath)
	}

	eng := engine.New(cfg, logger)

	if serveMode {
		srv := server.New(eng, logger)
		logger.Info("listening", "addr", addr)
		if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: server failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if projectPath == "" {
		projectPath = cfg.Paths.ProjectRoot
	}
	cfg.ApplyOverrides(projectPath)
	eng = engine.New(cfg, logger)

	opts := engine.Options{
		ActiveAreas:      splitAreas(areasFlag),
		IncludeFramework: includeFramework,
	}

	if watchMode {
		runWatch(cfg, eng, projectPath, opts, nil)
		return
	}
	os.Exit(runOnce(cfg, eng, projectPath, opts, jsonOut))
}

// runOnce analyzes the project, writes the report, appends the audit
// entry, and returns the process exit code from the gate decision.
func runOnce(cfg cfgpkg.Config, eng *engine.Engine, root string, opts engine.Options, jsonOut bool) int {
	start := time.Now()
	report, err := eng.Analyze(context.Background(), root, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}

	outDir := filepath.Join(root, cfg.Paths.OutputDir)
	if err := support.WriteJSONAtomic(filepath.Join(outDir, "report.json"), report); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: cannot write report: %v\n", err)
		return 1
	}

	entry := support.AuditEntry{
		RunID:             support.NewRunID(),
		ProjectPath:       root,
		PassCount:         report.Stats.PassCount,
		FailCount:         report.Stats.FailCount,
		OverallPercentage: report.Stats.OverallPercentage,
		DurationMs:        time.Since(start).Milliseconds(),
	}
	if err := support.AppendAudit(outDir, entry); err != nil {
		slog.Warn("audit append failed", "error", err)
	}

	if jsonOut {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			return 1
		}
		fmt.Println(string(out))
	} else {
		fmt.Printf("PASS %d  FAIL %d  compliance %s\n",
			report.Stats.PassCount, report.Stats.FailCount, report.Stats.OverallPercentage)
	}

	gate, err := cfg.LoadGate(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	reasons := gateViolations(gate, report.Stats)
	for _, r := range reasons {
		fmt.Fprintf(os.Stderr, "GATE: %s\n", r)
	}
	if len(reasons) > 0 {
		return 2
	}
	return 0
}

func splitAreas(flag string) []string {
	if flag == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(flag, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newLogger(cfg cfgpkg.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
