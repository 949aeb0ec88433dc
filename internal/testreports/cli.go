package testreports

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/cityfix/cityfix/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "loadgen_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the report load tool.
func ShowHelp() {
	os.Stdout.WriteString(`CityFix Report Load Tool
========================

A concurrent tool for exercising the CityFix service request pipeline:
it submits synthetic citizen reports, triggers the SLA sweep and a
ranking recalculation, then verifies the results.

Usage:
  go run cmd/report-loadgen/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -reports int
        Number of reports to generate and submit (default 1000)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -log string
        Log file for run output (default: loadgen_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/report-loadgen/main.go

  # Run with custom parameters
  go run cmd/report-loadgen/main.go -reports 5000 -workers 16 -url http://localhost:8080

  # Run with verbose output
  go run cmd/report-loadgen/main.go -verbose -reports 1000
`)
}
