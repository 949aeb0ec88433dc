package testreports

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	var buf io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		buf = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitReports submits reports concurrently using worker pools
func submitReports(ctx context.Context, config *Config, reports []Report, stats *Stats) error {
	log.Printf("📤 Submitting %d reports with %d workers...", len(reports), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/requests"

	// Counters for statistics
	var (
		successful int64
		duplicate  int64
		failed     int64
		submitted  int64
	)

	// Progress reporting
	var lastReport time.Time
	reportInterval := 1 * time.Second

	// Create worker pool
	reportChan := make(chan Report, config.Workers*2)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for report := range reportChan {
				select {
				case <-ctx.Done():
					return
				default:
					result := submitSingleReport(ctx, client, url, report)

					// Update counters
					atomic.AddInt64(&submitted, 1)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					// Progress reporting
					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						total := atomic.LoadInt64(&submitted)
						succ := atomic.LoadInt64(&successful)
						dup := atomic.LoadInt64(&duplicate)
						fail := atomic.LoadInt64(&failed)

						if config.Verbose {
							log.Printf("📊 Progress: %d/%d submitted (success: %d, duplicate: %d, failed: %d)",
								total, len(reports), succ, dup, fail)
						} else {
							fmt.Printf("\r📤 Submitted: %d/%d (success: %d, duplicate: %d, failed: %d)",
								total, len(reports), succ, dup, fail)
						}
					}
				}
			}
		}()
	}

	// Send reports to workers
	go func() {
		defer close(reportChan)
		for _, report := range reports {
			select {
			case <-ctx.Done():
				return
			case reportChan <- report:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.ReportsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ReportsSuccessful = int(atomic.LoadInt64(&successful))
	stats.ReportsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.ReportsFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Report submission completed:
   Successful: %d
   Duplicate: %d
   Failed: %d
`, stats.ReportsSuccessful, stats.ReportsDuplicate, stats.ReportsFailed)

	return nil
}

// submitSingleReport submits a single report and returns the result
func submitSingleReport(ctx context.Context, client *HTTPClient, url string, report Report) string {
	resp, err := client.Post(ctx, url, report)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		// Created requests carry an id and an SLA deadline
		var stored StoredReport
		if err := json.Unmarshal(body, &stored); err == nil && stored.ID != "" {
			return "success"
		}
		return "success" // Assume success for 201 even if parsing fails
	case http.StatusConflict:
		// A replayed client_ref is rejected as a duplicate
		return "duplicate"
	default:
		return "failed"
	}
}
