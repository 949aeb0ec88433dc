package testreports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cityfix/cityfix/pkg/logger"
)

// settleDelay gives the notification pipeline a moment to drain before
// the harness reads rankings.
const settleDelay = 2 * time.Second

// Run executes the complete report load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting cityfix report load test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("reports", config.NumReports),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate reports
	reports := generateReports(ctx, config, stats)

	// Step 3: Submit reports concurrently
	if err := submitReports(ctx, config, reports, stats); err != nil {
		return fmt.Errorf("report submission failed: %w", err)
	}

	// Step 4: Trigger an SLA sweep
	sweep, err := triggerSweep(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	// Step 5: Recalculate worker rankings
	if err := recalculateRankings(ctx, config); err != nil {
		return fmt.Errorf("ranking recalculation failed: %w", err)
	}

	logger.Get().Info(ctx, "waiting for notifications to settle")
	time.Sleep(settleDelay)

	// Step 6: Retrieve rankings
	rankings, err := retrieveRankings(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("ranking retrieval failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(ctx, config, sweep, rankings); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// triggerSweep hits POST /sla/check and parses the tallies. The
// endpoint is rate limited, so a 429 is retried after a short pause.
func triggerSweep(ctx context.Context, config *Config, stats *Stats) (*SweepResult, error) {
	logger.Get().Info(ctx, "triggering SLA sweep")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/sla/check"

	var resp *http.Response
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err = client.Post(ctx, url, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to trigger sweep: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		if _, err := readResponseBody(resp); err != nil {
			return nil, fmt.Errorf("failed to read throttled response: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read sweep response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sweep failed with status: %d", resp.StatusCode)
	}

	var sweep SweepResult
	if err := json.Unmarshal(body, &sweep); err != nil {
		return nil, fmt.Errorf("failed to parse sweep response: %w", err)
	}

	stats.SweepChecked = sweep.Checked
	stats.SweepViolations = sweep.Violations

	logger.Get().Info(ctx, "sweep completed",
		logger.Int("checked", sweep.Checked),
		logger.Int("marked", sweep.Marked),
		logger.Int("violations", sweep.Violations))
	return &sweep, nil
}

// recalculateRankings hits POST /workers/rankings/recalculate.
func recalculateRankings(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "recalculating worker rankings")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/workers/rankings/recalculate"

	resp, err := client.Post(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to trigger recalculation: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read recalculation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("recalculation failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Updated int `json:"updated"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse recalculation response: %w", err)
	}

	logger.Get().Info(ctx, "rankings recalculated", logger.Int("updated", result.Updated))
	return nil
}

// retrieveRankings fetches GET /workers/rankings.
func retrieveRankings(ctx context.Context, config *Config, stats *Stats) ([]RankingEntry, error) {
	logger.Get().Info(ctx, "retrieving worker rankings")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/workers/rankings"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rankings: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read rankings response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rankings fetch failed with status: %d", resp.StatusCode)
	}

	var rankings []RankingEntry
	if err := json.Unmarshal(body, &rankings); err != nil {
		return nil, fmt.Errorf("failed to parse rankings response: %w", err)
	}

	stats.RankingsRetrieved = len(rankings)
	logger.Get().Info(ctx, "rankings retrieved", logger.Int("count", len(rankings)))
	return rankings, nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, reportsPerSecond float64

	if stats.ReportsSubmitted > 0 {
		successRate = float64(stats.ReportsSuccessful) / float64(stats.ReportsSubmitted) * 100
	}

	if stats.Duration > 0 {
		reportsPerSecond = float64(stats.ReportsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("reportsGenerated", stats.ReportsGenerated),
		logger.Int("reportsSubmitted", stats.ReportsSubmitted),
		logger.Int("reportsSuccessful", stats.ReportsSuccessful),
		logger.Int("reportsDuplicate", stats.ReportsDuplicate),
		logger.Int("reportsFailed", stats.ReportsFailed),
		logger.Int("sweepChecked", stats.SweepChecked),
		logger.Int("sweepViolations", stats.SweepViolations),
		logger.Int("rankingsRetrieved", stats.RankingsRetrieved),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("reportsPerSecond", reportsPerSecond))
}
