package testreports

import (
	"context"
	"fmt"
	"log"
)

// verifyResults checks the sweep tallies and ranking ordering for
// consistency.
func verifyResults(ctx context.Context, config *Config, sweep *SweepResult, rankings []RankingEntry) error {
	log.Println("🔍 Verifying results...")

	if sweep.Marked < sweep.Violations {
		return fmt.Errorf("sweep marked %d requests but recorded %d violations", sweep.Marked, sweep.Violations)
	}
	if sweep.Checked < sweep.Marked {
		return fmt.Errorf("sweep checked %d requests but marked %d", sweep.Checked, sweep.Marked)
	}

	if err := verifyRankingOrder(rankings); err != nil {
		return fmt.Errorf("ranking verification failed: %w", err)
	}

	displayTopWorkers(rankings, config.Verbose)

	log.Println("✅ Result verification completed")
	return nil
}

// verifyRankingOrder checks ranks are sequential from 1 and scores
// never increase down the list.
func verifyRankingOrder(rankings []RankingEntry) error {
	for i, entry := range rankings {
		if entry.Rank != i+1 {
			return fmt.Errorf("entry %d has rank %d, expected %d", i, entry.Rank, i+1)
		}
		if i > 0 && entry.TotalScore > rankings[i-1].TotalScore {
			return fmt.Errorf("rankings not properly sorted: entry %d has higher score than entry %d", i, i-1)
		}
	}
	return nil
}

// displayTopWorkers shows the top workers from the rankings.
func displayTopWorkers(rankings []RankingEntry, verbose bool) {
	if len(rankings) == 0 {
		log.Println("ℹ️  No workers ranked (empty roster)")
		return
	}

	topN := 10
	if len(rankings) < topN {
		topN = len(rankings)
	}

	log.Printf("🏆 Top %d workers:", topN)
	for i := 0; i < topN; i++ {
		entry := rankings[i]
		log.Printf("   %d. %s (%s) - Score: %.1f", entry.Rank, entry.FullName, entry.WorkerID, entry.TotalScore)
	}

	if verbose {
		avgScore := calculateAverageScore(rankings)
		maxScore := rankings[0].TotalScore
		minScore := rankings[len(rankings)-1].TotalScore

		log.Printf(`📊 Score statistics:
   Average: %.1f
   Maximum: %.1f
   Minimum: %.1f
`, avgScore, maxScore, minScore)
	}
}

// calculateAverageScore calculates the average score from rankings.
func calculateAverageScore(rankings []RankingEntry) float64 {
	if len(rankings) == 0 {
		return 0
	}

	sum := 0.0
	for _, entry := range rankings {
		sum += entry.TotalScore
	}
	return sum / float64(len(rankings))
}
