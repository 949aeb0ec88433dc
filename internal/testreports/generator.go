package testreports

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/google/uuid"

	"github.com/cityfix/cityfix/pkg/logger"
)

// Skew toward the mundane: most city reports are routine, urgent ones
// are rare.
const (
	priorityBuckets = 10
	urgentBucketMax = 0 // 10% urgent
	highBucketMax   = 2 // 20% high
	mediumBucketMax = 6 // 40% medium
)

var categories = []string{
	"roads", "lighting", "water", "sanitation", "parks", "safety",
}

var titlesByCategory = map[string][]string{
	"roads":      {"Pothole on main street", "Cracked sidewalk", "Faded crosswalk"},
	"lighting":   {"Streetlight out", "Flickering lamp post"},
	"water":      {"Leaking hydrant", "Blocked storm drain", "Low water pressure"},
	"sanitation": {"Overflowing bin", "Illegal dumping", "Graffiti on wall"},
	"parks":      {"Fallen tree", "Broken swing", "Vandalized bench"},
	"safety":     {"Gas smell near school", "Exposed wiring", "Missing manhole cover"},
}

// randomInt returns a random int in [0, n) using crypto/rand.
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateReports creates synthetic reports with unique citizen IDs and
// idempotency tokens.
func generateReports(ctx context.Context, config *Config, stats *Stats) []Report {
	logger.Get().Info(ctx, "generating reports", logger.Int("count", config.NumReports))

	reports := make([]Report, config.NumReports)
	for i := range reports {
		category := categories[randomInt(len(categories))]
		titles := titlesByCategory[category]

		reports[i] = Report{
			Title:      titles[randomInt(len(titles))],
			CategoryID: category,
			Priority:   randomPriority(),
			CitizenID:  uuid.NewString(),
			Address:    strconv.Itoa(1+randomInt(999)) + " Elm Street",
			ClientRef:  uuid.NewString(),
		}
	}

	stats.ReportsGenerated = len(reports)
	return reports
}

// randomPriority draws from the skewed priority distribution.
func randomPriority() string {
	switch bucket := randomInt(priorityBuckets); {
	case bucket <= urgentBucketMax:
		return "urgent"
	case bucket <= highBucketMax:
		return "high"
	case bucket <= mediumBucketMax:
		return "medium"
	default:
		return "low"
	}
}
