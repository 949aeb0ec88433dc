// Package engagement maps citizen report counts to recognition levels.
package engagement

import "math"

// Level describes one rung of the citizen recognition ladder.
type Level struct {
	Level       int    `json:"level"`
	Title       string `json:"title"`
	MinReports  int    `json:"min_reports"`
	Description string `json:"description"`
}

// Ladder, lowest level first. Thresholds are cumulative report counts.
var levels = []Level{
	{Level: 1, Title: "New Resident", MinReports: 0,
		Description: "Welcome to CityFix. Submit reports to help improve your community."},
	{Level: 2, Title: "Community Member", MinReports: 3,
		Description: "You are making a difference. Your reports help keep the city running smoothly."},
	{Level: 3, Title: "Active Contributor", MinReports: 10,
		Description: "Your consistent engagement helps prioritize issues across the city."},
	{Level: 4, Title: "Neighborhood Champion", MinReports: 25,
		Description: "A recognized advocate for community improvement. Thank you for your dedication."},
	{Level: 5, Title: "Civic Leader", MinReports: 50,
		Description: "Among the most active citizens on CityFix. Your contributions shape the city."},
}

// LevelFor returns the highest level whose threshold reportCount meets.
func LevelFor(reportCount int) Level {
	current := levels[0]
	for _, l := range levels {
		if reportCount >= l.MinReports {
			current = l
		} else {
			break
		}
	}
	return current
}

// NextLevel returns the level after the current one, or nil at the top.
func NextLevel(reportCount int) *Level {
	current := LevelFor(reportCount)
	for i, l := range levels {
		if l.Level == current.Level && i+1 < len(levels) {
			next := levels[i+1]
			return &next
		}
	}
	return nil
}

// Progress returns percent progress toward the next level, capped at 100.
func Progress(reportCount int) int {
	current := LevelFor(reportCount)
	next := NextLevel(reportCount)
	if next == nil {
		return 100
	}
	span := next.MinReports - current.MinReports
	done := reportCount - current.MinReports
	pct := int(math.Round(float64(done) / float64(span) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}
