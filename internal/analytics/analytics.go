// Package analytics derives study statistics from sessions. Every function is
// pure; hours keep full precision and are rounded only for display, except
// SubjectBreakdown which reports display hours.
package analytics

import (
	"sort"
	"time"

	"studytracker/backend/internal/model"
)

const (
	DefaultWindowDays  = 7
	DefaultRecentCount = 5
	daysPerWeek        = 7
	minutesPerHour     = 60
)

type DayBucket struct {
	Start    time.Time
	Label    string
	Minutes  int64
	Hours    float64
	Sessions int
}

type SubjectTotal struct {
	SubjectID string
	Name      string
	Color     string
	Minutes   int64
	Hours     float64
	Sessions  int
}

type PeriodStats struct {
	Minutes  int64
	Hours    float64
	Sessions int
}

type WeekStats struct {
	Total              PeriodStats
	AverageHoursPerDay float64
}

// DailyBuckets splits sessions by date into windowDays consecutive local days
// ending with the day of reference. A bucket holds dates in [start, next
// day's start), so a session dated exactly at midnight belongs to the day it
// opens.
func DailyBuckets(sessions []model.StudySession, reference time.Time, windowDays int) []DayBucket {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	last := model.Midnight(reference)

	buckets := make([]DayBucket, windowDays)
	for i := range buckets {
		start := last.AddDate(0, 0, i-(windowDays-1))
		buckets[i] = DayBucket{Start: start, Label: start.Format("Mon")}
	}

	for _, s := range sessions {
		date := s.Date.Time()
		for i := range buckets {
			end := buckets[i].Start.AddDate(0, 0, 1)
			if !date.Before(buckets[i].Start) && date.Before(end) {
				buckets[i].Minutes += s.Duration
				buckets[i].Sessions++
				break
			}
		}
	}

	for i := range buckets {
		buckets[i].Hours = hours(buckets[i].Minutes)
	}
	return buckets
}

// SubjectBreakdown totals sessions per subject, in subject order, drops
// subjects whose rounded hours are zero and sorts by hours descending.
// Sessions for unknown subjects are ignored.
func SubjectBreakdown(sessions []model.StudySession, subjects []model.Subject) []SubjectTotal {
	index := make(map[string]int, len(subjects))
	totals := make([]SubjectTotal, len(subjects))
	for i, subject := range subjects {
		index[subject.ID] = i
		totals[i] = SubjectTotal{SubjectID: subject.ID, Name: subject.Name, Color: subject.Color}
	}

	for _, s := range sessions {
		i, ok := index[s.SubjectID]
		if !ok {
			continue
		}
		totals[i].Minutes += s.Duration
		totals[i].Sessions++
	}

	out := make([]SubjectTotal, 0, len(totals))
	for _, t := range totals {
		t.Hours = RoundTenth(hours(t.Minutes))
		if t.Hours > 0 {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Hours > out[j].Hours
	})
	return out
}

// PeriodTotal sums sessions dated at or after periodStart.
func PeriodTotal(sessions []model.StudySession, periodStart time.Time) PeriodStats {
	from := model.FromTime(periodStart)
	var stats PeriodStats
	for _, s := range sessions {
		if s.Date >= from {
			stats.Minutes += s.Duration
			stats.Sessions++
		}
	}
	stats.Hours = hours(stats.Minutes)
	return stats
}

func DayStart(now time.Time) time.Time {
	return model.Midnight(now)
}

// WeekStart is the most recent Sunday at local midnight, today included.
func WeekStart(now time.Time) time.Time {
	return model.Midnight(now).AddDate(0, 0, -int(now.Weekday()))
}

func TodayStats(sessions []model.StudySession, now time.Time) PeriodStats {
	return PeriodTotal(sessions, DayStart(now))
}

func WeeklyStats(sessions []model.StudySession, now time.Time) WeekStats {
	total := PeriodTotal(sessions, WeekStart(now))
	return WeekStats{
		Total:              total,
		AverageHoursPerDay: total.Hours / daysPerWeek,
	}
}

// GoalProgress returns today's progress toward goal as a percentage in
// [0, 100]. ok is false when no goal is set.
func GoalProgress(goal model.Goal, today PeriodStats) (percent float64, ok bool) {
	switch g := goal.(type) {
	case nil:
		return 0, false
	case model.TimeBased:
		return ratio(today.Hours, float64(g.TargetHours)), true
	case model.TaskBased:
		return ratio(float64(today.Sessions), float64(g.TargetSessions)), true
	default:
		return 0, false
	}
}

// RecentSessions returns the n most recently started sessions, newest first.
func RecentSessions(sessions []model.StudySession, n int) []model.StudySession {
	if n <= 0 {
		n = DefaultRecentCount
	}
	sorted := append([]model.StudySession(nil), sessions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime > sorted[j].StartTime
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func hours(minutes int64) float64 {
	return float64(minutes) / minutesPerHour
}

func ratio(value, target float64) float64 {
	if target <= 0 {
		return 0
	}
	pct := value / target * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
