// Package dashboard assembles the overview, analytics and goal screens from
// the query layer and the analytics functions.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"studytracker/backend/internal/analytics"
	"studytracker/backend/internal/model"
)

// Source is the read side of query.Layer.
type Source interface {
	Subjects(ctx context.Context) ([]model.Subject, error)
	Sessions(ctx context.Context) ([]model.StudySession, error)
	DailyGoal(ctx context.Context) (model.Goal, error)
}

type Builder struct {
	src    Source
	now    func() time.Time
	recent int
}

type Option func(*Builder)

// WithNow fixes the clock used for "today" and "this week".
func WithNow(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

func WithRecentCount(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.recent = n
		}
	}
}

func New(src Source, opts ...Option) *Builder {
	b := &Builder{src: src, now: time.Now, recent: analytics.DefaultRecentCount}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type GoalStatus struct {
	Set          bool
	Kind         string
	Target       int64
	Progress     float64
	ProgressText string
	TargetText   string
	Achieved     bool
}

type RecentSession struct {
	Session      model.StudySession
	SubjectName  string
	SubjectColor string
	DurationText string
}

type Overview struct {
	Today           analytics.PeriodStats
	TodayHoursText  string
	WeeklyHours     float64
	WeeklyHoursText string
	SubjectCount    int
	Goal            GoalStatus
	Recent          []RecentSession
}

func (b *Builder) Overview(ctx context.Context) (*Overview, error) {
	subjects, sessions, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	goal, err := b.src.DailyGoal(ctx)
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}

	now := b.now()
	today := analytics.TodayStats(sessions, now)
	week := analytics.WeeklyStats(sessions, now)

	lookup := make(map[string]model.Subject, len(subjects))
	for _, s := range subjects {
		lookup[s.ID] = s
	}
	recent := analytics.RecentSessions(sessions, b.recent)
	items := make([]RecentSession, 0, len(recent))
	for _, s := range recent {
		name, color := model.UnknownSubjectName, model.DefaultSubjectColor
		if subject, ok := lookup[s.SubjectID]; ok {
			name, color = subject.Name, subject.Color
		}
		items = append(items, RecentSession{
			Session:      s,
			SubjectName:  name,
			SubjectColor: color,
			DurationText: analytics.FormatDuration(s.Duration),
		})
	}

	return &Overview{
		Today:           today,
		TodayHoursText:  analytics.FormatHours(today.Hours),
		WeeklyHours:     week.Total.Hours,
		WeeklyHoursText: analytics.FormatHours(week.Total.Hours),
		SubjectCount:    len(subjects),
		Goal:            goalStatus(goal, today),
		Recent:          items,
	}, nil
}

func goalStatus(goal model.Goal, today analytics.PeriodStats) GoalStatus {
	progress, ok := analytics.GoalProgress(goal, today)
	if !ok {
		return GoalStatus{}
	}
	status := GoalStatus{
		Set:          true,
		Kind:         goal.Kind(),
		Target:       goal.Target(),
		Progress:     progress,
		ProgressText: analytics.FormatPercent(progress),
		Achieved:     progress >= 100,
	}
	switch g := goal.(type) {
	case model.TimeBased:
		status.TargetText = fmt.Sprintf("%s / %d hours", analytics.FormatHours(today.Hours), g.TargetHours)
	case model.TaskBased:
		status.TargetText = fmt.Sprintf("%d / %d sessions", today.Sessions, g.TargetSessions)
	}
	return status
}

type Analytics struct {
	Week            analytics.WeekStats
	WeeklyHoursText string
	AverageText     string
	Days            []analytics.DayBucket
	HasDailyData    bool
	Subjects        []analytics.SubjectTotal
}

func (b *Builder) Analytics(ctx context.Context) (*Analytics, error) {
	subjects, sessions, err := b.load(ctx)
	if err != nil {
		return nil, err
	}

	now := b.now()
	week := analytics.WeeklyStats(sessions, now)
	days := analytics.DailyBuckets(sessions, now, analytics.DefaultWindowDays)

	hasData := false
	for _, d := range days {
		if analytics.RoundTenth(d.Hours) > 0 {
			hasData = true
			break
		}
	}

	return &Analytics{
		Week:            week,
		WeeklyHoursText: analytics.FormatHours(week.Total.Hours),
		AverageText:     analytics.FormatHours(week.AverageHoursPerDay),
		Days:            days,
		HasDailyData:    hasData,
		Subjects:        analytics.SubjectBreakdown(sessions, subjects),
	}, nil
}

type GoalView struct {
	Set         bool
	Kind        string
	Target      int64
	Description string
}

func (b *Builder) Goal(ctx context.Context) (*GoalView, error) {
	goal, err := b.src.DailyGoal(ctx)
	if err != nil {
		return nil, fmt.Errorf("load goal: %w", err)
	}
	switch g := goal.(type) {
	case model.TimeBased:
		return &GoalView{Set: true, Kind: g.Kind(), Target: g.TargetHours, Description: fmt.Sprintf("%d hours", g.TargetHours)}, nil
	case model.TaskBased:
		return &GoalView{Set: true, Kind: g.Kind(), Target: g.TargetSessions, Description: fmt.Sprintf("%d sessions", g.TargetSessions)}, nil
	default:
		return &GoalView{Kind: model.GoalKindTimeBased}, nil
	}
}

func (b *Builder) load(ctx context.Context) ([]model.Subject, []model.StudySession, error) {
	subjects, err := b.src.Subjects(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load subjects: %w", err)
	}
	sessions, err := b.src.Sessions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load sessions: %w", err)
	}
	return subjects, sessions, nil
}
