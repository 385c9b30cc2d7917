package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/motaylenko/meedle/core"
)

// Resolver computes the effective lesson list for a group's week or day by
// merging recurring templates with date-pinned overrides.
//
// The week-parity convention (term start date and the label of week 0) comes
// from configuration; it is never inferred from stored data.
type Resolver struct {
	repo      Repository
	termStart time.Time
	firstWeek Recurrence // label of the week containing termStart
}

func NewResolver(repo Repository, conf *core.Config) *Resolver {
	return &Resolver{
		repo:      repo,
		termStart: WeekStartOf(conf.Schedule.TermStart),
		firstWeek: Recurrence(conf.Schedule.FirstWeek),
	}
}

// WeekParity labels the week starting at `weekStart` as upper or lower.
// Weeks are counted from the term start; the count may go negative for dates
// before the term without breaking the alternation.
func (r *Resolver) WeekParity(weekStart time.Time) Recurrence {
	days := int(DateOnly(weekStart).Sub(r.termStart).Hours() / 24)
	weeks := days / 7
	if days < 0 && days%7 != 0 {
		weeks-- // floor, not truncate
	}
	even := ((weeks%2)+2)%2 == 0

	other := RecurrenceLower
	if r.firstWeek == RecurrenceLower {
		other = RecurrenceUpper
	}
	if even {
		return r.firstWeek
	}
	return other
}

// ResolveWeek returns the lessons that actually occur for the group during
// the Monday-to-Sunday week containing `weekStart`; a mid-week date snaps
// back to its Monday. Days without lessons are present with empty lists.
// Overlapping lessons are passed through as-is; conflict prevention is an
// input-validation concern, not a resolution concern.
//
// Any repository failure fails the whole call; no partial week is returned.
func (r *Resolver) ResolveWeek(ctx context.Context, groupID string, weekStart time.Time) (WeekSchedule, error) {
	start := WeekStartOf(weekStart)
	end := start.AddDate(0, 0, 6)

	templates, err := r.repo.QueryLessonTemplates(ctx, groupID)
	if err != nil {
		return WeekSchedule{}, err
	}
	overrides, err := r.repo.QueryLessonOverrides(ctx, groupID, start, end)
	if err != nil {
		return WeekSchedule{}, err
	}

	parity := r.WeekParity(start)
	active := filterByParity(templates, parity)
	ovrsByDate := groupByDate(overrides)

	week := WeekSchedule{
		GroupID:   groupID,
		WeekStart: start,
		Parity:    parity,
		Days:      make([]DaySchedule, 0, 7),
	}
	for i := 0; i < 7; i++ {
		date := start.AddDate(0, 0, i)
		week.Days = append(week.Days, buildDay(date, active, ovrsByDate[dateKey(date)]))
	}
	return week, nil
}

// ResolveDay resolves a single calendar day using the same template
// filtering and override-replacement rules as ResolveWeek.
func (r *Resolver) ResolveDay(ctx context.Context, groupID string, date time.Time) (DaySchedule, error) {
	day := DateOnly(date)

	templates, err := r.repo.QueryLessonTemplates(ctx, groupID)
	if err != nil {
		return DaySchedule{}, err
	}
	overrides, err := r.repo.QueryLessonOverrides(ctx, groupID, day, day)
	if err != nil {
		return DaySchedule{}, err
	}

	parity := r.WeekParity(WeekStartOf(day))
	return buildDay(day, filterByParity(templates, parity), overrides), nil
}

func filterByParity(templates []LessonTemplate, parity Recurrence) []LessonTemplate {
	kept := make([]LessonTemplate, 0, len(templates))
	for _, t := range templates {
		if t.Recurrence.AppliesTo(parity) {
			kept = append(kept, t)
		}
	}
	return kept
}

func groupByDate(overrides []LessonOverride) map[string][]LessonOverride {
	byDate := make(map[string][]LessonOverride, len(overrides))
	for _, o := range overrides {
		k := dateKey(o.Date)
		byDate[k] = append(byDate[k], o)
	}
	return byDate
}

func dateKey(date time.Time) string {
	return date.Format("2006-01-02")
}

// buildDay merges one day's templates and overrides. An override replaces
// (never duplicates) every template lesson of the same course on that day;
// remaining templates apply unchanged.
func buildDay(date time.Time, templates []LessonTemplate, overrides []LessonOverride) DaySchedule {
	overridden := make(map[string]struct{}, len(overrides))
	for _, o := range overrides {
		overridden[o.CourseID] = struct{}{}
	}

	lessons := make([]Lesson, 0, len(templates)+len(overrides))
	for _, t := range templates {
		if t.Weekday != date.Weekday() {
			continue
		}
		if _, ok := overridden[t.CourseID]; ok {
			continue
		}
		lessons = append(lessons, Lesson{
			CourseID:  t.CourseID,
			StartTime: t.StartTime,
			EndTime:   t.EndTime,
			Room:      t.Room,
			Kind:      t.Kind,
		})
	}
	for _, o := range overrides {
		lessons = append(lessons, Lesson{
			CourseID:    o.CourseID,
			StartTime:   o.StartTime,
			EndTime:     o.EndTime,
			Room:        o.Room,
			Kind:        o.Kind,
			IsTemporary: true,
		})
	}

	// ordered by start time; course ID breaks ties for determinism
	sort.Slice(lessons, func(i, j int) bool {
		if lessons[i].StartTime != lessons[j].StartTime {
			return lessons[i].StartTime < lessons[j].StartTime
		}
		return lessons[i].CourseID < lessons[j].CourseID
	})

	return DaySchedule{Date: date, Weekday: date.Weekday(), Lessons: lessons}
}
