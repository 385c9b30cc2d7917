package schedule

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Recurrence governs which academic weeks a lesson template applies to.
// University timetables alternate between "upper" and "lower" weeks; an
// "every" template applies to both.
type Recurrence string

const (
	RecurrenceEvery Recurrence = "every"
	RecurrenceUpper Recurrence = "upper"
	RecurrenceLower Recurrence = "lower"
)

// AppliesTo reports whether a template with this recurrence occurs on a week
// labeled `parity` (RecurrenceUpper or RecurrenceLower).
func (r Recurrence) AppliesTo(parity Recurrence) bool {
	return r == RecurrenceEvery || r == parity
}

func (r Recurrence) IsValid() bool {
	switch r {
	case RecurrenceEvery, RecurrenceUpper, RecurrenceLower:
		return true
	}
	return false
}

type LessonKind string

const (
	KindLecture  LessonKind = "lecture"
	KindPractice LessonKind = "practice"
	KindLab      LessonKind = "lab"
)

func (k LessonKind) IsValid() bool {
	switch k {
	case KindLecture, KindPractice, KindLab:
		return true
	}
	return false
}

// TimeOfDay is a same-day wall-clock time stored as minutes since midnight.
// It marshals as "15:04" and maps to a Postgres TIME column.
type TimeOfDay int

func NewTimeOfDay(hour, min int) TimeOfDay {
	return TimeOfDay(hour*60 + min)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		if t, err = time.Parse("15:04:05", s); err != nil {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = tod
	return nil
}

// Value implements driver.Valuer.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner.
func (t *TimeOfDay) Scan(value interface{}) error {
	switch v := value.(type) {
	case string:
		tod, err := ParseTimeOfDay(v)
		if err != nil {
			return err
		}
		*t = tod
	case []byte:
		tod, err := ParseTimeOfDay(string(v))
		if err != nil {
			return err
		}
		*t = tod
	case time.Time:
		*t = NewTimeOfDay(v.Hour(), v.Minute())
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", value)
	}
	return nil
}

// LessonTemplate is a weekly recurring lesson owned by a group.
// Invariant: StartTime < EndTime.
type LessonTemplate struct {
	ID         string       `json:"id"`
	GroupID    string       `json:"group_id"`
	CourseID   string       `json:"course_id"`
	Weekday    time.Weekday `json:"weekday"`
	StartTime  TimeOfDay    `json:"start_time"`
	EndTime    TimeOfDay    `json:"end_time"`
	Room       string       `json:"room"`
	Kind       LessonKind   `json:"kind"`
	Recurrence Recurrence   `json:"recurrence"`
	CreatedAt  time.Time    `json:"created_at"` // UTC
	UpdatedAt  time.Time    `json:"updated_at"` // UTC
}

// LessonOverride is a one-off, date-pinned lesson. On its date it fully
// replaces any template-derived lesson of the same course for the group.
type LessonOverride struct {
	ID          string     `json:"id"`
	GroupID     string     `json:"group_id"`
	CourseID    string     `json:"course_id"`
	Date        time.Time  `json:"date"` // date-only, UTC
	StartTime   TimeOfDay  `json:"start_time"`
	EndTime     TimeOfDay  `json:"end_time"`
	Room        string     `json:"room"`
	Kind        LessonKind `json:"kind"`
	IsTemporary bool       `json:"is_temporary"`
	CreatedAt   time.Time  `json:"created_at"` // UTC
	UpdatedAt   time.Time  `json:"updated_at"` // UTC
}

// Lesson is a resolved occurrence: what actually happens in a room at a time.
type Lesson struct {
	CourseID    string     `json:"course_id"`
	StartTime   TimeOfDay  `json:"start_time"`
	EndTime     TimeOfDay  `json:"end_time"`
	Room        string     `json:"room"`
	Kind        LessonKind `json:"kind"`
	IsTemporary bool       `json:"is_temporary"`
}

type DaySchedule struct {
	Date    time.Time    `json:"date"`
	Weekday time.Weekday `json:"weekday"`
	Lessons []Lesson     `json:"lessons"`
}

type WeekSchedule struct {
	GroupID   string        `json:"group_id"`
	WeekStart time.Time     `json:"week_start"`
	Parity    Recurrence    `json:"parity"` // upper | lower
	Days      []DaySchedule `json:"days"`   // always 7 entries
}

// DateOnly truncates `t` to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NowDate returns today's date in UTC.
func NowDate() time.Time {
	return DateOnly(time.Now().UTC())
}

// WeekStartOf returns the Monday of the week containing `date`.
func WeekStartOf(date time.Time) time.Time {
	d := DateOnly(date)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}
