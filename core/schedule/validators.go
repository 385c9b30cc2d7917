package schedule

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/motaylenko/meedle/core"
)

var (
	recurrenceTag  = "recurrence"
	recurrenceText = "must be one of: every, upper, lower"

	lessonKindTag  = "lessonkind"
	lessonKindText = "must be one of: lecture, practice, lab"

	timeRangeTag  = "timerange"
	timeRangeText = "end time must be after start time"
)

// NewLessonTemplate contains information needed to create a recurring lesson.
type NewLessonTemplate struct {
	GroupID    string       `json:"group_id" validate:"required"`
	CourseID   string       `json:"course_id" validate:"required"`
	Weekday    time.Weekday `json:"weekday" validate:"min=0,max=6"`
	StartTime  TimeOfDay    `json:"start_time"`
	EndTime    TimeOfDay    `json:"end_time"`
	Room       string       `json:"room"`
	Kind       LessonKind   `json:"kind" validate:"required,lessonkind"`
	Recurrence Recurrence   `json:"recurrence" validate:"required,recurrence"`
}

func (nt *NewLessonTemplate) Validate(validate *validator.Validate) error {
	nt.Room = core.CleanString(nt.Room)
	return validate.Struct(nt)
}

// UpdateLessonTemplate defines what may be modified on an existing template.
type UpdateLessonTemplate struct {
	CourseID   string       `json:"course_id"`
	Weekday    time.Weekday `json:"weekday" validate:"min=0,max=6"`
	StartTime  TimeOfDay    `json:"start_time"`
	EndTime    TimeOfDay    `json:"end_time"`
	Room       string       `json:"room"`
	Kind       LessonKind   `json:"kind" validate:"required,lessonkind"`
	Recurrence Recurrence   `json:"recurrence" validate:"required,recurrence"`
}

func (u *UpdateLessonTemplate) Validate(validate *validator.Validate) error {
	u.Room = core.CleanString(u.Room)
	return validate.Struct(u)
}

// NewLessonOverride contains information needed to pin a one-off lesson to a
// concrete date.
type NewLessonOverride struct {
	GroupID   string     `json:"group_id" validate:"required"`
	CourseID  string     `json:"course_id" validate:"required"`
	Date      string     `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime TimeOfDay  `json:"start_time"`
	EndTime   TimeOfDay  `json:"end_time"`
	Room      string     `json:"room"`
	Kind      LessonKind `json:"kind" validate:"required,lessonkind"`
}

func (no *NewLessonOverride) Validate(validate *validator.Validate) error {
	no.Room = core.CleanString(no.Room)
	return validate.Struct(no)
}

// RegisterValidators registers schedule-specific validators and translations.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(recurrenceTag, recurrenceValidation)
	core.RegisterCustomTranslation(validate, translator, recurrenceTag, recurrenceText)

	_ = validate.RegisterValidation(lessonKindTag, lessonKindValidation)
	core.RegisterCustomTranslation(validate, translator, lessonKindTag, lessonKindText)

	validate.RegisterStructValidation(lessonStructValidation, NewLessonTemplate{}, UpdateLessonTemplate{}, NewLessonOverride{})
	core.RegisterCustomTranslation(validate, translator, timeRangeTag, timeRangeText)
}

func recurrenceValidation(fl validator.FieldLevel) bool {
	return Recurrence(fl.Field().String()).IsValid()
}

func lessonKindValidation(fl validator.FieldLevel) bool {
	return LessonKind(fl.Field().String()).IsValid()
}

// lessonStructValidation enforces the same-day time-range invariant on every
// lesson-shaped request.
func lessonStructValidation(sl validator.StructLevel) {
	var start, end TimeOfDay
	switch l := sl.Current().Interface().(type) {
	case NewLessonTemplate:
		start, end = l.StartTime, l.EndTime
	case UpdateLessonTemplate:
		start, end = l.StartTime, l.EndTime
	case NewLessonOverride:
		start, end = l.StartTime, l.EndTime
	}
	if end <= start {
		sl.ReportError(end, "end_time", "EndTime", timeRangeTag, "")
	}
}
