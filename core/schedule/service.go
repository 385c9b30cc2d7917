package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/motaylenko/meedle/core"
)

var (
	// errors
	ErrTemplateNotFound = errors.New("lesson template not found")
	ErrOverrideNotFound = errors.New("lesson override not found")
)

type (
	Repository interface {
		CreateLessonTemplate(ctx context.Context, tpl LessonTemplate) (LessonTemplate, error)
		GetLessonTemplate(ctx context.Context, id string) (LessonTemplate, error)
		QueryLessonTemplates(ctx context.Context, groupID string) ([]LessonTemplate, error)
		UpdateLessonTemplate(ctx context.Context, tpl LessonTemplate) (LessonTemplate, error)
		DeleteLessonTemplatesByID(ctx context.Context, ids ...string) error

		CreateLessonOverride(ctx context.Context, ovr LessonOverride) (LessonOverride, error)
		GetLessonOverride(ctx context.Context, id string) (LessonOverride, error)
		// QueryLessonOverrides returns the group's overrides pinned to dates
		// within [from, to] inclusive.
		QueryLessonOverrides(ctx context.Context, groupID string, from, to time.Time) ([]LessonOverride, error)
		DeleteLessonOverridesByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CreateTemplate(ctx context.Context, nt NewLessonTemplate) (LessonTemplate, error)
		GetTemplate(ctx context.Context, id string) (LessonTemplate, error)
		QueryTemplates(ctx context.Context, groupID string) ([]LessonTemplate, error)
		UpdateTemplate(ctx context.Context, id string, ut UpdateLessonTemplate) (LessonTemplate, error)
		DeleteTemplates(ctx context.Context, ids ...string) error

		CreateOverride(ctx context.Context, no NewLessonOverride) (LessonOverride, error)
		GetOverride(ctx context.Context, id string) (LessonOverride, error)
		QueryOverrides(ctx context.Context, groupID string, from, to time.Time) ([]LessonOverride, error)
		DeleteOverrides(ctx context.Context, ids ...string) error

		ResolveWeek(ctx context.Context, groupID string, weekStart time.Time) (WeekSchedule, error)
		ResolveDay(ctx context.Context, groupID string, date time.Time) (DaySchedule, error)
	}

	service struct {
		*Resolver
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, conf *core.Config) Service {
	return &service{
		Resolver: NewResolver(repo, conf),
		repo:     repo,
	}
}

func (svc *service) CreateTemplate(ctx context.Context, nt NewLessonTemplate) (LessonTemplate, error) {
	now := time.Now().UTC()
	tpl := LessonTemplate{
		ID:         uuid.New().String(),
		GroupID:    nt.GroupID,
		CourseID:   nt.CourseID,
		Weekday:    nt.Weekday,
		StartTime:  nt.StartTime,
		EndTime:    nt.EndTime,
		Room:       nt.Room,
		Kind:       nt.Kind,
		Recurrence: nt.Recurrence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return svc.repo.CreateLessonTemplate(ctx, tpl)
}

func (svc *service) GetTemplate(ctx context.Context, id string) (LessonTemplate, error) {
	return svc.repo.GetLessonTemplate(ctx, id)
}

func (svc *service) QueryTemplates(ctx context.Context, groupID string) ([]LessonTemplate, error) {
	return svc.repo.QueryLessonTemplates(ctx, groupID)
}

func (svc *service) UpdateTemplate(ctx context.Context, id string, ut UpdateLessonTemplate) (LessonTemplate, error) {
	tpl, err := svc.repo.GetLessonTemplate(ctx, id)
	if err != nil {
		return LessonTemplate{}, err
	}

	tpl.Weekday = ut.Weekday
	tpl.StartTime = ut.StartTime
	tpl.EndTime = ut.EndTime
	tpl.Room = ut.Room
	tpl.Kind = ut.Kind
	tpl.Recurrence = ut.Recurrence
	if ut.CourseID != "" {
		tpl.CourseID = ut.CourseID
	}
	tpl.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateLessonTemplate(ctx, tpl)
}

func (svc *service) DeleteTemplates(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteLessonTemplatesByID(ctx, ids...)
}

func (svc *service) CreateOverride(ctx context.Context, no NewLessonOverride) (LessonOverride, error) {
	date, err := time.ParseInLocation("2006-01-02", no.Date, time.UTC)
	if err != nil {
		return LessonOverride{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: "invalid date"})
	}

	now := time.Now().UTC()
	ovr := LessonOverride{
		ID:          uuid.New().String(),
		GroupID:     no.GroupID,
		CourseID:    no.CourseID,
		Date:        date,
		StartTime:   no.StartTime,
		EndTime:     no.EndTime,
		Room:        no.Room,
		Kind:        no.Kind,
		IsTemporary: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateLessonOverride(ctx, ovr)
}

func (svc *service) GetOverride(ctx context.Context, id string) (LessonOverride, error) {
	return svc.repo.GetLessonOverride(ctx, id)
}

func (svc *service) QueryOverrides(ctx context.Context, groupID string, from, to time.Time) ([]LessonOverride, error) {
	return svc.repo.QueryLessonOverrides(ctx, groupID, DateOnly(from), DateOnly(to))
}

func (svc *service) DeleteOverrides(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteLessonOverridesByID(ctx, ids...)
}
