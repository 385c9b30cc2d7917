package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/motaylenko/meedle/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTables
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) schedule.Repository {
	return &scheduleRepository{db: db.schedule}
}

func (repo *scheduleRepository) CreateLessonTemplate(ctx context.Context, tpl schedule.LessonTemplate) (schedule.LessonTemplate, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	repo.db.templates[tpl.ID] = &tpl
	return tpl, nil
}

func (repo *scheduleRepository) GetLessonTemplate(ctx context.Context, id string) (schedule.LessonTemplate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if tpl, ok := repo.db.templates[id]; ok {
		return *tpl, nil
	}
	return schedule.LessonTemplate{}, schedule.ErrTemplateNotFound
}

func (repo *scheduleRepository) QueryLessonTemplates(ctx context.Context, groupID string) ([]schedule.LessonTemplate, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tpls := make([]schedule.LessonTemplate, 0)
	for _, tpl := range repo.db.templates {
		if tpl.GroupID == groupID {
			tpls = append(tpls, *tpl)
		}
	}
	sort.Slice(tpls, func(i, j int) bool {
		if tpls[i].Weekday != tpls[j].Weekday {
			return tpls[i].Weekday < tpls[j].Weekday
		}
		return tpls[i].StartTime < tpls[j].StartTime
	})
	return tpls, nil
}

func (repo *scheduleRepository) UpdateLessonTemplate(ctx context.Context, tpl schedule.LessonTemplate) (schedule.LessonTemplate, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.templates[tpl.ID]; !ok {
		return schedule.LessonTemplate{}, schedule.ErrTemplateNotFound
	}
	repo.db.templates[tpl.ID] = &tpl
	return tpl, nil
}

func (repo *scheduleRepository) DeleteLessonTemplatesByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.templates, id)
	}
	return nil
}

func (repo *scheduleRepository) CreateLessonOverride(ctx context.Context, ovr schedule.LessonOverride) (schedule.LessonOverride, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if ovr.ID == "" {
		ovr.ID = uuid.New().String()
	}
	repo.db.overrides[ovr.ID] = &ovr
	return ovr, nil
}

func (repo *scheduleRepository) GetLessonOverride(ctx context.Context, id string) (schedule.LessonOverride, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ovr, ok := repo.db.overrides[id]; ok {
		return *ovr, nil
	}
	return schedule.LessonOverride{}, schedule.ErrOverrideNotFound
}

func (repo *scheduleRepository) QueryLessonOverrides(ctx context.Context, groupID string, from, to time.Time) ([]schedule.LessonOverride, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	fromDay := schedule.DateOnly(from)
	toDay := schedule.DateOnly(to)

	ovrs := make([]schedule.LessonOverride, 0)
	for _, ovr := range repo.db.overrides {
		if ovr.GroupID != groupID {
			continue
		}
		day := schedule.DateOnly(ovr.Date)
		if day.Before(fromDay) || day.After(toDay) {
			continue
		}
		ovrs = append(ovrs, *ovr)
	}
	sort.Slice(ovrs, func(i, j int) bool {
		if !ovrs[i].Date.Equal(ovrs[j].Date) {
			return ovrs[i].Date.Before(ovrs[j].Date)
		}
		return ovrs[i].StartTime < ovrs[j].StartTime
	})
	return ovrs, nil
}

func (repo *scheduleRepository) DeleteLessonOverridesByID(ctx context.Context, ids ...string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	for _, id := range ids {
		delete(repo.db.overrides, id)
	}
	return nil
}
