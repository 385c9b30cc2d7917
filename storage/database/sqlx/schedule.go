package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/motaylenko/meedle/core/schedule"
)

type lessonTemplateRow struct {
	ID         string             `db:"id"`
	GroupID    string             `db:"group_id"`
	CourseID   string             `db:"course_id"`
	Weekday    int                `db:"weekday"`
	StartTime  schedule.TimeOfDay `db:"start_time"`
	EndTime    schedule.TimeOfDay `db:"end_time"`
	Room       string             `db:"room"`
	Kind       string             `db:"kind"`
	Recurrence string             `db:"recurrence"`
	CreatedAt  null.Time          `db:"created_at"`
	UpdatedAt  null.Time          `db:"updated_at"`
}

func (row lessonTemplateRow) template() schedule.LessonTemplate {
	return schedule.LessonTemplate{
		ID:         row.ID,
		GroupID:    row.GroupID,
		CourseID:   row.CourseID,
		Weekday:    time.Weekday(row.Weekday),
		StartTime:  row.StartTime,
		EndTime:    row.EndTime,
		Room:       row.Room,
		Kind:       schedule.LessonKind(row.Kind),
		Recurrence: schedule.Recurrence(row.Recurrence),
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

type lessonOverrideRow struct {
	ID          string             `db:"id"`
	GroupID     string             `db:"group_id"`
	CourseID    string             `db:"course_id"`
	Date        time.Time          `db:"date"`
	StartTime   schedule.TimeOfDay `db:"start_time"`
	EndTime     schedule.TimeOfDay `db:"end_time"`
	Room        string             `db:"room"`
	Kind        string             `db:"kind"`
	IsTemporary bool               `db:"is_temporary"`
	CreatedAt   null.Time          `db:"created_at"`
	UpdatedAt   null.Time          `db:"updated_at"`
}

func (row lessonOverrideRow) override() schedule.LessonOverride {
	return schedule.LessonOverride{
		ID:          row.ID,
		GroupID:     row.GroupID,
		CourseID:    row.CourseID,
		Date:        schedule.DateOnly(row.Date),
		StartTime:   row.StartTime,
		EndTime:     row.EndTime,
		Room:        row.Room,
		Kind:        schedule.LessonKind(row.Kind),
		IsTemporary: row.IsTemporary,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *sqlx.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo scheduleRepository) CreateLessonTemplate(ctx context.Context, tpl schedule.LessonTemplate) (schedule.LessonTemplate, error) {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}

	q := `
		INSERT INTO lesson_template (id, group_id, course_id, weekday, start_time, end_time, room, kind, recurrence, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.db.ExecContext(ctx, q,
		tpl.ID, tpl.GroupID, tpl.CourseID, int(tpl.Weekday), tpl.StartTime, tpl.EndTime,
		tpl.Room, string(tpl.Kind), string(tpl.Recurrence), tpl.CreatedAt.UTC(), tpl.UpdatedAt.UTC(),
	)
	if err != nil {
		return schedule.LessonTemplate{}, errors.Wrap(err, "inserting lesson template")
	}
	return tpl, nil
}

func (repo scheduleRepository) GetLessonTemplate(ctx context.Context, id string) (schedule.LessonTemplate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return schedule.LessonTemplate{}, schedule.ErrTemplateNotFound
	}

	var row lessonTemplateRow
	q := `SELECT * FROM lesson_template WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return schedule.LessonTemplate{}, schedule.ErrTemplateNotFound
		}
		return schedule.LessonTemplate{}, errors.Wrap(err, "finding lesson template")
	}
	return row.template(), nil
}

func (repo scheduleRepository) QueryLessonTemplates(ctx context.Context, groupID string) ([]schedule.LessonTemplate, error) {
	var rows []lessonTemplateRow
	q := `SELECT * FROM lesson_template WHERE group_id = $1 ORDER BY weekday ASC, start_time ASC`
	if err := repo.db.SelectContext(ctx, &rows, q, groupID); err != nil {
		return nil, errors.Wrap(err, "querying lesson templates")
	}
	tpls := make([]schedule.LessonTemplate, 0, len(rows))
	for _, row := range rows {
		tpls = append(tpls, row.template())
	}
	return tpls, nil
}

func (repo scheduleRepository) UpdateLessonTemplate(ctx context.Context, tpl schedule.LessonTemplate) (schedule.LessonTemplate, error) {
	q := `
		UPDATE lesson_template
		SET group_id = $2, course_id = $3, weekday = $4, start_time = $5, end_time = $6, room = $7, kind = $8, recurrence = $9, updated_at = $10
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		tpl.ID, tpl.GroupID, tpl.CourseID, int(tpl.Weekday), tpl.StartTime, tpl.EndTime,
		tpl.Room, string(tpl.Kind), string(tpl.Recurrence), tpl.UpdatedAt.UTC(),
	)
	if err != nil {
		return schedule.LessonTemplate{}, errors.Wrap(err, "updating lesson template")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.LessonTemplate{}, schedule.ErrTemplateNotFound
	}
	return tpl, nil
}

func (repo scheduleRepository) DeleteLessonTemplatesByID(ctx context.Context, ids ...string) error {
	q := `DELETE FROM lesson_template WHERE id = ANY($1)`
	if _, err := repo.db.ExecContext(ctx, q, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting lesson templates")
	}
	return nil
}

func (repo scheduleRepository) CreateLessonOverride(ctx context.Context, ovr schedule.LessonOverride) (schedule.LessonOverride, error) {
	if ovr.ID == "" {
		ovr.ID = uuid.New().String()
	}

	q := `
		INSERT INTO lesson_override (id, group_id, course_id, date, start_time, end_time, room, kind, is_temporary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := repo.db.ExecContext(ctx, q,
		ovr.ID, ovr.GroupID, ovr.CourseID, ovr.Date, ovr.StartTime, ovr.EndTime,
		ovr.Room, string(ovr.Kind), ovr.IsTemporary, ovr.CreatedAt.UTC(), ovr.UpdatedAt.UTC(),
	)
	if err != nil {
		return schedule.LessonOverride{}, errors.Wrap(err, "inserting lesson override")
	}
	return ovr, nil
}

func (repo scheduleRepository) GetLessonOverride(ctx context.Context, id string) (schedule.LessonOverride, error) {
	if _, err := uuid.Parse(id); err != nil {
		return schedule.LessonOverride{}, schedule.ErrOverrideNotFound
	}

	var row lessonOverrideRow
	q := `SELECT * FROM lesson_override WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return schedule.LessonOverride{}, schedule.ErrOverrideNotFound
		}
		return schedule.LessonOverride{}, errors.Wrap(err, "finding lesson override")
	}
	return row.override(), nil
}

func (repo scheduleRepository) QueryLessonOverrides(ctx context.Context, groupID string, from, to time.Time) ([]schedule.LessonOverride, error) {
	var rows []lessonOverrideRow
	q := `SELECT * FROM lesson_override WHERE group_id = $1 AND date BETWEEN $2 AND $3 ORDER BY date ASC, start_time ASC`
	if err := repo.db.SelectContext(ctx, &rows, q, groupID, schedule.DateOnly(from), schedule.DateOnly(to)); err != nil {
		return nil, errors.Wrap(err, "querying lesson overrides")
	}
	ovrs := make([]schedule.LessonOverride, 0, len(rows))
	for _, row := range rows {
		ovrs = append(ovrs, row.override())
	}
	return ovrs, nil
}

func (repo scheduleRepository) DeleteLessonOverridesByID(ctx context.Context, ids ...string) error {
	q := `DELETE FROM lesson_override WHERE id = ANY($1)`
	if _, err := repo.db.ExecContext(ctx, q, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting lesson overrides")
	}
	return nil
}
