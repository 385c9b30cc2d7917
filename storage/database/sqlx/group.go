package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/motaylenko/meedle/core/group"
)

type groupRow struct {
	ID        string         `db:"id"`
	Name      string         `db:"name"`
	MemberIDs pq.StringArray `db:"member_ids"`
	CreatedAt null.Time      `db:"created_at"`
	UpdatedAt null.Time      `db:"updated_at"`
}

func (row groupRow) group() group.Group {
	return group.Group{
		ID:        row.ID,
		Name:      row.Name,
		MemberIDs: row.MemberIDs,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *sqlx.DB) *groupRepository {
	return &groupRepository{db: db}
}

func (repo groupRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return group.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo groupRepository) CheckNameUniqueness(ctx context.Context, name string, excludedGroups ...group.Group) error {
	exclIDs := make([]string, 0, len(excludedGroups))
	for _, g := range excludedGroups {
		exclIDs = append(exclIDs, g.ID)
	}

	var exists bool
	q := `SELECT EXISTS (SELECT 1 FROM "group" WHERE name = $1 AND id != ALL($2))`
	if err := repo.db.GetContext(ctx, &exists, q, name, pq.Array(exclIDs)); err != nil {
		return errors.Wrap(err, "checking group name uniqueness")
	}
	if exists {
		return group.ErrNameExists
	}
	return nil
}

func (repo groupRepository) CreateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	if grp.ID == "" {
		grp.ID = uuid.New().String()
	}

	q := `INSERT INTO "group" (id, name, member_ids, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, q, grp.ID, grp.Name, pq.Array(grp.MemberIDs), grp.CreatedAt.UTC(), grp.UpdatedAt.UTC())
	if err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	return grp, nil
}

func (repo groupRepository) GetGroupByID(ctx context.Context, id string) (group.Group, error) {
	if _, err := uuid.Parse(id); err != nil {
		return group.Group{}, group.ErrNotFound
	}

	var row groupRow
	q := `SELECT * FROM "group" WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return group.Group{}, repo.trapNoRowsErr(err, "finding group")
	}
	return row.group(), nil
}

func (repo groupRepository) QueryAllGroups(ctx context.Context) ([]group.Group, error) {
	var rows []groupRow
	q := `SELECT * FROM "group" ORDER BY name ASC`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	groups := make([]group.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, row.group())
	}
	return groups, nil
}

func (repo groupRepository) UpdateGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	q := `UPDATE "group" SET name = $2, member_ids = $3, updated_at = $4 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, grp.ID, grp.Name, pq.Array(grp.MemberIDs), grp.UpdatedAt.UTC())
	if err != nil {
		return group.Group{}, errors.Wrap(err, "updating group")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return group.Group{}, group.ErrNotFound
	}
	return grp, nil
}

func (repo groupRepository) DeleteGroupsByID(ctx context.Context, ids ...string) error {
	q := `DELETE FROM "group" WHERE id = ANY($1)`
	if _, err := repo.db.ExecContext(ctx, q, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting groups")
	}
	return nil
}
