package group

import (
	"context"
	"errors"
	"time"

	"github.com/motaylenko/meedle/core"
)

var (
	// errors
	ErrNotFound   = errors.New("group not found")
	ErrNameExists = errors.New("a group with this name already exists")
)

type (
	Repository interface {
		CheckNameUniqueness(ctx context.Context, name string, excludedGroups ...Group) error
		CreateGroup(ctx context.Context, grp Group) (Group, error)
		GetGroupByID(ctx context.Context, id string) (Group, error)
		QueryAllGroups(ctx context.Context) ([]Group, error)
		UpdateGroup(ctx context.Context, grp Group) (Group, error)
		DeleteGroupsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CheckNameUniqueness(ctx context.Context, name string, exclGroups ...Group) error
		Create(ctx context.Context, ng NewGroup) (Group, error)
		GetByID(ctx context.Context, id string) (Group, error)
		QueryAll(ctx context.Context) ([]Group, error)
		Update(ctx context.Context, id string, ug UpdateGroup) (Group, error)
		AddMembers(ctx context.Context, id string, userIDs ...string) (Group, error)
		RemoveMembers(ctx context.Context, id string, userIDs ...string) (Group, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CheckNameUniqueness(ctx context.Context, name string, exclGroups ...Group) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name, exclGroups...); err != nil {
		if err == ErrNameExists {
			return core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ng NewGroup) (Group, error) {
	now := time.Now().UTC()
	grp := Group{
		Name:      ng.Name,
		MemberIDs: ng.MemberIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateGroup(ctx, grp)
}

func (svc *service) GetByID(ctx context.Context, id string) (Group, error) {
	return svc.repo.GetGroupByID(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Group, error) {
	return svc.repo.QueryAllGroups(ctx)
}

func (svc *service) Update(ctx context.Context, id string, ug UpdateGroup) (Group, error) {
	grp, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return Group{}, err
	}

	grp.Name = ug.Name
	if ug.MemberIDs != nil {
		grp.MemberIDs = ug.MemberIDs
	}
	grp.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGroup(ctx, grp)
}

func (svc *service) AddMembers(ctx context.Context, id string, userIDs ...string) (Group, error) {
	grp, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return Group{}, err
	}

	for _, uid := range userIDs {
		if !grp.HasMember(uid) {
			grp.MemberIDs = append(grp.MemberIDs, uid)
		}
	}
	grp.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGroup(ctx, grp)
}

func (svc *service) RemoveMembers(ctx context.Context, id string, userIDs ...string) (Group, error) {
	grp, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return Group{}, err
	}

	remove := make(map[string]struct{}, len(userIDs))
	for _, uid := range userIDs {
		remove[uid] = struct{}{}
	}
	kept := make([]string, 0, len(grp.MemberIDs))
	for _, uid := range grp.MemberIDs {
		if _, ok := remove[uid]; !ok {
			kept = append(kept, uid)
		}
	}
	grp.MemberIDs = kept
	grp.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateGroup(ctx, grp)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteGroupsByID(ctx, ids...)
}
