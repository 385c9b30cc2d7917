package group

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/motaylenko/meedle/core"
)

// Group is a cohort of enrolled accounts; lesson templates and overrides are
// owned by a group.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MemberIDs []string  `json:"member_ids"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (g *Group) HasMember(userID string) bool {
	for _, id := range g.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// NewGroup contains information needed to create a new Group.
type NewGroup struct {
	Name      string   `json:"name" validate:"required"`
	MemberIDs []string `json:"member_ids"`
}

func (ng *NewGroup) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	ng.Name = core.CleanString(ng.Name)
	if err := validate.Struct(ng); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(ctx, ng.Name)
}

// UpdateGroup defines what information may be provided to modify an existing Group.
type UpdateGroup struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"member_ids"`
}

func (ug *UpdateGroup) Validate(ctx context.Context, origGrp Group, validate *validator.Validate, svc Service) error {
	name := core.CleanString(ug.Name)
	if name != "" {
		ug.Name = name
	} else {
		ug.Name = origGrp.Name
	}
	if err := validate.Struct(ug); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(ctx, ug.Name, origGrp)
}

// UpdateMembers is the payload of the member add/remove endpoints.
type UpdateMembers struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1"`
}

func (um UpdateMembers) Validate(validate *validator.Validate) error { return validate.Struct(um) }
