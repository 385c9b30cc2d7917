package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/motaylenko/meedle/core"
)

// Course is a taught subject; lesson templates reference courses by ID.
type Course struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	TeacherID string    `json:"teacher_id,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Code      string `json:"code" validate:"required,alphanum_"`
	Name      string `json:"name" validate:"required"`
	TeacherID string `json:"teacher_id"`
}

func (nc *NewCourse) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	nc.Code = core.CleanString(nc.Code, true /* lower */)
	nc.Name = core.CleanString(nc.Name)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ctx, nc.Code)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Code      string `json:"code" validate:"omitempty,alphanum_"`
	Name      string `json:"name"`
	TeacherID string `json:"teacher_id"`
}

func (uc *UpdateCourse) Validate(ctx context.Context, origCrs Course, validate *validator.Validate, svc Service) error {
	code := core.CleanString(uc.Code, true /* lower */)
	if code != "" {
		uc.Code = code
	} else {
		uc.Code = origCrs.Code
	}

	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = origCrs.Name
	}

	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ctx, uc.Code, origCrs)
}
