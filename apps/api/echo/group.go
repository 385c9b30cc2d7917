package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/motaylenko/meedle/core/group"
	"github.com/motaylenko/meedle/core/schedule"
)

type groupApi struct {
	svc      group.Service
	schedSvc schedule.Service
	validate *validator.Validate
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := groupApi{
		svc:      deps.GroupSvc,
		schedSvc: deps.ScheduleSvc,
		validate: deps.Validate,
	}

	gg := g.Group("/groups", jwt)

	gg.POST("", api.create, adminMiddleware())
	gg.GET("", api.query)

	dg := gg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/members", api.addMembers, adminMiddleware())
	dg.DELETE("/members", api.removeMembers, adminMiddleware())

	// resolved schedules
	dg.GET("/schedule/week", api.weekSchedule)
	dg.GET("/schedule/day", api.daySchedule)
}

// Handlers

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate, api.svc); err != nil {
		return err
	}

	grp, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating group")
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *groupApi) query(ctx echo.Context) error {
	groups, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	grp, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == group.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding group by ID")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) update(ctx echo.Context) error {
	grp, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == group.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding group by ID")
	}

	var data group.UpdateGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	if err := data.Validate(ctx.Request().Context(), grp, api.validate, api.svc); err != nil {
		return err
	}

	grp, err = api.svc.Update(ctx.Request().Context(), grp.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating group")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) addMembers(ctx echo.Context) error {
	var data group.UpdateMembers
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMembers")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	grp, err := api.svc.AddMembers(ctx.Request().Context(), ctx.Param("id"), data.UserIDs...)
	if err != nil {
		if errors.Cause(err) == group.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "adding group members")
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) removeMembers(ctx echo.Context) error {
	var data group.UpdateMembers
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMembers")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	grp, err := api.svc.RemoveMembers(ctx.Request().Context(), ctx.Param("id"), data.UserIDs...)
	if err != nil {
		if errors.Cause(err) == group.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "removing group members")
	}
	return ctx.JSON(http.StatusOK, grp)
}

// weekSchedule resolves the group's timetable for the week containing
// `start` (defaults to the current week).
func (api *groupApi) weekSchedule(ctx echo.Context) error {
	grp, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == group.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding group by ID")
	}

	start, err := bindDateParam(ctx, "start", schedule.NowDate())
	if err != nil {
		return err
	}

	week, err := api.schedSvc.ResolveWeek(ctx.Request().Context(), grp.ID, start)
	if err != nil {
		return errors.Wrap(err, "resolving week schedule")
	}
	return ctx.JSON(http.StatusOK, week)
}

// daySchedule resolves the group's timetable for a single date
// (defaults to today).
func (api *groupApi) daySchedule(ctx echo.Context) error {
	grp, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == group.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding group by ID")
	}

	date, err := bindDateParam(ctx, "date", schedule.NowDate())
	if err != nil {
		return err
	}

	day, err := api.schedSvc.ResolveDay(ctx.Request().Context(), grp.ID, date)
	if err != nil {
		return errors.Wrap(err, "resolving day schedule")
	}
	return ctx.JSON(http.StatusOK, day)
}
