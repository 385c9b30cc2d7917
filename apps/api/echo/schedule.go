package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/motaylenko/meedle/core"
	"github.com/motaylenko/meedle/core/schedule"
)

type scheduleApi struct {
	svc      schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := scheduleApi{
		svc:      deps.ScheduleSvc,
		validate: deps.Validate,
	}

	sg := g.Group("/schedule", jwt, adminMiddleware())

	tg := sg.Group("/templates")
	tg.POST("", api.createTemplate)
	tg.GET("", api.queryTemplates)
	tg.GET("/:id", api.retrieveTemplate)
	tg.PUT("/:id", api.updateTemplate)
	tg.DELETE("/:id", api.destroyTemplate)

	og := sg.Group("/overrides")
	og.POST("", api.createOverride)
	og.GET("", api.queryOverrides)
	og.GET("/:id", api.retrieveOverride)
	og.DELETE("/:id", api.destroyOverride)
}

// Handlers

func (api *scheduleApi) createTemplate(ctx echo.Context) error {
	var data schedule.NewLessonTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLessonTemplate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tpl, err := api.svc.CreateTemplate(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson template")
	}
	return ctx.JSON(http.StatusCreated, tpl)
}

func (api *scheduleApi) queryTemplates(ctx echo.Context) error {
	groupID := ctx.QueryParam("group")
	if groupID == "" {
		return core.NewFieldError("group", "required query parameter")
	}

	tpls, err := api.svc.QueryTemplates(ctx.Request().Context(), groupID)
	if err != nil {
		return errors.Wrap(err, "querying lesson templates")
	}
	if tpls == nil {
		tpls = []schedule.LessonTemplate{}
	}
	return ctx.JSON(http.StatusOK, tpls)
}

func (api *scheduleApi) retrieveTemplate(ctx echo.Context) error {
	tpl, err := api.svc.GetTemplate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == schedule.ErrTemplateNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding lesson template by ID")
	}
	return ctx.JSON(http.StatusOK, tpl)
}

func (api *scheduleApi) updateTemplate(ctx echo.Context) error {
	var data schedule.UpdateLessonTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLessonTemplate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tpl, err := api.svc.UpdateTemplate(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		if errors.Cause(err) == schedule.ErrTemplateNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating lesson template")
	}
	return ctx.JSON(http.StatusOK, tpl)
}

func (api *scheduleApi) destroyTemplate(ctx echo.Context) error {
	if err := api.svc.DeleteTemplates(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting lesson template")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) createOverride(ctx echo.Context) error {
	var data schedule.NewLessonOverride
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLessonOverride")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ovr, err := api.svc.CreateOverride(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating lesson override")
	}
	return ctx.JSON(http.StatusCreated, ovr)
}

func (api *scheduleApi) queryOverrides(ctx echo.Context) error {
	groupID := ctx.QueryParam("group")
	if groupID == "" {
		return core.NewFieldError("group", "required query parameter")
	}

	from, err := bindDateParam(ctx, "from", schedule.WeekStartOf(schedule.NowDate()))
	if err != nil {
		return err
	}
	to, err := bindDateParam(ctx, "to", from.AddDate(0, 0, 6))
	if err != nil {
		return err
	}

	ovrs, err := api.svc.QueryOverrides(ctx.Request().Context(), groupID, from, to)
	if err != nil {
		return errors.Wrap(err, "querying lesson overrides")
	}
	if ovrs == nil {
		ovrs = []schedule.LessonOverride{}
	}
	return ctx.JSON(http.StatusOK, ovrs)
}

func (api *scheduleApi) retrieveOverride(ctx echo.Context) error {
	ovr, err := api.svc.GetOverride(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == schedule.ErrOverrideNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding lesson override by ID")
	}
	return ctx.JSON(http.StatusOK, ovr)
}

func (api *scheduleApi) destroyOverride(ctx echo.Context) error {
	if err := api.svc.DeleteOverrides(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting lesson override")
	}
	return ctx.NoContent(http.StatusNoContent)
}
