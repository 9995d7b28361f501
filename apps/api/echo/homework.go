package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/homework"
	"github.com/trezcool/darasa/core/user"
)

type homeworkApi struct {
	svc      homework.ServiceInterface
	validate *validator.Validate
}

func registerHomeworkAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc homework.ServiceInterface,
	validate *validator.Validate,
) {
	api := homeworkApi{
		svc:      svc,
		validate: validate,
	}

	hg := g.Group("/homework", jwt)
	hg.POST("", api.create, requireRole(user.RoleTeacher))
	hg.GET("", api.query)
	hg.GET("/:id", api.retrieve)
	hg.PATCH("/:id", api.update, requireRole(user.RoleTeacher))
	hg.DELETE("/:id", api.destroy, requireRole(user.RoleTeacher))

	sg := g.Group("/homework-submission", jwt)
	sg.POST("", api.submit, requireRole(user.RoleStudent))
	sg.GET("", api.querySubmissions, requireRole(user.RoleTeacher))
	sg.PATCH("/:id/grade", api.grade, requireRole(user.RoleTeacher))
}

// Handlers

func (api *homeworkApi) create(ctx echo.Context) error {
	var data homework.NewHomework
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewHomework")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	hw, err := api.svc.Create(ctx.Request().Context(), prin, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, hw)
}

func (api *homeworkApi) query(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	hws, err := api.svc.Query(ctx.Request().Context(), prin, ctx.QueryParam("lectureId"))
	if err != nil {
		return err
	}
	if hws == nil {
		hws = []homework.Homework{}
	}
	return ctx.JSON(http.StatusOK, hws)
}

func (api *homeworkApi) retrieve(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	hw, err := api.svc.Get(ctx.Request().Context(), prin, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, hw)
}

func (api *homeworkApi) update(ctx echo.Context) error {
	var data homework.UpdateHomework
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateHomework")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	hw, err := api.svc.Update(ctx.Request().Context(), prin, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, hw)
}

func (api *homeworkApi) destroy(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), prin, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *homeworkApi) submit(ctx echo.Context) error {
	var data homework.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	pdf, _, contentType, err := formFile(ctx, "file")
	if err != nil {
		return err
	}

	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.Submit(ctx.Request().Context(), prin, data, pdf, contentType)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *homeworkApi) querySubmissions(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	subs, err := api.svc.Submissions(ctx.Request().Context(), prin, ctx.QueryParam("homeworkId"))
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []homework.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *homeworkApi) grade(ctx echo.Context) error {
	var data homework.GradeSubmission
	if err := ctx.Bind(&data); err != nil {
		return core.NewValidationError(errors.New("grade must be a number between 0 and 100"))
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	sub, err := api.svc.Grade(ctx.Request().Context(), prin, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}
