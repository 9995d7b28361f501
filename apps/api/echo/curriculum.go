package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/curriculum"
	"github.com/trezcool/darasa/core/user"
)

type curriculumApi struct {
	svc      curriculum.ServiceInterface
	validate *validator.Validate
}

func registerCurriculumAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc curriculum.ServiceInterface,
	validate *validator.Validate,
) {
	api := curriculumApi{
		svc:      svc,
		validate: validate,
	}

	cg := g.Group("/curriculum", jwt)
	cg.POST("", api.create, requireRole(user.RoleTeacher))
	cg.GET("", api.query)
	cg.POST("/join", api.join, requireRole(user.RoleStudent))
	cg.GET("/:id", api.retrieve)
	cg.PATCH("/:id", api.update, requireRole(user.RoleTeacher))
	cg.DELETE("/:id", api.destroy, requireRole(user.RoleTeacher))

	ng := cg.Group("/notes")
	ng.POST("", api.createNote, requireRole(user.RoleTeacher))
	ng.GET("", api.queryNotes)
	ng.DELETE("", api.destroyNote, requireRole(user.RoleTeacher))
}

// Handlers

func (api *curriculumApi) create(ctx echo.Context) error {
	var data curriculum.NewCurriculum
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCurriculum")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	cur, err := api.svc.Create(ctx.Request().Context(), prin, data)
	if err != nil {
		return errors.Wrap(err, "creating curriculum")
	}
	return ctx.JSON(http.StatusCreated, cur)
}

func (api *curriculumApi) query(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	curs, err := api.svc.Query(ctx.Request().Context(), prin, ctx.QueryParam("teacherId"), ordering.Orderings)
	if err != nil {
		return err
	}
	if curs == nil {
		curs = []curriculum.Curriculum{}
	}
	return ctx.JSON(http.StatusOK, curs)
}

func (api *curriculumApi) retrieve(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	cur, err := api.svc.Get(ctx.Request().Context(), prin, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cur)
}

func (api *curriculumApi) update(ctx echo.Context) error {
	var data curriculum.UpdateCurriculum
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCurriculum")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	cur, err := api.svc.Update(ctx.Request().Context(), prin, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cur)
}

func (api *curriculumApi) destroy(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), prin, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *curriculumApi) join(ctx echo.Context) error {
	var data curriculum.JoinCurriculum
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinCurriculum")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	enr, err := api.svc.Join(ctx.Request().Context(), prin, data.Code)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *curriculumApi) createNote(ctx echo.Context) error {
	var data curriculum.NewNote
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewNote")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	note, err := api.svc.CreateNote(ctx.Request().Context(), prin, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, note)
}

func (api *curriculumApi) queryNotes(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	notes, err := api.svc.ActiveNotes(ctx.Request().Context(), prin, ctx.QueryParam("curriculumId"))
	if err != nil {
		return err
	}
	if notes == nil {
		notes = []curriculum.Note{}
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *curriculumApi) destroyNote(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteNote(ctx.Request().Context(), prin, ctx.QueryParam("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
