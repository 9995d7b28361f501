package echoapi

import (
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/lecture"
	"github.com/trezcool/darasa/core/user"
)

type lectureApi struct {
	svc      lecture.ServiceInterface
	validate *validator.Validate
}

func registerLectureAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc lecture.ServiceInterface,
	validate *validator.Validate,
) {
	api := lectureApi{
		svc:      svc,
		validate: validate,
	}

	lg := g.Group("/lecture", jwt)
	lg.POST("", api.create, requireRole(user.RoleTeacher))
	lg.GET("", api.query)
	lg.GET("/current-week", api.currentWeek, requireRole(user.RoleStudent))
	lg.POST("/:id/read", api.markRead, requireRole(user.RoleStudent))

	ag := g.Group("/attachment", jwt)
	ag.POST("", api.createAttachment, requireRole(user.RoleTeacher))
	ag.DELETE("", api.destroyAttachment, requireRole(user.RoleTeacher))
}

// formFile reads the named multipart file into memory and reports its
// declared content type.
func formFile(ctx echo.Context, name string) (data []byte, filename, contentType string, err error) {
	fh, err := ctx.FormFile(name)
	if err != nil {
		return nil, "", "", core.NewValidationError(nil, core.FieldError{Field: name, Error: "this file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", "", errors.Wrapf(err, "opening uploaded file %q", name)
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		return nil, "", "", errors.Wrapf(err, "reading uploaded file %q", name)
	}
	return data, fh.Filename, fh.Header.Get("Content-Type"), nil
}

// Handlers

func (api *lectureApi) create(ctx echo.Context) error {
	var data lecture.NewLecture
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLecture")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	pdf, _, contentType, err := formFile(ctx, "pdfFile")
	if err != nil {
		return err
	}

	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	lec, err := api.svc.Create(ctx.Request().Context(), prin, data, pdf, contentType)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, lec)
}

func (api *lectureApi) query(ctx echo.Context) error {
	var filter lecture.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to Filter")
	}
	if err := api.validate.Struct(&filter); err != nil {
		return err
	}

	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	lecs, err := api.svc.Query(ctx.Request().Context(), prin, filter)
	if err != nil {
		return err
	}
	if lecs == nil {
		lecs = []lecture.Lecture{}
	}
	return ctx.JSON(http.StatusOK, lecs)
}

func (api *lectureApi) currentWeek(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	lecs, err := api.svc.CurrentWeek(ctx.Request().Context(), prin)
	if err != nil {
		return err
	}
	if lecs == nil {
		lecs = []lecture.Lecture{}
	}
	return ctx.JSON(http.StatusOK, lecs)
}

func (api *lectureApi) markRead(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.MarkRead(ctx.Request().Context(), prin, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *lectureApi) createAttachment(ctx echo.Context) error {
	var data lecture.NewAttachment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAttachment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	file, filename, _, err := formFile(ctx, "file")
	if err != nil {
		return err
	}

	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	att, err := api.svc.CreateAttachment(ctx.Request().Context(), prin, data, file, filename)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, att)
}

func (api *lectureApi) destroyAttachment(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteAttachment(ctx.Request().Context(), prin, ctx.QueryParam("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
