package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/codesage/codesage/core/catalog"
	"github.com/codesage/codesage/core/progress"
	"github.com/codesage/codesage/core/user"
)

type learningApi struct {
	cat      *catalog.Catalog
	svc      *progress.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerLearningAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	cat *catalog.Catalog,
	svc *progress.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := learningApi{
		cat:      cat,
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	lg := g.Group("/learning", jwt)

	lg.GET("/summary", api.summary)

	tg := lg.Group("/:tier")
	tg.GET("/catalog", api.catalog)
	tg.GET("/entry", api.entry)
	tg.GET("/initial-lesson", api.initialLesson)
	tg.POST("/lessons/:lessonID/complete", api.complete)
	tg.PUT("/cursor", api.setCursor)
	tg.DELETE("/progress", api.reset)
}

// Handlers

func (api *learningApi) catalog(ctx echo.Context) error {
	tier := ctx.Param("tier")
	if !catalog.ValidTier(tier) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, CatalogResponse{
		Tier:    tier,
		Lessons: api.cat.Lessons(tier),
	})
}

func (api *learningApi) entry(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	entry, err := api.svc.Entry(ctx.Request().Context(), claims.Subject, ctx.Param("tier"))
	if err != nil {
		return errors.Wrap(err, "resolving course entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *learningApi) initialLesson(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	tier := ctx.Param("tier")
	if !catalog.ValidTier(tier) {
		return errHttpNotFound
	}

	lessonID, err := api.svc.InitialLesson(ctx.Request().Context(), claims.Subject, tier)
	if err != nil {
		return errors.Wrap(err, "picking initial lesson")
	}
	return ctx.JSON(http.StatusOK, InitialLessonResponse{LessonID: lessonID})
}

func (api *learningApi) complete(ctx echo.Context) error {
	var data CompleteLessonRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompleteLessonRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.svc.Complete(
		ctx.Request().Context(), usr,
		ctx.Param("tier"), ctx.Param("lessonID"),
		data.Score, data.TotalQuestions,
	)
	if err != nil {
		return errors.Wrap(err, "completing lesson")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *learningApi) summary(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	summary, err := api.svc.Summary(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "summarizing progress")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *learningApi) setCursor(ctx echo.Context) error {
	var data SetCursorRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetCursorRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.SetCursor(ctx.Request().Context(), claims.Subject, ctx.Param("tier"), data.LessonID); err != nil {
		return errors.Wrap(err, "setting cursor")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// reset clears the caller's progress in a tier. Admins may clear another
// user's progress via the user_id query param.
func (api *learningApi) reset(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	userID := claims.Subject
	if target := ctx.QueryParam("user_id"); target != "" && target != userID {
		if !claims.IsAdmin {
			return errHttpForbidden
		}
		userID = target
	}

	var lessonIDs []string
	if ids, ok := ctx.QueryParams()["lesson_id"]; ok {
		lessonIDs = ids
	}

	if err = api.svc.Reset(ctx.Request().Context(), userID, ctx.Param("tier"), lessonIDs); err != nil {
		return errors.Wrap(err, "resetting progress")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	CatalogResponse struct {
		Tier    string           `json:"tier"`
		Lessons []catalog.Lesson `json:"lessons"`
	}

	InitialLessonResponse struct {
		LessonID string `json:"lesson_id"`
	}

	CompleteLessonRequest struct {
		Score          int `json:"score" validate:"min=0"`
		TotalQuestions int `json:"total_questions" validate:"min=0"`
	}

	SetCursorRequest struct {
		LessonID string `json:"lesson_id" validate:"required"`
	}
)
