package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/codesage/codesage/core/assist"
)

type assistApi struct {
	svc      *assist.Service
	validate *validator.Validate
}

func registerAssistAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *assist.Service,
	validate *validator.Validate,
) {
	api := assistApi{svc: svc, validate: validate}

	ag := g.Group("/assist", jwt)
	ag.POST("/complete", api.complete)
	ag.POST("/refactor", api.refactor)
	ag.POST("/ask", api.ask)
}

// Handlers

func (api *assistApi) complete(ctx echo.Context) error {
	var data CompleteCodeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompleteCodeRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	completion, err := api.svc.Complete(ctx.Request().Context(), data.Code, data.Hint)
	if err != nil {
		return errors.Wrap(err, "completing code")
	}
	return ctx.JSON(http.StatusOK, CompletionResponse{Completion: completion})
}

func (api *assistApi) refactor(ctx echo.Context) error {
	var data RefactorRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefactorRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	res, err := api.svc.Refactor(ctx.Request().Context(), data.Code, data.Instruction)
	if err != nil {
		return errors.Wrap(err, "refactoring code")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *assistApi) ask(ctx echo.Context) error {
	var data AskRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AskRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	answer, err := api.svc.Ask(ctx.Request().Context(), data.Question, data.Context)
	if err != nil {
		return errors.Wrap(err, "answering question")
	}
	return ctx.JSON(http.StatusOK, AnswerResponse{Answer: answer})
}

type (
	CompleteCodeRequest struct {
		Code string `json:"code" validate:"required,max=50000"`
		Hint string `json:"hint" validate:"max=500"`
	}

	CompletionResponse struct {
		Completion string `json:"completion"`
	}

	RefactorRequest struct {
		Code        string `json:"code" validate:"required,max=50000"`
		Instruction string `json:"instruction" validate:"required,max=1000"`
	}

	AskRequest struct {
		Question string `json:"question" validate:"required,max=2000"`
		Context  string `json:"context" validate:"max=50000"`
	}

	AnswerResponse struct {
		Answer string `json:"answer"`
	}
)
