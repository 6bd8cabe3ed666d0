package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/codesage/codesage/core/planner"
	"github.com/codesage/codesage/core/user"
)

type plannerApi struct {
	svc      *planner.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerPlannerAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *planner.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := plannerApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	pg := g.Group("/teams/:id/planner", jwt, teamAccessMiddleware(userSvc))
	pg.GET("/board", api.board)
	pg.POST("/tasks", api.createTask)
	pg.PUT("/tasks/:taskID", api.updateTask)
	pg.PUT("/tasks/:taskID/move", api.moveTask)
	pg.DELETE("/tasks/:taskID", api.deleteTask)

	sg := g.Group("/teams/:id/snippets", jwt, teamAccessMiddleware(userSvc))
	sg.GET("", api.snippets)
	sg.POST("", api.shareSnippet)
	sg.DELETE("/:snippetID", api.deleteSnippet)
}

// Handlers

func (api *plannerApi) board(ctx echo.Context) error {
	board, err := api.svc.Board(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying board")
	}
	return ctx.JSON(http.StatusOK, board)
}

func (api *plannerApi) createTask(ctx echo.Context) error {
	var data planner.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	// admins create on behalf of the team in the path
	usr.TeamID = ctx.Param("id")

	t, err := api.svc.CreateTask(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *plannerApi) updateTask(ctx echo.Context) error {
	var data planner.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.UpdateTask(ctx.Request().Context(), ctx.Param("id"), ctx.Param("taskID"), data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *plannerApi) moveTask(ctx echo.Context) error {
	var data planner.MoveTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MoveTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Move(ctx.Request().Context(), ctx.Param("id"), ctx.Param("taskID"), data)
	if err != nil {
		return errors.Wrap(err, "moving task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *plannerApi) deleteTask(ctx echo.Context) error {
	if err := api.svc.DeleteTask(ctx.Request().Context(), ctx.Param("id"), ctx.Param("taskID")); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *plannerApi) snippets(ctx echo.Context) error {
	snippets, err := api.svc.Snippets(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying snippets")
	}
	if snippets == nil {
		snippets = []planner.Snippet{}
	}
	return ctx.JSON(http.StatusOK, snippets)
}

func (api *plannerApi) shareSnippet(ctx echo.Context) error {
	var data planner.NewSnippet
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSnippet")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	usr.TeamID = ctx.Param("id")

	s, err := api.svc.ShareSnippet(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "sharing snippet")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *plannerApi) deleteSnippet(ctx echo.Context) error {
	if err := api.svc.DeleteSnippet(ctx.Request().Context(), ctx.Param("id"), ctx.Param("snippetID")); err != nil {
		return errors.Wrap(err, "deleting snippet")
	}
	return ctx.NoContent(http.StatusNoContent)
}
