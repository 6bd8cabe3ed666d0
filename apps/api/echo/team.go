package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/codesage/codesage/core/team"
	"github.com/codesage/codesage/core/user"
)

type teamApi struct {
	svc      *team.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerTeamAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *team.Service,
	userSvc *user.Service,
	validate *validator.Validate,
) {
	api := teamApi{
		svc:      svc,
		userSvc:  userSvc,
		validate: validate,
	}

	tg := g.Group("/teams", jwt)
	tg.POST("", api.create, staffMiddleware())
	tg.GET("", api.query, adminMiddleware())

	dg := tg.Group("/:id", teamAccessMiddleware(userSvc))
	dg.GET("", api.retrieve)
	dg.GET("/members", api.members)
	dg.GET("/activity", api.activity)
}

// Handlers

func (api *teamApi) create(ctx echo.Context) error {
	var data team.NewTeam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTeam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating team")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *teamApi) query(ctx echo.Context) error {
	teams, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying teams")
	}
	if teams == nil {
		teams = []team.Team{}
	}
	return ctx.JSON(http.StatusOK, teams)
}

func (api *teamApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding team by ID")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teamApi) members(ctx echo.Context) error {
	members, err := api.userSvc.Query(
		ctx.Request().Context(),
		&user.QueryFilter{TeamID: ctx.Param("id")},
		nil,
	)
	if err != nil {
		return errors.Wrap(err, "querying team members")
	}
	if members == nil {
		members = []user.User{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *teamApi) activity(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))

	entries, err := api.svc.Recent(ctx.Request().Context(), ctx.Param("id"), limit)
	if err != nil {
		return errors.Wrap(err, "querying team activity")
	}
	if entries == nil {
		entries = []team.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}
