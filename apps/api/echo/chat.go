package echoapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/codesage/codesage/core"
	"github.com/codesage/codesage/core/chat"
	"github.com/codesage/codesage/core/user"
)

type chatApi struct {
	svc      *chat.Service
	userSvc  *user.Service
	logger   core.Logger
	validate *validator.Validate
}

func registerChatAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *chat.Service,
	userSvc *user.Service,
	logger core.Logger,
	validate *validator.Validate,
) {
	api := chatApi{
		svc:      svc,
		userSvc:  userSvc,
		logger:   logger,
		validate: validate,
	}

	cg := g.Group("/teams/:id/chat", jwt, teamAccessMiddleware(userSvc))
	cg.GET("/history", api.history)
	cg.POST("/messages", api.post)
	cg.GET("/ws", api.ws)
}

// Handlers

func (api *chatApi) history(ctx echo.Context) error {
	var before time.Time
	if raw := ctx.QueryParam("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "before", Error: "must be an RFC 3339 timestamp"})
		}
		before = t
	}
	limit, _ := strconv.Atoi(ctx.QueryParam("limit"))

	msgs, err := api.svc.History(ctx.Request().Context(), ctx.Param("id"), before, limit)
	if err != nil {
		return errors.Wrap(err, "querying chat history")
	}
	if msgs == nil {
		msgs = []chat.Message{}
	}
	return ctx.JSON(http.StatusOK, msgs)
}

func (api *chatApi) post(ctx echo.Context) error {
	var data chat.NewMessage
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMessage")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	msg, err := api.svc.Post(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "posting message")
	}
	return ctx.JSON(http.StatusCreated, msg)
}

// ws upgrades to a websocket that streams the team's live events and accepts
// new chat messages. The connection closes when either side goes away.
func (api *chatApi) ws(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	teamID := ctx.Param("id")

	conn, err := websocket.Accept(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "accepting websocket")
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	wsCtx, cancel := context.WithCancel(ctx.Request().Context())
	defer cancel()

	sub, err := api.svc.Subscribe(wsCtx, teamID)
	if err != nil {
		return errors.Wrap(err, "subscribing to team events")
	}
	defer sub.Close()

	// reader: incoming frames are new chat messages
	go func() {
		defer cancel()
		for {
			var data chat.NewMessage
			if err := wsjson.Read(wsCtx, conn, &data); err != nil {
				return
			}
			if err := data.Validate(api.validate); err != nil {
				continue
			}
			if _, err := api.svc.Post(wsCtx, usr, data); err != nil {
				api.logger.Warn(fmt.Sprintf("posting ws message: %v", err), err)
			}
		}
	}()

	// writer: fan bus events out to the client
	for {
		select {
		case <-wsCtx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return nil
		case ev, ok := <-sub.C():
			if !ok {
				conn.Close(websocket.StatusNormalClosure, "")
				return nil
			}
			if err := wsjson.Write(wsCtx, conn, ev); err != nil {
				return nil
			}
		}
	}
}
