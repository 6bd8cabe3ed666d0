package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/codesage/codesage/apps/api/echo"
	"github.com/codesage/codesage/core"
	"github.com/codesage/codesage/core/assist"
	"github.com/codesage/codesage/core/catalog"
	"github.com/codesage/codesage/core/chat"
	"github.com/codesage/codesage/core/planner"
	"github.com/codesage/codesage/core/progress"
	"github.com/codesage/codesage/core/team"
	"github.com/codesage/codesage/core/user"
	"github.com/codesage/codesage/services/ai"
	emailsvc "github.com/codesage/codesage/services/email"
	logsvc "github.com/codesage/codesage/services/logger"
	"github.com/codesage/codesage/services/tasks"
	"github.com/codesage/codesage/storage/bus"
	"github.com/codesage/codesage/storage/cache"
	"github.com/codesage/codesage/storage/database"
	pgdb "github.com/codesage/codesage/storage/database/pg"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer db.Close()
	if err = db.Migrate(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// set up redis
	redisClient, err := cache.Open(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up redis: %v", err), err)
	}
	defer func() { _ = redisClient.Close() }()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	cat, err := catalog.Load()
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading catalog: %v", err), err)
	}

	taskQueue := tasks.NewQueue(logger)
	defer taskQueue.Close()

	eventBus := bus.NewRedisBus(redisClient, logger)
	cursors := cache.NewCursorCache(redisClient)

	usrSvc := user.NewService(pgdb.NewUserRepository(db), mailSvc, conf, logger)
	teamSvc := team.NewService(pgdb.NewTeamRepository(db), eventBus, logger)
	progressSvc := progress.NewService(
		cat, pgdb.NewProgressRepository(db), cursors, teamSvc, taskQueue, mailSvc, logger)
	chatSvc := chat.NewService(pgdb.NewChatRepository(db), eventBus, logger)
	plannerSvc := planner.NewService(pgdb.NewPlannerRepository(db), eventBus, logger)
	var aiOpts []ai.GeminiOption
	if conf.AI.BaseURL != "" {
		aiOpts = append(aiOpts, ai.WithBaseURL(conf.AI.BaseURL))
	}
	assistSvc := assist.NewService(
		ai.NewGeminiProvider(conf.AI.GeminiAPIKey, conf.AI.Model, aiOpts...), logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	team.InitValidators(validate, translator)
	planner.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:        conf,
			Logger:      logger,
			Catalog:     cat,
			UserSvc:     usrSvc,
			ProgressSvc: progressSvc,
			TeamSvc:     teamSvc,
			ChatSvc:     chatSvc,
			PlannerSvc:  plannerSvc,
			AssistSvc:   assistSvc,
			Validate:    validate,
			Translator:  translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(shutdownCtx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
