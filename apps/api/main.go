package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/studyplanner/apps/api/echo"
	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/plan"
	"github.com/trezcool/studyplanner/core/user"
	appfs "github.com/trezcool/studyplanner/fs"
	emailsvc "github.com/trezcool/studyplanner/services/email"
	logsvc "github.com/trezcool/studyplanner/services/logger"
	"github.com/trezcool/studyplanner/storage/database"
	inmemdb "github.com/trezcool/studyplanner/storage/database/inmem"
	sqlxrepos "github.com/trezcool/studyplanner/storage/database/sqlx"
)

// TODO:
// - persist sessions so that a restart does not log everyone out
func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB & repos
	var (
		usrRepo  user.Repository
		planRepo plan.Repository
	)
	if conf.Database.Engine == "memory" {
		logger.Warn("using in-memory storage: data is lost on exit")
		db := inmemdb.Open()
		usrRepo, planRepo = inmemdb.NewUserRepository(db), inmemdb.NewPlanRepository(db)
	} else {
		db, err := setUpDB(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() {
			if err = db.Close(); err != nil {
				dbLogger.Error("Failed to close", err)
			}
		}()
		usrRepo, planRepo = sqlxrepos.NewUserRepository(db), sqlxrepos.NewPlanRepository(db)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		console := emailsvc.NewConsoleService(os.Stdout, logger, conf)
		defer console.Wait()
		mailSvc = console
	} else {
		mailSvc = emailsvc.NewSendgridService(logger, conf)
	}
	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	planSvc := plan.NewService(planRepo, logger, nil, conf.Server.SessionIdleTimeout)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	commonPasswords, err := user.LoadCommonPasswords(appfs.FS)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading common passwords: %v", err), err)
	}
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator, commonPasswords)

	core.ParseEmailTemplates(appfs.FS, conf.Debug, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.Publish("sessions", expvar.Func(func() interface{} { return planSvc.ActiveSessions() }))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			UserSvc:    usrSvc,
			PlanSvc:    planSvc,
			MailSvc:    mailSvc,
			Validate:   validate,
			Translator: translator,
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
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db, "up"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
