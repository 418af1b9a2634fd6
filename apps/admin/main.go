package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/studyplanner/core"
	"github.com/trezcool/studyplanner/core/plan"
	"github.com/trezcool/studyplanner/core/user"
	emailsvc "github.com/trezcool/studyplanner/services/email"
	logsvc "github.com/trezcool/studyplanner/services/logger"
	"github.com/trezcool/studyplanner/storage/database"
	sqlxrepos "github.com/trezcool/studyplanner/storage/database/sqlx"
)

func main() {
	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	// set up DB
	if conf.Database.Engine == "memory" {
		logger.Fatal("the admin CLI needs a SQL database engine (postgres or sqlite)")
	}
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	// start CLI
	mailSvc := emailsvc.NewConsoleService(os.Stdout, logger, conf)
	cli := &commandLine{
		db:      db,
		usrSvc:  user.NewService(sqlxrepos.NewUserRepository(db), mailSvc, conf),
		planSvc: plan.NewService(sqlxrepos.NewPlanRepository(db), logger, nil, 0),
		out:     os.Stdout,
	}
	err = cli.run(os.Args)
	mailSvc.Wait()
	_ = db.Close()

	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	return database.Open(conf)
}
