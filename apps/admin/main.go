package main

import (
	"log"
	"os"

	"github.com/elimu-project/elimu/core"
	"github.com/elimu-project/elimu/core/lms"
	logsvc "github.com/elimu-project/elimu/services/logger"
	moodlesvc "github.com/elimu-project/elimu/services/moodle"
	openedxsvc "github.com/elimu-project/elimu/services/openedx"
	"github.com/elimu-project/elimu/storage/mongodb"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	// set up DB
	db, err := mongodb.Open(conf)
	errAndDie(err)
	defer mongodb.Close(db)

	usrRepo := mongodb.NewUserRepository(db)
	lmsSvc := lms.NewService(
		usrRepo,
		moodlesvc.NewClient(conf.LMS.Moodle),
		openedxsvc.NewClient(conf.LMS.OpenEdx),
		logsvc.NewStdLogger(logger),
	)

	// start CLI
	cli := commandLine{
		usrRepo: usrRepo,
		lmsSvc:  lmsSvc,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
