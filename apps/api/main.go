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

	echoapi "github.com/elimu-project/elimu/apps/api/echo"
	"github.com/elimu-project/elimu/core"
	"github.com/elimu-project/elimu/core/activity"
	"github.com/elimu-project/elimu/core/analytics"
	"github.com/elimu-project/elimu/core/content"
	"github.com/elimu-project/elimu/core/course"
	"github.com/elimu-project/elimu/core/lms"
	"github.com/elimu-project/elimu/core/user"
	emailsvc "github.com/elimu-project/elimu/services/email"
	logsvc "github.com/elimu-project/elimu/services/logger"
	moodlesvc "github.com/elimu-project/elimu/services/moodle"
	openedxsvc "github.com/elimu-project/elimu/services/openedx"
	"github.com/elimu-project/elimu/storage/mongodb"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := mongodb.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = mongodb.Close(db); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// set up repositories
	userRepo := mongodb.NewUserRepository(db)
	contentRepo := mongodb.NewContentRepository(db)
	courseRepo := mongodb.NewCourseRepository(db)
	activityRepo := mongodb.NewActivityRepository(db)
	analyticsRepo := mongodb.NewAnalyticsRepository(db)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	moodleClient := moodlesvc.NewClient(conf.LMS.Moodle)
	openEdxClient := openedxsvc.NewClient(conf.LMS.OpenEdx)

	usrSvc := user.NewService(userRepo)
	contentSvc := content.NewService(contentRepo, userRepo, mailSvc, logger, conf)
	lmsSvc := lms.NewService(userRepo, moodleClient, openEdxClient, logger)
	courseSvc := course.NewService(courseRepo, moodleClient, openEdxClient, logger)
	activitySvc := activity.NewService(activityRepo, contentRepo, userRepo, analyticsRepo, nil, logger)
	analyticsSvc := analytics.NewService(analyticsRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

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
			Conf:         conf,
			Logger:       logger,
			Validate:     validate,
			Translator:   translator,
			UserSvc:      usrSvc,
			ContentSvc:   contentSvc,
			LMSSvc:       lmsSvc,
			CourseSvc:    courseSvc,
			ActivitySvc:  activitySvc,
			AnalyticsSvc: analyticsSvc,
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

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
