package main

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	"github.com/trezcool/niva/apiclient"
	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/auth"
	"github.com/trezcool/niva/core/call"
	"github.com/trezcool/niva/core/course"
	"github.com/trezcool/niva/core/feedback"
	"github.com/trezcool/niva/core/memory"
	"github.com/trezcool/niva/core/session"
	"github.com/trezcool/niva/core/student"
	emailsvc "github.com/trezcool/niva/services/email"
	logsvc "github.com/trezcool/niva/services/logger"
	filestore "github.com/trezcool/niva/storage/sessionstore/file"
	inmemstore "github.com/trezcool/niva/storage/sessionstore/inmem"
	redisstore "github.com/trezcool/niva/storage/sessionstore/redis"
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stderr, "NIVA : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newSessionStore(conf *core.Config) (session.Store, error) {
	switch conf.Session.Backend {
	case "", "file":
		return filestore.New(conf.Session.Path), nil
	case "redis":
		return redisstore.Open(context.Background(), conf.Session)
	case "memory":
		return inmemstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", conf.Session.Backend)
	}
}

func newSessionManager(conf *core.Config, store session.Store) *session.Manager {
	return session.NewManager(store, conf.Session.Prefix)
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	course.InitValidators(validate)
	memory.InitValidators(validate, translator)
	return validate, translator
}

func newTokenSource(sess *session.Manager) apiclient.TokenSource { return sess }

func newStudentFinder(svc *student.Service) auth.StudentFinder { return svc }

func newAggregator(conf *core.Config, svc *feedback.Service, sess *session.Manager, logger core.Logger) (*feedback.Aggregator, error) {
	opts, err := feedback.OptionsFromConfig(conf.Feedback)
	if err != nil {
		return nil, err
	}
	return feedback.NewAggregator(svc, sess, opts, logger), nil
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug || conf.SendgridAPIKey == "" {
		return emailsvc.NewConsoleService(conf, os.Stderr)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

// newContainer returns the dependency injection dig.Container of the CLI.
func newContainer() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newSessionStore))
	must(c.Provide(newSessionManager))
	must(c.Provide(newValidator))
	must(c.Provide(newTokenSource))
	must(c.Provide(apiclient.NewFromConfig))
	must(c.Provide(course.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(newStudentFinder))
	must(c.Provide(auth.NewService))
	must(c.Provide(feedback.NewService))
	must(c.Provide(newAggregator))
	must(c.Provide(memory.NewService))
	must(c.Provide(call.NewService))
	must(c.Provide(newEmailService))
	must(c.Provide(newCommandLine))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
