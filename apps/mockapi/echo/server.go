package echoapi

import (
	"context"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/niva/core"
)

type (
	Options struct {
		Address        string
		SecretKey      string
		Debug          bool
		DisableReqLogs bool
		Logger         core.Logger

		// BulkFeedback makes `/feedback/user/` without `user_id` return every record to admins,
		// like deployments that support the bulk query. Otherwise such queries return nothing.
		BulkFeedback bool
		// HideUserRole omits `role` from the user objects the auth endpoints return.
		HideUserRole bool
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
		DB() *DB
		Requests() []RecordedRequest
		ResetRequests()
	}

	// RecordedRequest is a request received by the server, kept for assertions.
	RecordedRequest struct {
		Method string
		Path   string // without the API prefix and trailing slash, eg. "/feedback/user"
		Query  map[string]string
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		db       *DB
		validate *validator.Validate

		mutex    sync.Mutex
		requests []RecordedRequest
	}
)

var _ Server = (*server)(nil)

const apiPrefix = "/api/v1"

func NewServer(opts *Options) Server {
	if opts.SecretKey == "" {
		opts.SecretKey = newID()
	}
	validate, _ := core.NewValidator()
	s := &server{
		opts:     opts,
		app:      echo.New(),
		db:       NewDB(),
		validate: validate,
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in debug mode
	if !s.opts.Debug {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger)
	s.app.Debug = s.opts.Debug

	s.app.GET("/", home)

	v1 := s.app.Group(apiPrefix, s.recordRequest)
	auth := tokenMiddleware(s.opts.SecretKey)

	registerAuthAPI(v1, auth, s)
	registerCourseAPI(v1, auth, s)
	registerStudentAPI(v1, auth, s)
	registerFeedbackAPI(v1, auth, s)
	registerMemoryAPI(v1, auth, s)
	registerCallAPI(v1, auth, s)
}

func (s *server) recordRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		req := RecordedRequest{
			Method: ctx.Request().Method,
			Path:   ctx.Request().URL.Path[len(apiPrefix):],
			Query:  make(map[string]string),
		}
		for k, v := range ctx.QueryParams() {
			if len(v) > 0 {
				req.Query[k] = v[0]
			}
		}
		s.mutex.Lock()
		s.requests = append(s.requests, req)
		s.mutex.Unlock()
		return next(ctx)
	}
}

func (s *server) Requests() []RecordedRequest {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	reqs := make([]RecordedRequest, len(s.requests))
	copy(reqs, s.requests)
	return reqs
}

func (s *server) ResetRequests() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.requests = nil
}

func (s *server) DB() *DB { return s.db }

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the Niva AI development API!")
}
