package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trezcool/niva/apiclient"
	"github.com/trezcool/niva/apps/mockapi/echo"
	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/session"
	"github.com/trezcool/niva/services/logger"
	"github.com/trezcool/niva/storage/sessionstore/inmem"
)

// Backend is the development API served by an httptest.Server.
type Backend struct {
	echoapi.Server
	URL string // API base URL
}

func NewBackend(t *testing.T, opts ...func(*echoapi.Options)) *Backend {
	o := &echoapi.Options{DisableReqLogs: true, Logger: NewLogger()}
	for _, opt := range opts {
		opt(o)
	}
	srv := echoapi.NewServer(o)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return &Backend{Server: srv, URL: ts.URL + "/api/v1"}
}

// WithBulkFeedback makes the backend answer user-less feedback queries with every record.
func WithBulkFeedback(o *echoapi.Options) { o.BulkFeedback = true }

// WithoutUserRole makes the backend omit the user role from its responses.
func WithoutUserRole(o *echoapi.Options) { o.HideUserRole = true }

// NewLogger returns a logger that discards everything.
func NewLogger() core.Logger {
	return logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0))
}

func NewSession() (*session.Manager, *inmemstore.Store) {
	store := inmemstore.New()
	return session.NewManager(store, "niva_"), store
}

func NewClient(baseURL string, sess *session.Manager) *apiclient.Client {
	return apiclient.New(baseURL, http.DefaultClient, sess, NewLogger())
}

// Requests returns the recorded requests to path (eg. "/feedback/student").
func (b *Backend) RequestsTo(path string) []echoapi.RecordedRequest {
	var reqs []echoapi.RecordedRequest
	for _, r := range b.Requests() {
		if r.Path == path {
			reqs = append(reqs, r)
		}
	}
	return reqs
}

func CreateUser(t *testing.T, db *echoapi.DB, email, pwd string, admin bool) *echoapi.UserRow {
	role := echoapi.RoleUser
	if admin {
		role = echoapi.RoleAdmin
	}
	usr, err := db.CreateUser(email, pwd, role)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, db *echoapi.DB, name string) *echoapi.CourseRow {
	return db.SaveCourse(echoapi.CourseRow{
		Name:         name,
		Description:  name + " course",
		IsActive:     true,
		PassingScore: 70,
		MaxScore:     100,
	})
}

func CreateStudent(t *testing.T, db *echoapi.DB, userID, firstName string, courseIDs ...string) *echoapi.StudentRow {
	st, err := db.SaveStudent(echoapi.StudentRow{
		UserID:      userID,
		FirstName:   firstName,
		PhoneNumber: "+243 800 000 000",
		Gender:      "UNKNOWN",
		CourseIDs:   courseIDs,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return st
}

// Login authenticates against the backend and stores the token and user id in sess.
func Login(t *testing.T, b *Backend, sess *session.Manager, email, pwd string) {
	ctx := context.Background()
	client := NewClient(b.URL, sess)
	env, err := client.Do(ctx, apiclient.Request{
		Method:   http.MethodPost,
		Endpoint: "/auth/login/",
		Body:     map[string]string{"email": email, "password": pwd},
	})
	if err != nil {
		t.Fatalf("login() failed: %v", err)
	}
	if err := sess.SetToken(ctx, env.Text("token")); err != nil {
		t.Fatalf("login() failed: %v", err)
	}
	var usr session.User
	if err := env.Decode("user", &usr); err != nil {
		t.Fatalf("login() failed: %v", err)
	}
	if err := sess.SetUserID(ctx, string(usr.ID)); err != nil {
		t.Fatalf("login() failed: %v", err)
	}
}
