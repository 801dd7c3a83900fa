package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	echoapi "github.com/trezcool/niva/apps/mockapi/echo"
	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/auth"
	"github.com/trezcool/niva/core/call"
	"github.com/trezcool/niva/core/course"
	"github.com/trezcool/niva/core/feedback"
	"github.com/trezcool/niva/core/memory"
	"github.com/trezcool/niva/core/student"
	emailsvc "github.com/trezcool/niva/services/email"
	testutil "github.com/trezcool/niva/tests"
)

type fixture struct {
	cli     *commandLine
	out     *bytes.Buffer
	mailer  *emailsvc.ConsoleService
	backend *testutil.Backend
	course  *echoapi.CourseRow
}

func setup(t *testing.T, opts ...func(*echoapi.Options)) fixture {
	backend := testutil.NewBackend(t, opts...)
	db := backend.DB()
	testutil.CreateUser(t, db, "admin@niva.ai", "secret1", true)
	usr := testutil.CreateUser(t, db, "one@niva.ai", "secret1", false)
	testutil.CreateUser(t, db, "two@niva.ai", "secret1", false)
	c1 := testutil.CreateCourse(t, db, "Go Basics")
	s1 := testutil.CreateStudent(t, db, usr.ID, "One", c1.ID)
	db.AddFeedback(echoapi.FeedbackRow{
		StudentID:           s1.ID,
		CourseID:            c1.ID,
		AgentName:           "Interviewer",
		OverallRating:       8,
		CommunicationRating: 7,
		TechnicalRating:     9,
		ConfidenceRating:    6,
		FeedbackText:        "Solid answers.",
		CreatedAt:           "2024-05-01T10:00:00Z",
	})

	conf := &core.Config{AppName: "Niva", Debug: true}
	sess, _ := testutil.NewSession()
	api := testutil.NewClient(backend.URL, sess)
	validate, translator := newValidator()
	logger := testutil.NewLogger()

	students := student.NewService(api, sess, validate, logger)
	fb := feedback.NewService(api)
	fbOpts, _ := feedback.OptionsFromConfig(core.FeedbackConfig{})
	mailer := emailsvc.NewConsoleService(conf, nil)
	out := new(bytes.Buffer)

	cli := &commandLine{
		conf:        conf,
		sess:        sess,
		translator:  translator,
		logger:      logger,
		out:         out,
		authSvc:     auth.NewService(api, sess, students, validate, logger),
		courseSvc:   course.NewService(api, validate),
		studentSvc:  students,
		feedbackSvc: fb,
		aggregator:  feedback.NewAggregator(fb, sess, fbOpts, logger),
		memorySvc:   memory.NewService(api, validate),
		callSvc:     call.NewService(api, sess, validate),
		emailSvc:    mailer,
	}

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("secret1"), nil }
	t.Cleanup(func() { readPasswordFunc = nil })

	return fixture{cli: cli, out: out, mailer: mailer, backend: backend, course: c1}
}

func (f fixture) login(t *testing.T, email string) {
	if err := f.cli.run([]string{"niva", "login", "-email", email}); err != nil {
		t.Fatalf("login() failed: %v", err)
	}
	f.out.Reset()
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantOut    string // expected substring of the output
	extra      interface{}
}

func runTests(t *testing.T, f fixture, tests []cliTest) {
	for _, tt := range tests {
		args := append([]string{"niva"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if pwd, ok := tt.extra.(string); ok {
				readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
				defer func() {
					readPasswordFunc = func(fd int) ([]byte, error) { return []byte("secret1"), nil }
				}()
			}
			f.out.Reset()

			if err := f.cli.run(args); err != nil {
				if tt.wantErr != nil {
					if errors.Cause(err) != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if errors.Cause(err).Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
				return
			}
			if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
			}
			if tt.wantOut != "" {
				assert.Contains(t, f.out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_run(t *testing.T) {
	f := setup(t)

	runTests(t, f, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "help", args: []string{"help"}, wantErr: errHelp, wantOut: "Usage: niva"},
		{name: "logged out", args: []string{"courses", "list"}, wantErr: errNotLoggedIn},
		{name: "unknown command while logged out", args: []string{"lol"}, wantErr: errNotLoggedIn},
	})

	f.login(t, "one@niva.ai")
	runTests(t, f, []cliTest{
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no subcommand", args: []string{"courses"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"courses", "lol"}, wantErr: errHelp, wantOut: "Usage: niva courses"},
		{name: "unknown flag", args: []string{"courses", "list", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
		{name: "flag help", args: []string{"courses", "list", "-h"}, wantErr: errHelp},
	})
}

func Test_commandLine_account(t *testing.T) {
	f := setup(t)

	runTests(t, f, []cliTest{
		{name: "register: no email", args: []string{"register"}, wantErr: errHelp},
		{name: "register: no password", args: []string{"register", "-email", "new@niva.ai"}, extra: "", wantErr: errHelp},
		{name: "register: email taken", args: []string{"register", "-email", "one@niva.ai"}, wantErrStr: "A user with this email already exists"},
		{name: "register", args: []string{"register", "-email", "new@niva.ai"}, wantOut: "niva login -email new@niva.ai"},
		{name: "login: wrong password", args: []string{"login", "-email", "one@niva.ai"}, extra: "nope", wantErrStr: "Invalid email or password"},
		{name: "login: no profile", args: []string{"login", "-email", "new@niva.ai"}, wantOut: "No student profile yet"},
		{name: "login", args: []string{"login", "-email", "one@niva.ai"}, wantOut: "(user)"},
		{name: "whoami", args: []string{"whoami"}, wantOut: "one@niva.ai"},
		{name: "role", args: []string{"role"}, wantOut: "user"},
		{name: "logout", args: []string{"logout"}, wantOut: "Logged out."},
		{name: "whoami after logout", args: []string{"whoami"}, wantErr: errNotLoggedIn},
		{name: "admin login", args: []string{"login", "-email", "admin@niva.ai"}, wantOut: "(admin)"},
		{name: "admin role", args: []string{"role"}, wantOut: "admin"},
	})
}

func Test_commandLine_courses(t *testing.T) {
	f := setup(t)

	f.login(t, "one@niva.ai")
	runTests(t, f, []cliTest{
		{name: "list", args: []string{"courses", "list"}, wantOut: "Go Basics"},
		{name: "get: no id", args: []string{"courses", "get"}, wantErr: errHelp},
		{name: "get", args: []string{"courses", "get", "-id", f.course.ID}, wantOut: "Go Basics course"},
		{name: "create: not admin", args: []string{"courses", "create", "-name", "Rust"}, wantErr: errAdminOnly},
	})

	f.login(t, "admin@niva.ai")
	runTests(t, f, []cliTest{
		{name: "list all", args: []string{"courses", "list", "-all"}, wantOut: "PASSING"},
	})

	err := f.cli.run([]string{"niva", "courses", "create", "-passing", "120"})
	if assert.Error(t, err) {
		assert.Contains(t, f.cli.describe(err), "invalid input:")
	}

	f.out.Reset()
	if err := f.cli.run([]string{"niva", "courses", "create", "-name", "Rust", "-description", "Ownership", "-passing", "60", "-max", "100"}); err != nil {
		t.Fatalf("courses create failed: %v", err)
	}
	assert.Len(t, f.backend.DB().Courses(nil), 2)

	runTests(t, f, []cliTest{
		{name: "update: no id", args: []string{"courses", "update", "-name", "Go"}, wantErr: errHelp},
		{name: "update", args: []string{"courses", "update", "-id", f.course.ID, "-name", "Go Advanced"}},
		{name: "get updated", args: []string{"courses", "get", "-id", f.course.ID}, wantOut: "Go Advanced"},
		{name: "delete: unknown", args: []string{"courses", "delete", "-id", "lol"}, wantErrStr: "Course not found"},
	})
}

func Test_commandLine_students(t *testing.T) {
	f := setup(t)

	f.login(t, "two@niva.ai")
	runTests(t, f, []cliTest{
		{name: "list: not admin", args: []string{"students", "list"}, wantErr: errAdminOnly},
	})

	err := f.cli.run([]string{"niva", "students", "save", "-first-name", "Two", "-phone", "lol"})
	if assert.Error(t, err) {
		assert.Contains(t, f.cli.describe(err), "phone_number")
	}

	runTests(t, f, []cliTest{
		{name: "save", args: []string{"students", "save", "-first-name", "Two", "-phone", "+243 800 000 001", "-courses", f.course.ID}, wantOut: "Student profile created."},
		{name: "me", args: []string{"students", "me"}, wantOut: "+243 800 000 001"},
		{name: "save again", args: []string{"students", "save", "-first-name", "Deux", "-phone", "+243 800 000 001"}, wantOut: "Student profile updated."},
	})

	f.login(t, "admin@niva.ai")
	runTests(t, f, []cliTest{
		{name: "list", args: []string{"students", "list"}, wantOut: "Deux"},
		{name: "list by course", args: []string{"students", "list", "-course", f.course.ID}, wantOut: "One"},
		{name: "get: no id", args: []string{"students", "get"}, wantErr: errHelp},
		{name: "delete: unknown", args: []string{"students", "delete", "-id", "lol"}, wantErrStr: "Student not found"},
	})
}

func Test_commandLine_feedback(t *testing.T) {
	f := setup(t)

	f.login(t, "two@niva.ai")
	runTests(t, f, []cliTest{
		{name: "list: nothing", args: []string{"feedback", "list"}, wantOut: "No feedback found."},
	})

	f.login(t, "one@niva.ai")
	runTests(t, f, []cliTest{
		{name: "list: own", args: []string{"feedback", "list"}, wantOut: "7.5"},
		{name: "list: filters ignored", args: []string{"feedback", "list", "-student", "lol"}, wantOut: "reserved to admins"},
		{name: "get: no id", args: []string{"feedback", "get"}, wantErr: errHelp},
	})

	f.login(t, "admin@niva.ai")
	runTests(t, f, []cliTest{
		{name: "list: all", args: []string{"feedback", "list"}, wantOut: "from 1 of 1 students checked"},
		{name: "list: unknown student", args: []string{"feedback", "list", "-student", "lol"}, wantErr: feedback.ErrStudentNotLinked},
		{name: "export: no target", args: []string{"feedback", "export"}, wantErr: errHelp},
	})

	assert.Error(t, f.cli.run([]string{"niva", "feedback", "export", "-mail-to", "lol"}))
	assert.Empty(t, f.mailer.SentMessages())

	path := filepath.Join(t.TempDir(), "report.xlsx")
	f.out.Reset()
	err := f.cli.run([]string{"niva", "feedback", "export", "-xlsx", path, "-mail-to", "coach@niva.ai, lead@niva.ai"})
	if !assert.NoError(t, err) {
		return
	}
	assert.Contains(t, f.out.String(), "1 record(s) written to "+path)
	assert.Contains(t, f.out.String(), "Report sent to 2 recipient(s).")

	info, err := os.Stat(path)
	if assert.NoError(t, err) {
		assert.NotZero(t, info.Size())
	}

	sent := f.mailer.SentMessages()
	if assert.Len(t, sent, 1) {
		msg := sent[0]
		assert.Equal(t, "Feedback report: All students", msg.Subject)
		assert.Len(t, msg.To, 2)
		if assert.Len(t, msg.Attachments, 1) {
			assert.Equal(t, "report.xlsx", msg.Attachments[0].Filename)
		}
		assert.Contains(t, msg.TextContent, "All students")
	}
}

func Test_commandLine_interview(t *testing.T) {
	f := setup(t)
	f.login(t, "one@niva.ai")

	runTests(t, f, []cliTest{
		{name: "no course", args: []string{"interview", "join"}, wantErr: errHelp},
		{name: "unknown course", args: []string{"interview", "join", "-course", "lol"}, wantErrStr: "Course not found or inactive"},
		{name: "join", args: []string{"interview", "join", "-course", f.course.ID}, wantOut: "Go Basics"},
	})
}

func Test_commandLine_memory(t *testing.T) {
	f := setup(t)

	f.login(t, "one@niva.ai")
	runTests(t, f, []cliTest{
		{name: "add: not admin", args: []string{"memory", "add", "-course", f.course.ID, "-type", "website", "-name", "Docs", "-url", "https://go.dev/doc"}, wantErr: errAdminOnly},
	})

	f.login(t, "admin@niva.ai")
	runTests(t, f, []cliTest{
		{name: "add: no course", args: []string{"memory", "add"}, wantErr: errHelp},
		{name: "add: missing file", args: []string{"memory", "add", "-course", f.course.ID, "-type", "document", "-name", "Notes", "-file", "/nonexistent/notes.txt"}, wantErrStr: "open /nonexistent/notes.txt: no such file or directory"},
		{name: "delete: unknown", args: []string{"memory", "delete", "-course", f.course.ID, "-id", "lol"}, wantErrStr: "Memory not found"},
	})

	err := f.cli.run([]string{"niva", "memory", "add", "-course", f.course.ID, "-type", "website", "-name", "Docs"})
	if assert.Error(t, err) {
		assert.Contains(t, f.cli.describe(err), "is required for this memory type")
	}

	f.out.Reset()
	if err := f.cli.run([]string{"niva", "memory", "add", "-course", f.course.ID, "-type", "website", "-name", "Docs", "-url", "https://go.dev/doc"}); err != nil {
		t.Fatalf("memory add failed: %v", err)
	}
	m := regexp.MustCompile(`Memory: (\S+)`).FindStringSubmatch(f.out.String())
	if len(m) != 2 {
		t.Fatalf("memory add output = %q, want a memory id", f.out.String())
	}
	id := m[1]

	runTests(t, f, []cliTest{
		{name: "summary", args: []string{"memory", "summary", "-course", f.course.ID, "-id", id}, wantOut: "Docs"},
		{name: "content", args: []string{"memory", "content", "-course", f.course.ID, "-id", id}, wantOut: "chunk(s)"},
		{name: "delete", args: []string{"memory", "delete", "-course", f.course.ID, "-id", id}, wantOut: "Memory deleted."},
		{name: "delete: unknown", args: []string{"memory", "delete", "-course", f.course.ID, "-id", id}, wantErrStr: "Memory not found"},
	})
}
