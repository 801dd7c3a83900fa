package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	ut "github.com/go-playground/universal-translator"
	"go.uber.org/dig"
	"golang.org/x/term"

	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/auth"
	"github.com/trezcool/niva/core/call"
	"github.com/trezcool/niva/core/course"
	"github.com/trezcool/niva/core/feedback"
	"github.com/trezcool/niva/core/memory"
	"github.com/trezcool/niva/core/session"
	"github.com/trezcool/niva/core/student"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in, run `niva login` first")
	errAdminOnly   = errors.New("this command is reserved to admins")
)

type commandLine struct {
	conf       *core.Config
	sess       *session.Manager
	translator ut.Translator
	logger     core.Logger
	out        io.Writer
	in         int // fd the passwords are read from

	authSvc     *auth.Service
	courseSvc   *course.Service
	studentSvc  *student.Service
	feedbackSvc *feedback.Service
	aggregator  *feedback.Aggregator
	memorySvc   *memory.Service
	callSvc     *call.Service
	emailSvc    core.EmailService
}

type commandLineParams struct {
	dig.In

	Conf        *core.Config
	Sess        *session.Manager
	Translator  ut.Translator
	Logger      core.Logger
	AuthSvc     *auth.Service
	CourseSvc   *course.Service
	StudentSvc  *student.Service
	FeedbackSvc *feedback.Service
	Aggregator  *feedback.Aggregator
	MemorySvc   *memory.Service
	CallSvc     *call.Service
	EmailSvc    core.EmailService
}

func newCommandLine(p commandLineParams) *commandLine {
	return &commandLine{
		conf:        p.Conf,
		sess:        p.Sess,
		translator:  p.Translator,
		logger:      p.Logger,
		out:         os.Stdout,
		in:          int(os.Stdin.Fd()),
		authSvc:     p.AuthSvc,
		courseSvc:   p.CourseSvc,
		studentSvc:  p.StudentSvc,
		feedbackSvc: p.FeedbackSvc,
		aggregator:  p.Aggregator,
		memorySvc:   p.MemorySvc,
		callSvc:     p.CallSvc,
		emailSvc:    p.EmailSvc,
	}
}

func (cli *commandLine) printUsage() {
	cli.println("Usage: niva <command> [subcommand] [flags]")
	cli.println()
	cli.println("  register -email EMAIL [-role user|admin]    create an account (password prompted)")
	cli.println("  login -email EMAIL                          log in (password prompted)")
	cli.println("  logout                                      forget the session")
	cli.println("  whoami                                      show the logged in user")
	cli.println("  role                                        resolve the current role")
	cli.println("  courses list|get|create|update|delete       manage courses")
	cli.println("  students list|get|me|save                   manage student profiles")
	cli.println("  feedback list|get|export                    browse interview feedback")
	cli.println("  memory add|delete|content|summary           manage a course agent's memory")
	cli.println("  interview join -course ID [-agent ID]       start an interview")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	cmd, rest := args[1], args[2:]
	switch cmd {
	case "register":
		return cli.register(ctx, rest)
	case "login":
		return cli.login(ctx, rest)
	case "help", "-h", "-help", "--help":
		cli.printUsage()
		return errHelp
	}

	if !cli.sess.IsAuthenticated(ctx) {
		return errNotLoggedIn
	}
	switch cmd {
	case "logout":
		return cli.logout(ctx)
	case "whoami":
		return cli.whoami(ctx)
	case "role":
		return cli.role(ctx)
	case "courses":
		return cli.courses(ctx, rest)
	case "students":
		return cli.students(ctx, rest)
	case "feedback":
		return cli.feedback(ctx, rest)
	case "memory":
		return cli.memory(ctx, rest)
	case "interview":
		return cli.interview(ctx, rest)
	default:
		cli.printUsage()
		return errHelp
	}
}

// subcommand splits `<sub> [flags]`, printing usage when sub is missing or unknown.
func (cli *commandLine) subcommand(name string, args []string, subs ...string) (string, []string, error) {
	if len(args) > 0 {
		for _, sub := range subs {
			if args[0] == sub {
				return sub, args[1:], nil
			}
		}
	}
	cli.printf("Usage: niva %s %s [flags]\n", name, strings.Join(subs, "|"))
	return "", nil, errHelp
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

// requireFlags prints the usage when one of the named flags is empty.
func requireFlags(fs *flag.FlagSet, names ...string) error {
	for _, name := range names {
		if f := fs.Lookup(name); f == nil || f.Value.String() == "" {
			fs.Usage()
			return errHelp
		}
	}
	return nil
}

// setFlags returns the names of the flags given on the command line.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func (cli *commandLine) requireAdmin(ctx context.Context) (session.Role, error) {
	role := cli.authSvc.ResolveRole(ctx)
	if !role.IsAdmin() {
		return role, errAdminOnly
	}
	return role, nil
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	cli.printf("%s", prompt)
	pwd, err := readPasswordFunc(cli.in)
	cli.println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) println(args ...interface{}) {
	_, _ = fmt.Fprintln(cli.out, args...)
}

func (cli *commandLine) table() *tabwriter.Writer {
	return tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
}

// describe renders err for the terminal, listing validation failures field by field.
func (cli *commandLine) describe(err error) string {
	fields, ok := core.FieldErrors(err, cli.translator)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(fields))
	for fld, msg := range fields {
		if fld == "" {
			msgs = append(msgs, msg)
			continue
		}
		msgs = append(msgs, "  "+fld+": "+msg)
	}
	sort.Strings(msgs)
	return "invalid input:\n" + strings.Join(msgs, "\n")
}

type floatFlag struct {
	val *float64
}

func (f *floatFlag) String() string {
	if f == nil || f.val == nil {
		return ""
	}
	return strconv.FormatFloat(*f.val, 'f', -1, 64)
}

func (f *floatFlag) Set(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	f.val = &v
	return nil
}

// splitList splits a comma separated flag value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func boolPtr(b bool) *bool { return &b }
