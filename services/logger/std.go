package logsvc

import (
	"log"

	"github.com/trezcool/niva/core"
)

// StdLogger only writes to a std logger, optionally dropping debug messages.
type StdLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger, debug ...bool) *StdLogger {
	return &StdLogger{std: std, debug: len(debug) > 0 && debug[0]}
}

func (l StdLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		printArgs(l.std, "DEBUG", msg, args)
	}
}

func (l StdLogger) Info(msg string, args ...interface{})  { printArgs(l.std, "INFO", msg, args) }
func (l StdLogger) Warn(msg string, args ...interface{})  { printArgs(l.std, "WARN", msg, args) }
func (l StdLogger) Error(msg string, args ...interface{}) { printArgs(l.std, "ERROR", msg, args) }

func (l StdLogger) Fatal(msg string, args ...interface{}) {
	printArgs(l.std, "FATAL", msg, args)
	l.std.Fatal(msg)
}

func printArgs(std *log.Logger, level, msg string, args []interface{}) {
	std.Printf("[%s] %s", level, msg)
	for _, arg := range args {
		std.Printf("%+v\n", arg)
	}
}
