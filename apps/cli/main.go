package main

import (
	"fmt"
	"io"
	"os"

	"github.com/trezcool/niva/core"
	"github.com/trezcool/niva/core/session"
)

func main() {
	os.Exit(start())
}

func start() (code int) {
	c := newContainer()

	err := c.Invoke(func(cli *commandLine, store session.Store, logger core.Logger) {
		defer func() {
			if closer, ok := store.(io.Closer); ok {
				_ = closer.Close()
			}
			if rl, ok := logger.(interface{ Close() }); ok {
				rl.Close()
			}
		}()

		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				_, _ = fmt.Fprintf(os.Stderr, "\nerror: %s\n", cli.describe(err))
			}
			code = 1
		}
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return code
}
