package main

import (
	"errors"
	"fmt"
	"os"

	urfave "github.com/urfave/cli/v2"
)

func main() {
	e := &env{out: os.Stdout, in: os.Stdin}
	if err := newApp(e).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var coder urfave.ExitCoder
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}
