package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"treemk/internal/cli"
)

// Версию можно переопределить через -ldflags "-X main.version=1.0.0"
var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		code := 1
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.Code
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(code)
	}
}

func run(args []string, in io.Reader, out, errOut io.Writer) error {
	return cli.Execute(args, cli.IO{In: in, Out: out, Err: errOut}, version)
}
