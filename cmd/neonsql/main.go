package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/neonsql/internal/cli"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(neonsql.ExitPanic)
		}
	}()

	if os.Getenv("NEONSQL_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(neonsql.ExitCodeForError(err))
	}
}
