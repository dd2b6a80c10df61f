package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ncobase/jobqueue/cmd/commands"
)

func main() {
	if err := commands.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
