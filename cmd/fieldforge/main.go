package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fieldforge/fieldforge/internal/checker"
	"github.com/fieldforge/fieldforge/internal/cli"
	"github.com/fieldforge/fieldforge/internal/gitsync"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var rowErr *checker.RowError
		if errors.As(err, &rowErr) {
			os.Exit(2)
		}
		var conflict *checker.ChecksumConflict
		if errors.As(err, &conflict) {
			os.Exit(3)
		}
		if errors.Is(err, gitsync.ErrOutOfSync) {
			os.Exit(4)
		}
		os.Exit(1)
	}
}
