// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package main is the csbase command line tool: it opens a catalog and a
// data directory and either runs a single statement (csbase exec) or
// drops into an interactive prompt (csbase, with no subcommand).
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/csbase/csbase/catalog"
	"github.com/csbase/csbase/dbconfig"
	"github.com/csbase/csbase/exec"
	"github.com/csbase/csbase/internal/runtime"
	"github.com/csbase/csbase/sql"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "csbase",
		Short: "Embedded relational storage engine REPL",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runRepl(configPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a csbase TOML config file")
	rootCmd.AddCommand(execCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func execCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <statement>",
		Short: "Run a single SQL statement and exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			e, log, err := newEngine(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			return runOne(e, args[0], os.Stdout)
		},
	}
}

func newEngine(configPath string) (*exec.Engine, *zap.Logger, error) {
	log, err := zap.NewProduction()
	if err != nil {
		return nil, nil, err
	}

	cfg, err := dbconfig.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsureBaseDir(); err != nil {
		return nil, nil, err
	}

	cat, err := catalog.Open(cfg.CatalogPath())
	if err != nil {
		return nil, nil, err
	}

	return exec.New(cat, cfg, log), log, nil
}

func runRepl(configPath string) error {
	e, log, err := newEngine(configPath)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	return runtime.Run(context.Background(), 5*time.Second, func(ctx context.Context) error {
		return repl(ctx, e, os.Stdin, os.Stdout)
	})
}

// repl reads one statement per line until EOF or ctx is cancelled,
// executing each against e and printing its result. A statement error is
// printed and the loop continues, matching the original REPL's "errors
// return you to the prompt, not to the shell" behaviour.
func repl(ctx context.Context, e *exec.Engine, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "SQL> ")
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runOne(e, line, out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
}

func runOne(e *exec.Engine, statement string, out io.Writer) error {
	stmt, err := sql.Parse(statement)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return nil
	}
	res, err := e.Execute(stmt)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return nil
	}
	printResult(res, out)
	return nil
}

func printResult(res exec.Result, out io.Writer) {
	if res.Message != "" {
		fmt.Fprintln(out, res.Message)
	}
	if res.Columns != nil {
		fmt.Fprintln(out, strings.Join(res.Columns, "\t"))
		for _, row := range res.Rows {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = v.String()
			}
			fmt.Fprintln(out, strings.Join(cells, "\t"))
		}
		fmt.Fprintf(out, "(%d rows)\n", len(res.Rows))
	}
}
