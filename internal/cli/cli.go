// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cli implements the dmlparse command.
package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/bufbuild/dmlparse/reporter"
	"github.com/bufbuild/dmlparse/syntax"
	"github.com/bufbuild/dmlparse/workspace"
)

// Exit codes.
const (
	exitOK      = 0
	exitSyntax  = 1
	exitFailure = 2
)

var errSyntax = errors.New("input has syntax errors")

// ExitCode is an error that carries the process exit code it should cause.
type ExitCode struct {
	error
	Code int
}

func (e ExitCode) Unwrap() error {
	return e.error
}

// globalState is everything the command touches outside of itself.
type globalState struct {
	ctx       context.Context
	fs        afero.Fs
	stdout    io.Writer
	stderr    io.Writer
	stdoutTTY bool
	stderrTTY bool
	logger    *logrus.Logger
}

// rootCommand holds the state shared by all subcommands.
type rootCommand struct {
	gs  *globalState
	cmd *cobra.Command

	configPath string
	verbose    bool

	conf     Config
	colorize bool
	styles   styles
}

func newRootCommand(gs *globalState) *rootCommand {
	c := &rootCommand{gs: gs}
	c.cmd = &cobra.Command{
		Use:               "dmlparse",
		Short:             "parse and inspect Device Modeling Language files",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.persistentPreRunE,
	}
	c.cmd.SetOut(gs.stdout)
	c.cmd.SetErr(gs.stderr)
	c.cmd.PersistentFlags().AddFlagSet(c.rootCmdPersistentFlagSet())
	c.cmd.AddCommand(
		getParseCmd(c),
		getQueryCmd(c),
		getImportsCmd(c),
		getStatsCmd(c),
		getGrammarCmd(c),
	)
	return c
}

func (c *rootCommand) rootCmdPersistentFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.SortFlags = false
	flags.StringVarP(&c.configPath, "config", "c", "", "YAML config `file`")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	flags.AddFlagSet(configFlagSet())
	must(cobra.MarkFlagFilename(flags, "config", "yaml", "yml"))
	return flags
}

func (c *rootCommand) persistentPreRunE(cmd *cobra.Command, _ []string) error {
	if !cmd.Flags().Changed("config") {
		if path, ok := os.LookupEnv("DMLPARSE_CONFIG"); ok {
			c.configPath = path
		}
	}

	conf, err := getConsolidatedConfig(c.gs.fs, cmd.Flags(), c.configPath)
	if err != nil {
		return err
	}
	c.conf = conf

	switch conf.Color.String {
	case colorAlways:
		c.colorize = true
	case colorNever:
		c.colorize = false
	default:
		c.colorize = c.gs.stdoutTTY
	}
	if !c.colorize {
		c.gs.stdout = colorable.NewNonColorable(c.gs.stdout)
		cmd.SetOut(c.gs.stdout)
	}
	c.styles = newStyles(c.colorize)

	c.setupLogger()
	c.gs.logger.WithField("config", c.configPath).Debug("configuration loaded")
	return nil
}

func (c *rootCommand) setupLogger() {
	level, _ := logrus.ParseLevel(c.conf.LogLevel.String)
	if c.verbose {
		level = logrus.DebugLevel
	}
	c.gs.logger.SetLevel(level)
	c.gs.logger.SetOutput(c.gs.stderr)
	c.gs.logger.SetFormatter(&logrus.TextFormatter{
		ForceColors:   c.gs.stderrTTY && c.conf.Color.String != colorNever,
		DisableColors: c.conf.Color.String == colorNever,
	})
}

func (c *rootCommand) colorizeStderr() bool {
	switch c.conf.Color.String {
	case colorAlways:
		return true
	case colorNever:
		return false
	default:
		return c.gs.stderrTTY
	}
}

func (c *rootCommand) workspace() *workspace.Workspace {
	return workspace.New(
		workspace.WithFS(c.gs.fs),
		workspace.WithParallelism(int(c.conf.Parallelism.Int64)),
		workspace.WithLogger(c.gs.logger),
		// Syntax errors are collected and rendered per file.
		workspace.WithReporter(reporter.NewReporter(func(reporter.ErrorWithPos) error {
			return nil
		}, nil)),
		workspace.WithParserOptions(
			syntax.WithMaxDepth(int(c.conf.MaxDepth.Int64)),
			syntax.WithMaxSize(int(c.conf.MaxSize.Int64)),
		),
	)
}

// load expands patterns and parses the files they name. It reports whether
// any of them has syntax errors.
func (c *rootCommand) load(patterns []string) ([]*workspace.File, bool, error) {
	paths, err := workspace.Glob(c.gs.fs, patterns...)
	if err != nil {
		return nil, false, err
	}
	files, err := c.workspace().Parse(c.gs.ctx, paths...)
	if errors.Is(err, reporter.ErrInvalidSource) {
		return files, true, nil
	}
	return files, false, err
}

// warnSyntax logs a warning for every file with syntax errors.
func (c *rootCommand) warnSyntax(files []*workspace.File) {
	for _, file := range files {
		if n := len(file.Diagnostics.Diagnostics); n > 0 {
			c.gs.logger.WithFields(logrus.Fields{
				"path":        file.Path,
				"diagnostics": n,
			}).Warn("file has syntax errors")
		}
	}
}

func run(gs *globalState, args []string) int {
	c := newRootCommand(gs)
	c.cmd.SetArgs(args)
	err := c.cmd.ExecuteContext(gs.ctx)
	if err == nil {
		return exitOK
	}

	var ec ExitCode
	if errors.As(err, &ec) {
		if !errors.Is(err, errSyntax) {
			gs.logger.Error(err)
		}
		return ec.Code
	}
	gs.logger.Error(err)
	return exitFailure
}

// Execute runs the dmlparse command with the process's arguments and exits.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	stdoutTTY := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	stderrTTY := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	gs := &globalState{
		ctx:       ctx,
		fs:        afero.NewOsFs(),
		stdout:    colorable.NewColorableStdout(),
		stderr:    colorable.NewColorableStderr(),
		stdoutTTY: stdoutTTY,
		stderrTTY: stderrTTY,
		logger: &logrus.Logger{
			Out:       os.Stderr,
			Formatter: new(logrus.TextFormatter),
			Hooks:     make(logrus.LevelHooks),
			Level:     logrus.WarnLevel,
		},
	}
	code := run(gs, os.Args[1:])
	cancel()
	os.Exit(code)
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
