// disktables - list the partitions and files of disk images
//
// Usage:
//
//	disktables partitions [-o table|json|yaml] <device>...
//	disktables files -partition <n> [-path <p>]... [-inode <n>]... [-max-depth <n>] <device>...
//
// Defaults come from DISKTABLES_MAX_DEPTH, DISKTABLES_LOG_LEVEL, DISKTABLES_LOG_FORMAT and
// DISKTABLES_OUTPUT, read from the environment or from the file named by -env.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	disktables "github.com/diskfs/go-disktables"
)

func main() {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	if err := a.run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "disktables: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	// opts are applied after the ones built from configuration
	opts []disktables.Option
}

// listFlag collects every occurrence of a repeated flag
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

const usage = "usage: disktables partitions|files [options] <device>..."

func (a *app) run(args []string) error {
	if len(args) < 1 {
		return errors.New(usage)
	}
	command, args := args[0], args[1:]

	flags := flag.NewFlagSet(command, flag.ContinueOnError)
	flags.SetOutput(a.stderr)
	envFile := flags.String("env", ".env", "environment file to read defaults from")
	output := flags.String("o", "", "output format: table, json or yaml")
	logLevel := flags.String("log-level", "", "log level")
	var (
		partition     *string
		maxDepth      *int
		paths, inodes listFlag
	)
	switch command {
	case "partitions":
	case "files":
		partition = flags.String("partition", "", "partition address")
		maxDepth = flags.Int("max-depth", 0, "directories a walk may open")
		flags.Var(&paths, "path", "path to look up, may repeat")
		flags.Var(&inodes, "inode", "inode to look up, may repeat")
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return fmt.Errorf("%s: no device given", command)
	}

	cfg, err := loadConfig(*envFile)
	if err != nil {
		return err
	}
	if *output != "" {
		cfg.Output = *output
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if maxDepth != nil && *maxDepth > 0 {
		cfg.MaxDepth = *maxDepth
	}
	log, err := newLogger(cfg, a.stderr)
	if err != nil {
		return err
	}

	opts := append([]disktables.Option{
		disktables.WithLogger(log),
		disktables.WithMaxDepth(cfg.MaxDepth),
	}, a.opts...)
	c := disktables.Constraints{Devices: flags.Args()}

	if command == "partitions" {
		return write(a.stdout, cfg.Output, disktables.ListPartitions(c, opts...), partitionColumns)
	}
	if *partition == "" {
		return errors.New("files: -partition is required")
	}
	c.Partitions = []string{*partition}
	c.Paths = paths
	c.Inodes = inodes
	return write(a.stdout, cfg.Output, disktables.ListFiles(c, opts...), fileColumns)
}
