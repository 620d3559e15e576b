// Package main is a command-line front end to the narrative service.
//
// Usage:
//
//	narrate -list
//	narrate -section stop_density -filter region=London
//	narrate -section stop_density,service_gap -filter rural_urban=Rural
//
// Configuration is read the same way as the API (environment, then .env).
// Payloads are written to stdout as indented JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"transitinsight/internal/config"
	"transitinsight/internal/insight"
	"transitinsight/internal/types"
	"transitinsight/internal/wiring"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "narrate: %v\n", err)
		os.Exit(1)
	}
}

// filterFlags collects repeated -filter dimension=value pairs. Repeating a
// dimension adds an alternative value.
type filterFlags map[string][]string

func (f filterFlags) String() string {
	parts := make([]string, 0, len(f))
	for k, vals := range f {
		parts = append(parts, k+"="+strings.Join(vals, "|"))
	}
	return strings.Join(parts, ",")
}

func (f filterFlags) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	k, v = strings.TrimSpace(k), strings.TrimSpace(v)
	if !ok || k == "" || v == "" {
		return fmt.Errorf("filter %q must be dimension=value", s)
	}
	f[k] = append(f[k], v)
	return nil
}

type options struct {
	list     bool
	sections []string
	filters  types.Filters
	timeout  time.Duration
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("narrate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dims := filterFlags{}
	opts := &options{}
	var sections string
	fs.BoolVar(&opts.list, "list", false, "list the available sections and exit")
	fs.StringVar(&sections, "section", "", "comma-separated section ids")
	fs.Var(dims, "filter", "dimension=value filter (repeatable)")
	fs.DurationVar(&opts.timeout, "timeout", time.Minute, "overall deadline")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if len(dims) > 0 {
		opts.filters.Dimensions = dims
	}
	for _, s := range strings.Split(sections, ",") {
		if s = strings.TrimSpace(s); s != "" {
			opts.sections = append(opts.sections, s)
		}
	}
	if !opts.list && len(opts.sections) == 0 {
		return nil, errors.New("at least one -section is required (or -list)")
	}
	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := wiring.NewLogger(cfg.LogLevel, stderr)

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	deps, err := wiring.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	return execute(ctx, deps.Service, opts, stdout)
}

// narrator is the subset of the service the CLI drives.
type narrator interface {
	Report(ctx context.Context, sectionIDs []string, filters types.Filters) ([]*insight.NarrativePayload, error)
	Engine() *insight.Engine
}

func execute(ctx context.Context, svc narrator, opts *options, stdout io.Writer) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	if opts.list {
		type entry struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		}
		var out []entry
		for _, s := range svc.Engine().Sections() {
			out = append(out, entry{ID: s.ID, Title: s.Title})
		}
		return enc.Encode(out)
	}

	payloads, err := svc.Report(ctx, opts.sections, opts.filters)
	if err != nil {
		return err
	}
	return enc.Encode(payloads)
}
