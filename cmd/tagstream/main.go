// Package main is the entry point for the tagstream CLI.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/tagstream/config"
	"github.com/randalmurphal/tagstream/jsonl"
	"github.com/randalmurphal/tagstream/stream"
)

// Build-time variables (set via ldflags)
var (
	version = "dev"
	commit  = "unknown"
)

// streams carries the process's standard streams into commands.
type streams struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &streams{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	if err := run(ctx, os.Args[1:], s); err != nil {
		fmt.Fprintf(os.Stderr, "tagstream: %v\n", err)
		os.Exit(1)
	}
}

// run parses args and executes the selected command.
func run(ctx context.Context, args []string, s *streams) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("tagstream"),
		kong.Description("Filter tagged LLM output so only the visible parts reach the user."),
		kong.UsageOnError(),
		kong.Writers(s.stdout, s.stderr),
		kongVars(),
		kong.Bind(s),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err != nil {
		return err
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kctx.Run(&cli.Globals)
}

// setup loads the env file and configuration, applies flag overrides and
// installs the logger.
func (g *Globals) setup(s *streams) (config.Config, *slog.Logger, error) {
	if g.EnvFile != "" {
		if err := godotenv.Load(g.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, nil, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := config.Resolve(g.ConfigFile)
	if err != nil {
		return cfg, nil, err
	}

	cfg.Display, err = g.applyVisibility(cfg.Display)
	if err != nil {
		return cfg, nil, err
	}

	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	if cfg.Display.Verbose {
		level.Set(slog.LevelDebug)
	}
	logger := slog.New(slog.NewTextHandler(s.stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return cfg, logger, nil
}

// openInput returns stdin for "" or "-", otherwise the named file.
func openInput(path string, s *streams) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(s.stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// Run filters raw text.
func (c *FilterCmd) Run(g *Globals, ctx context.Context, s *streams) error {
	cfg, logger, err := g.setup(s)
	if err != nil {
		return err
	}

	in, err := openInput(c.File, s)
	if err != nil {
		return err
	}
	defer in.Close()

	chunkSize := cfg.ChunkSize
	if c.ChunkSize > 0 {
		chunkSize = c.ChunkSize
	}

	p := cfg.NewProcessor(stream.WithLogger(logger))
	n, err := p.Copy(ctx, s.stdout, in, chunkSize)
	if err != nil {
		return err
	}

	if tag, open := p.CurrentTag(); open {
		logger.Warn("input ended inside a tag", slog.String("tag", tag))
	}
	logger.Debug("filter done", slog.Int64("written", n))

	if c.Stats {
		data, err := yaml.Marshal(p.Stats())
		if err != nil {
			return fmt.Errorf("marshal stats: %w", err)
		}
		if _, err := s.stderr.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// Run filters JSONL events.
func (c *EventsCmd) Run(g *Globals, ctx context.Context, s *streams) error {
	cfg, logger, err := g.setup(s)
	if err != nil {
		return err
	}

	p := cfg.NewProcessor(stream.WithLogger(logger))
	enc := json.NewEncoder(s.stdout)
	enc.SetEscapeHTML(false)

	emit := func(ev stream.Event) error {
		res := p.ProcessData(ev)
		if !res.ShouldOutput {
			return nil
		}
		if err := enc.Encode(res.Content); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
		return nil
	}

	if !c.Follow {
		in, err := openInput(c.File, s)
		if err != nil {
			return err
		}
		defer in.Close()
		return jsonl.Decode(in, emit)
	}

	if c.File == "" || c.File == "-" {
		return errors.New("--follow requires a file")
	}
	r, err := jsonl.NewReader(c.File)
	if err != nil {
		return err
	}
	defer r.Close()

	// Stop the tail before the file is closed.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger.Debug("following events", slog.String("path", r.Path()))
	for ev := range r.TailFrom(ctx, 0) {
		if err := emit(ev); err != nil {
			return err
		}
	}
	return nil
}

// Run lists tags.
func (c *TagsCmd) Run(g *Globals, s *streams) error {
	cfg, _, err := g.setup(s)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(s.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TAG\tTYPE\tALWAYS VISIBLE")
	for _, e := range cfg.Registry().Tags() {
		always := ""
		if e.AlwaysVisible {
			always = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Type, always)
	}
	return w.Flush()
}

// Run prints the schema.
func (c *SchemaCmd) Run(s *streams) error {
	data, err := config.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(s.stdout, string(data))
	return err
}

// Run prints the effective configuration.
func (c *ConfigCmd) Run(g *Globals, s *streams) error {
	cfg, _, err := g.setup(s)
	if err != nil {
		return err
	}
	data, err := cfg.YAML()
	if err != nil {
		return err
	}
	_, err = s.stdout.Write(data)
	return err
}

// Run prints version information.
func (c *VersionCmd) Run(s *streams) error {
	_, err := fmt.Fprintf(s.stdout, "tagstream %s (%s)\n", version, commit)
	return err
}
