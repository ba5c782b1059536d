// Package main defines the tagstream CLI using kong.
package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/randalmurphal/tagstream/display"
)

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Filter  FilterCmd  `cmd:"" default:"withargs" help:"Filter raw agent text, printing what is visible"`
	Events  EventsCmd  `cmd:"" help:"Filter a JSONL event stream"`
	Tags    TagsCmd    `cmd:"" help:"List the tags that are recognised"`
	Schema  SchemaCmd  `cmd:"" help:"Print the JSON Schema of the config file"`
	Config  ConfigCmd  `cmd:"" help:"Print the effective configuration"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// Globals are flags shared by every command.
type Globals struct {
	ConfigFile string   `name:"config" short:"c" help:"Config file path (.yaml, .toml or .json)" type:"path"`
	EnvFile    string   `name:"env-file" default:".env" help:"Env file loaded before reading TAGSTREAM_* variables"`
	Show       []string `help:"Content kinds to show: thinking, tools, system, response (repeatable)" placeholder:"KIND"`
	Hide       []string `help:"Content kinds to hide (repeatable)" placeholder:"KIND"`
	Verbose    bool     `short:"v" help:"Surface empty event updates and log each classified segment"`
}

// FilterCmd filters raw text from a file or stdin.
type FilterCmd struct {
	File      string `arg:"" optional:"" help:"Input file; stdin when empty or -"`
	ChunkSize int    `help:"Read size in bytes (overrides config)"`
	Stats     bool   `help:"Print classification stats to stderr when done"`
}

// EventsCmd filters JSONL events from a file or stdin.
type EventsCmd struct {
	File   string `arg:"" optional:"" help:"JSONL file; stdin when empty or -"`
	Follow bool   `short:"f" help:"Keep reading as the file grows"`
}

// TagsCmd lists the effective tag registry.
type TagsCmd struct{}

// SchemaCmd prints the config file schema.
type SchemaCmd struct{}

// ConfigCmd prints the effective configuration.
type ConfigCmd struct{}

// VersionCmd shows version information.
type VersionCmd struct{}

// applyVisibility applies --show, --hide and --verbose on top of cfg.
// Hide wins over show for the same kind.
func (g *Globals) applyVisibility(cfg display.Config) (display.Config, error) {
	for _, group := range []struct {
		kinds []string
		value bool
	}{{g.Show, true}, {g.Hide, false}} {
		for _, kind := range group.kinds {
			for _, k := range strings.Split(kind, ",") {
				field, err := visibilityField(&cfg, strings.TrimSpace(k))
				if err != nil {
					return cfg, err
				}
				*field = group.value
			}
		}
	}
	if g.Verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

func visibilityField(cfg *display.Config, kind string) (*bool, error) {
	switch strings.ToLower(kind) {
	case "thinking":
		return &cfg.ShowThinking, nil
	case "tools", "tool", "tool_call":
		return &cfg.ShowTools, nil
	case "system":
		return &cfg.ShowSystem, nil
	case "response", "responses", "completion":
		return &cfg.ShowResponse, nil
	default:
		return nil, fmt.Errorf("unknown content kind %q (want thinking, tools, system or response)", kind)
	}
}

// kongVars returns variables for kong (version info).
func kongVars() kong.Vars {
	return kong.Vars{
		"version": version,
	}
}
