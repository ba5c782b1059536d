package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/tagstream/display"
	"github.com/randalmurphal/tagstream/parser"
	"github.com/randalmurphal/tagstream/stream"
	"github.com/randalmurphal/tagstream/tokens"
)

// Config holds configuration for filtering agent output.
type Config struct {
	// --- Visibility ---

	// Display controls which kinds of output are shown.
	Display display.Config `json:"display" yaml:"display" toml:"display"`

	// --- Tags ---

	// Tags declares additional tag names and their content types.
	// Values: "thinking", "tool_call", "tool_result", "system".
	// An entry for a built-in tag overrides its type.
	Tags map[string]string `json:"tags,omitempty" yaml:"tags,omitempty" toml:"tags,omitempty"`

	// AlwaysVisibleTool names the tool whose output is shown even when
	// tools are hidden. Must resolve to a tool_call tag.
	// Default: "attempt_completion", also used when empty.
	AlwaysVisibleTool string `json:"always_visible_tool" yaml:"always_visible_tool" toml:"always_visible_tool"`

	// --- Events ---

	// Events overrides the event surfacing policy.
	// Optional. Default is derived from Display.
	Events *stream.EventPolicy `json:"events,omitempty" yaml:"events,omitempty" toml:"events,omitempty"`

	// --- Streaming ---

	// ChunkSize is the read size when filtering a byte stream.
	// 0 uses stream.DefaultChunkSize.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" toml:"chunk_size"`

	// CharsPerToken is the ratio used to estimate token counts.
	// 0 uses tokens.DefaultCharsPerToken.
	CharsPerToken float64 `json:"chars_per_token" yaml:"chars_per_token" toml:"chars_per_token"`
}

// Default returns a Config with answer text visible and everything else
// hidden.
func Default() Config {
	return Config{
		Display:           display.DefaultConfig(),
		AlwaysVisibleTool: parser.AlwaysVisibleTool,
	}
}

// DefaultPath returns the default config file location,
// $XDG_CONFIG_HOME/tagstream/config.yaml or its platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "tagstream", "config.yaml"), nil
}

// Load reads a config file on top of Default. The format is chosen by
// extension: .yaml/.yml, .toml or .json.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve builds the effective configuration: defaults, then the config
// file, then environment variables. An empty path uses DefaultPath when
// that file exists. The result is validated.
func Resolve(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		if def, err := DefaultPath(); err == nil {
			if _, statErr := os.Stat(def); statErr == nil {
				path = def
			} else if !errors.Is(statErr, fs.ErrNotExist) {
				return cfg, fmt.Errorf("stat config: %w", statErr)
			}
		}
	}

	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	cfg.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFromEnv populates config fields from environment variables.
// Environment variables use the TAGSTREAM_ prefix and take precedence over
// existing values. Unparseable values are ignored.
//
// Supported variables:
//   - TAGSTREAM_SHOW_THINKING, TAGSTREAM_SHOW_TOOLS, TAGSTREAM_SHOW_SYSTEM,
//     TAGSTREAM_SHOW_RESPONSE, TAGSTREAM_VERBOSE: booleans
//   - TAGSTREAM_ALWAYS_VISIBLE_TOOL: tool name
//   - TAGSTREAM_CHUNK_SIZE: read size in bytes
//   - TAGSTREAM_CHARS_PER_TOKEN: token estimation ratio
func (c *Config) LoadFromEnv() {
	envBool("TAGSTREAM_SHOW_THINKING", &c.Display.ShowThinking)
	envBool("TAGSTREAM_SHOW_TOOLS", &c.Display.ShowTools)
	envBool("TAGSTREAM_SHOW_SYSTEM", &c.Display.ShowSystem)
	envBool("TAGSTREAM_SHOW_RESPONSE", &c.Display.ShowResponse)
	envBool("TAGSTREAM_VERBOSE", &c.Display.Verbose)

	if v := os.Getenv("TAGSTREAM_ALWAYS_VISIBLE_TOOL"); v != "" {
		c.AlwaysVisibleTool = v
	}
	if v := os.Getenv("TAGSTREAM_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ChunkSize = n
		}
	}
	if v := os.Getenv("TAGSTREAM_CHARS_PER_TOKEN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.CharsPerToken = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	for name, typ := range c.Tags {
		if name == "" || strings.ContainsAny(name, "<>/ \t\r\n") {
			return fmt.Errorf("%w: invalid tag name %q", ErrInvalidConfig, name)
		}
		ct, ok := parser.ParseContentType(typ)
		if !ok || ct == parser.ContentTypeContent {
			return fmt.Errorf("%w: tag %q has type %q", ErrUnknownContentType, name, typ)
		}
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("%w: chunk_size must be >= 0, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.CharsPerToken < 0 {
		return fmt.Errorf("%w: chars_per_token must be >= 0, got %v", ErrInvalidConfig, c.CharsPerToken)
	}
	tool := c.alwaysVisibleTool()
	if t, ok := c.Registry().Classify(tool); !ok || t != parser.ContentTypeToolCall {
		return fmt.Errorf("%w: always_visible_tool %q is not a tool_call tag", ErrInvalidConfig, tool)
	}
	return nil
}

// alwaysVisibleTool returns AlwaysVisibleTool, or parser.AlwaysVisibleTool
// when it is empty.
func (c *Config) alwaysVisibleTool() string {
	if c.AlwaysVisibleTool == "" {
		return parser.AlwaysVisibleTool
	}
	return c.AlwaysVisibleTool
}

// Registry returns the default registry extended with Tags, with
// AlwaysVisibleTool (attempt_completion when empty) as the only
// always-visible tag. Invalid entries are
// skipped; call Validate to report them.
func (c *Config) Registry() *parser.Registry {
	names := make([]string, 0, len(c.Tags))
	for name := range c.Tags {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := parser.DefaultRegistry().Tags()
	for _, name := range names {
		ct, _ := parser.ParseContentType(c.Tags[name])
		entries = append(entries, parser.TagEntry{Name: name, Type: ct})
	}
	tool := c.alwaysVisibleTool()
	for i := range entries {
		entries[i].AlwaysVisible = entries[i].Name == tool
	}
	return parser.NewRegistry(entries...)
}

// EventPolicy returns Events if set, otherwise the default derived from
// Display.
func (c *Config) EventPolicy() stream.EventPolicy {
	if c.Events != nil {
		return *c.Events
	}
	return stream.DefaultEventPolicy(c.Display)
}

// Counter returns the token counter for CharsPerToken.
func (c *Config) Counter() tokens.Counter {
	return tokens.NewEstimatingCounterWithRatio(c.CharsPerToken)
}

// NewProcessor creates a stream processor from the configuration.
// Extra options are applied after the configured ones.
func (c *Config) NewProcessor(opts ...stream.Option) *stream.Processor {
	all := []stream.Option{
		stream.WithRegistry(c.Registry()),
		stream.WithEventPolicy(c.EventPolicy()),
		stream.WithCounter(c.Counter()),
	}
	return stream.NewProcessor(c.Display, append(all, opts...)...)
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// WithDisplay returns a copy of the config with the specified display
// settings.
func (c Config) WithDisplay(d display.Config) Config {
	c.Display = d
	return c
}

// WithTag returns a copy of the config with an additional tag.
func (c Config) WithTag(name string, t parser.ContentType) Config {
	tags := make(map[string]string, len(c.Tags)+1)
	for k, v := range c.Tags {
		tags[k] = v
	}
	tags[name] = string(t)
	c.Tags = tags
	return c
}
