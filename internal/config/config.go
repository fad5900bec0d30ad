package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"mu-bmd-retarget/internal/crypto"
	"mu-bmd-retarget/internal/meshkind"
	"mu-bmd-retarget/internal/retarget"
)

// ReportFormats lists the report writers a run can ask for.
var ReportFormats = []string{"json", "md", "html"}

// Config holds the settings of a transfer run.
type Config struct {
	// Retarget
	Target         string `json:"target" toml:"target" yaml:"target"`
	Parent         string `json:"parent" toml:"parent" yaml:"parent"`
	ResetTransform *bool  `json:"reset_transform" toml:"reset_transform" yaml:"reset_transform"`
	Meshes         []int  `json:"meshes" toml:"meshes" yaml:"meshes"`
	// Mesh kinds left behind: "body", "effect"
	Exclude []string `json:"exclude" toml:"exclude" yaml:"exclude"`

	// Output
	OutputDir string   `json:"output_dir" toml:"output_dir" yaml:"output_dir"`
	Reports   []string `json:"reports" toml:"reports" yaml:"reports"`
	Ledger    string   `json:"ledger" toml:"ledger" yaml:"ledger"`

	// Preview
	Preview     *bool  `json:"preview" toml:"preview" yaml:"preview"`
	PreviewSize int    `json:"preview_size" toml:"preview_size" yaml:"preview_size"`
	Supersample int    `json:"supersample" toml:"supersample" yaml:"supersample"`
	View        string `json:"view" toml:"view" yaml:"view"`

	Workers int `json:"workers" toml:"workers" yaml:"workers"`

	// Hex keys for encrypted BMD versions
	XORKey string `json:"xor_key" toml:"xor_key" yaml:"xor_key"`
	LEAKey string `json:"lea_key" toml:"lea_key" yaml:"lea_key"`
}

// Load reads a config file. The format follows the extension: .json, .toml,
// .yaml or .yml. Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("config: unsupported format %q (%s)", ext, path)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	Target    string
	Parent    string
	OutputDir string
	Meshes    []int
	Exclude   []string
	Reports   []string
	Ledger    string
	View      string
	Workers   int
	NoReset   bool
	NoPreview bool
}

// Resolve applies flags over the file values, then fills blanks with
// defaults.
func (c *Config) Resolve(flags Flags) {
	if flags.Target != "" {
		c.Target = flags.Target
	}
	if flags.Parent != "" {
		c.Parent = flags.Parent
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Meshes != nil {
		c.Meshes = flags.Meshes
	}
	if len(flags.Exclude) > 0 {
		c.Exclude = flags.Exclude
	}
	if len(flags.Reports) > 0 {
		c.Reports = flags.Reports
	}
	if flags.Ledger != "" {
		c.Ledger = flags.Ledger
	}
	if flags.View != "" {
		c.View = flags.View
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.NoReset {
		c.ResetTransform = boolPtr(false)
	}
	if flags.NoPreview {
		c.Preview = boolPtr(false)
	}

	if c.ResetTransform == nil {
		c.ResetTransform = boolPtr(retarget.DefaultResetTransform)
	}
	if c.Preview == nil {
		c.Preview = boolPtr(true)
	}
	if c.OutputDir == "" && c.Target != "" {
		c.OutputDir = filepath.Join(filepath.Dir(c.Target), "retargeted")
	}
	if c.Reports == nil {
		c.Reports = []string{"json", "md"}
	}
	if c.Ledger == "" {
		c.Ledger = DefaultLedgerPath()
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.View == "" {
		c.View = "three-quarter"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate reports settings a run cannot start with.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("config: no target model")
	}
	for _, f := range c.Reports {
		if !slices.Contains(ReportFormats, f) {
			return fmt.Errorf("config: unknown report format %q", f)
		}
	}
	if c.View != "front" && c.View != "three-quarter" {
		return fmt.Errorf("config: unknown view %q", c.View)
	}
	for _, mi := range c.Meshes {
		if mi < 0 {
			return fmt.Errorf("config: negative mesh index %d", mi)
		}
	}
	if _, err := c.ExcludeKinds(); err != nil {
		return err
	}
	if _, err := c.Keys(); err != nil {
		return err
	}
	return nil
}

// ExcludeKinds parses Exclude.
func (c *Config) ExcludeKinds() ([]meshkind.Kind, error) {
	var out []meshkind.Kind
	for _, s := range c.Exclude {
		k, err := meshkind.ParseKind(s)
		if err != nil {
			return nil, fmt.Errorf("config: exclude: %w", err)
		}
		out = append(out, k)
	}
	return out, nil
}

// Keys decodes the configured hex keys.
func (c *Config) Keys() (crypto.Keys, error) {
	k, err := crypto.ParseKeys(c.XORKey, c.LEAKey)
	if err != nil {
		return crypto.Keys{}, fmt.Errorf("config: %w", err)
	}
	return k, nil
}

// Reset reports the resolved reset-transform setting.
func (c *Config) Reset() bool {
	if c.ResetTransform == nil {
		return retarget.DefaultResetTransform
	}
	return *c.ResetTransform
}

// PreviewEnabled reports the resolved preview setting.
func (c *Config) PreviewEnabled() bool {
	return c.Preview == nil || *c.Preview
}

// DefaultLedgerPath is history.db under the user config directory, or in
// the working directory when there is none.
func DefaultLedgerPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "bmd-retarget-history.db"
	}
	return filepath.Join(dir, "bmd-retarget", "history.db")
}

func boolPtr(b bool) *bool { return &b }
