package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mu-bmd-retarget/internal/meshkind"
	"mu-bmd-retarget/internal/retarget"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadFormats(t *testing.T) {
	cases := map[string]string{
		"run.json": `{"target": "Data/Player/Player.bmd", "parent": "Bip01", "reset_transform": false, "meshes": [0, 2], "reports": ["html"]}`,
		"run.toml": "target = \"Data/Player/Player.bmd\"\nparent = \"Bip01\"\nreset_transform = false\nmeshes = [0, 2]\nreports = [\"html\"]\n",
		"run.yaml": "target: Data/Player/Player.bmd\nparent: Bip01\nreset_transform: false\nmeshes: [0, 2]\nreports: [html]\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, name, body))
			require.NoError(t, err)
			assert.Equal(t, "Data/Player/Player.bmd", cfg.Target)
			assert.Equal(t, "Bip01", cfg.Parent)
			require.NotNil(t, cfg.ResetTransform)
			assert.False(t, *cfg.ResetTransform)
			assert.Equal(t, []int{0, 2}, cfg.Meshes)
			assert.Equal(t, []string{"html"}, cfg.Reports)
			assert.Nil(t, cfg.Preview)
		})
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "config: read")

	_, err = Load(writeConfig(t, "run.ini", "target=x"))
	assert.ErrorContains(t, err, "unsupported format")

	_, err = Load(writeConfig(t, "run.json", "{"))
	assert.ErrorContains(t, err, "config: parse")
}

func TestResolveDefaults(t *testing.T) {
	cfg := Config{Target: filepath.Join("models", "Player.bmd")}
	cfg.Resolve(Flags{})

	assert.True(t, cfg.Reset())
	assert.True(t, cfg.PreviewEnabled())
	assert.Equal(t, filepath.Join("models", "retargeted"), cfg.OutputDir)
	assert.Equal(t, []string{"json", "md"}, cfg.Reports)
	assert.Equal(t, 256, cfg.PreviewSize)
	assert.Equal(t, 2, cfg.Supersample)
	assert.Equal(t, "three-quarter", cfg.View)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.NotEmpty(t, cfg.Ledger)
	assert.Nil(t, cfg.Meshes)
	assert.NoError(t, cfg.Validate())
}

func TestResolveFlagsOverrideFile(t *testing.T) {
	cfg := Config{Target: "a.bmd", Parent: "Root", Workers: 3, Meshes: []int{1}}
	cfg.Resolve(Flags{
		Target:    "b.bmd",
		OutputDir: "out",
		Meshes:    []int{0, 4},
		Workers:   8,
		View:      "front",
		NoReset:   true,
		NoPreview: true,
	})

	assert.Equal(t, "b.bmd", cfg.Target)
	assert.Equal(t, "Root", cfg.Parent)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, []int{0, 4}, cfg.Meshes)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "front", cfg.View)
	assert.False(t, cfg.Reset())
	assert.False(t, cfg.PreviewEnabled())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		c := Config{Target: "t.bmd"}
		c.Resolve(Flags{})
		return c
	}

	cases := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"no target", func(c *Config) { c.Target = "" }, "no target"},
		{"bad report", func(c *Config) { c.Reports = []string{"pdf"} }, "report format"},
		{"bad view", func(c *Config) { c.View = "top" }, "unknown view"},
		{"negative mesh", func(c *Config) { c.Meshes = []int{-1} }, "negative mesh"},
		{"short key", func(c *Config) { c.XORKey = "abcd" }, "xor key"},
		{"bad exclude", func(c *Config) { c.Exclude = []string{"cape"} }, "unknown kind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.modify(&c)
			assert.ErrorContains(t, c.Validate(), tc.want)
		})
	}

	c := valid()
	c.Exclude = []string{"body", "Effect"}
	kinds, err := c.ExcludeKinds()
	require.NoError(t, err)
	assert.Equal(t, []meshkind.Kind{meshkind.Body, meshkind.Effect}, kinds)

	c.XORKey = strings.Repeat("01", 16)
	c.LEAKey = strings.Repeat("02", 32)
	require.NoError(t, c.Validate())
	keys, err := c.Keys()
	require.NoError(t, err)
	_, err = keys.LEA()
	assert.NoError(t, err)
}

func TestResetFallsBackToDefault(t *testing.T) {
	var c Config
	assert.Equal(t, retarget.DefaultResetTransform, c.Reset())

	off := false
	c.ResetTransform = &off
	assert.False(t, c.Reset())
}
