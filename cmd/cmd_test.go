package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bnema/waypick/internal/config"
	"github.com/bnema/waypick/internal/flow"
	"github.com/bnema/waypick/internal/wl"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and returns its stdout.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, verbose, quiet = "", false, false
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypick", "waypick.toml")

	t.Run("path", func(t *testing.T) {
		out, err := executeCommand(t, "--config", path, "config", "path")
		require.NoError(t, err)
		assert.Equal(t, path+"\n", out)
	})

	t.Run("init creates the file", func(t *testing.T) {
		_, err := executeCommand(t, "--config", path, "config", "init")
		require.NoError(t, err)
		assert.FileExists(t, path)
	})

	t.Run("init keeps an existing file", func(t *testing.T) {
		_, err := executeCommand(t, "--config", path, "config", "init")
		assert.Error(t, err)
	})

	t.Run("show prints the effective values", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, []byte("[window]\nmax_rows = 7\n"), 0o644))
		out, err := executeCommand(t, "--config", path, "config", "show")
		require.NoError(t, err)
		assert.Contains(t, out, path)
		assert.Contains(t, out, "window.max_rows")
		assert.Contains(t, out, "7")
	})

	t.Run("init --force overwrites", func(t *testing.T) {
		_, err := executeCommand(t, "--config", path, "config", "init", "--force")
		require.NoError(t, err)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "max_rows = 7")
	})
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "waypick.toml")
	require.NoError(t, os.WriteFile(path, []byte("[window\nmax_rows = 1"), 0o644))
	_, err := executeCommand(t, "--config", path, "version")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := executeCommand(t, "--config", filepath.Join(t.TempDir(), "none.toml"), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "waypick "+Version))
}

func TestRootWithoutChoices(t *testing.T) {
	orig := stdinIsTerminal
	stdinIsTerminal = func() bool { return true }
	defer func() { stdinIsTerminal = orig }()

	_, err := executeCommand(t, "--config", filepath.Join(t.TempDir(), "none.toml"))
	assert.ErrorIs(t, err, errNoChoices)
}

func TestMenuFlow(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	cmd.SetIn(strings.NewReader("a\nb\n"))

	f := menuFlow(cmd, []string{"a", "b*"})
	assert.IsType(t, &flow.Single{}, f)

	f = menuFlow(cmd, nil)
	stdin, ok := f.(*flow.StdinMenu)
	require.True(t, ok)
	stdin.Close()
}

func TestHintArg(t *testing.T) {
	assert.Equal(t, "Input", hintArg(nil, "Input"))
	assert.Equal(t, "Input", hintArg([]string{""}, "Input"))
	assert.Equal(t, "Name", hintArg([]string{"Name"}, "Input"))
}

func TestWriteResult(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeResult(&out, ""))
	assert.Empty(t, out.String(), "a cancelled popup prints nothing")

	require.NoError(t, writeResult(&out, "home:secret"))
	assert.Equal(t, "home:secret\n", out.String())
}

func TestPosition(t *testing.T) {
	orig := cursorPos
	defer func() { cursorPos = orig }()

	newCmd := func(args ...string) *cobra.Command {
		c := &cobra.Command{}
		c.Flags().IntVar(&posX, "x", 0, "")
		c.Flags().IntVar(&posY, "y", 0, "")
		c.SetContext(context.Background())
		require.NoError(t, c.ParseFlags(args))
		return c
	}

	tests := []struct {
		name   string
		args   []string
		cursor func(context.Context) (int, int, error)
		wantX  int
		wantY  int
	}{
		{
			name:   "cursor",
			cursor: func(context.Context) (int, int, error) { return 120, 340, nil },
			wantX:  120,
			wantY:  340,
		},
		{
			name:   "flags win",
			args:   []string{"--x", "10", "--y", "20"},
			cursor: func(context.Context) (int, int, error) { return 120, 340, nil },
			wantX:  10,
			wantY:  20,
		},
		{
			name:   "no compositor ipc",
			cursor: func(context.Context) (int, int, error) { return 0, 0, errors.New("not running") },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursorPos = tt.cursor
			x, y := position(newCmd(tt.args...))
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestWallpaperDir(t *testing.T) {
	origCfg, origFallback := cfg, fallbackWallpaperDirs
	defer func() { cfg, fallbackWallpaperDirs = origCfg, origFallback }()

	home := t.TempDir()
	t.Setenv("HOME", home)
	walls := filepath.Join(home, "walls")
	require.NoError(t, os.Mkdir(walls, 0o755))

	cfg = config.Default()
	cfg.Wallpaper.Directory = filepath.Join(home, "missing")
	fallbackWallpaperDirs = []string{"~/walls"}

	dir, err := wallpaperDir([]string{"~/given"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "given"), dir)

	dir, err = wallpaperDir(nil)
	require.NoError(t, err)
	assert.Equal(t, walls, dir)

	cfg.Wallpaper.Directory = "~/walls"
	fallbackWallpaperDirs = nil
	dir, err = wallpaperDir(nil)
	require.NoError(t, err)
	assert.Equal(t, walls, dir)

	cfg.Wallpaper.Directory = filepath.Join(home, "missing")
	_, err = wallpaperDir(nil)
	assert.Error(t, err)
}

func TestRenderOutputs(t *testing.T) {
	info := OutputsInfo{
		Outputs: []wl.Output{
			{GlobalName: 3, Name: "DP-1", Description: "Dell U2720Q", Scale: 2, Width: 3840, Height: 2160, Refresh: 60000},
			{GlobalName: 4, Name: "eDP-1", Scale: 1, Width: 1920, Height: 1200, Refresh: 59950},
		},
		MaxScale: 2,
	}
	out := renderOutputs(info)
	assert.Contains(t, out, "DP-1")
	assert.Contains(t, out, "3840x2160@60.00")
	assert.Contains(t, out, "1920x1080")
	assert.Contains(t, out, "Max scale: 2")

	assert.Contains(t, renderOutputs(OutputsInfo{MaxScale: 1}), "No outputs reported")
}

func TestWriteOutputsJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeOutputsJSON(&out, OutputsInfo{MaxScale: 1}))

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, []interface{}{}, got["outputs"])
	assert.Equal(t, float64(1), got["max_scale"])

	out.Reset()
	info := OutputsInfo{Outputs: []wl.Output{{GlobalName: 3, Name: "DP-1", Scale: 2}}, MaxScale: 2}
	require.NoError(t, writeOutputsJSON(&out, info))
	assert.Contains(t, out.String(), `"name": "DP-1"`)
	assert.Contains(t, out.String(), `"scale": 2`)
}
