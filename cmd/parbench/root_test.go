package main

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRuntime(t *testing.T) {
	cfg, err := os.CreateTemp(t.TempDir(), "config_*.yaml")
	require.NoError(t, err)
	_, err = cfg.WriteString("results_dir: out\nmandelbrot:\n  runs: 3\n")
	require.NoError(t, err)
	require.NoError(t, cfg.Close())

	oldCfgFile := cfgFile
	defer func() {
		cfgFile = oldCfgFile
		viper.Reset()
	}()

	viper.Reset()
	cfgFile = cfg.Name()
	initRuntime()

	assert.Equal(t, "out", viper.GetString("results_dir"))
	assert.Equal(t, 3, viper.GetInt("mandelbrot.runs"))
	// Defaults still apply for keys the file does not set.
	assert.Equal(t, 5000, viper.GetInt("mandelbrot.npoints"))
}

func TestRootCmdHasSubcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "mandelbrot")
	assert.Contains(t, names, "nbody")
	assert.Contains(t, names, "plot")
	assert.Contains(t, names, "history")
}

func TestExecute_Error(t *testing.T) {
	oldExit := exit
	defer func() { exit = oldExit }()

	exitCode := -1
	exit = func(code int) { exitCode = code }

	rootCmd.SetArgs([]string{"no-such-command"})
	defer rootCmd.SetArgs(nil)

	Execute()
	assert.Equal(t, 1, exitCode)
}
