// Package config centralizes viper defaults and configuration loading.
package config

import (
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load initializes configuration from an optional config file and
// PARBENCH_-prefixed environment variables. The sweep definitions the
// original tooling compiled in live here as overridable defaults.
func Load(cfgFile string) {
	// Optional .env; absence is normal.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("PARBENCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("verbose", false)
	viper.SetDefault("log_file", "")
	viper.SetDefault("results_dir", "results")
	viper.SetDefault("history_db", ".parbench/history.db")

	viper.SetDefault("mandelbrot.exe", "cmake-build-debug/mandelbrot.exe")
	viper.SetDefault("mandelbrot.threads", []int{1, 2, 4, 8, 16})
	viper.SetDefault("mandelbrot.npoints", 5000)
	viper.SetDefault("mandelbrot.runs", 10)

	viper.SetDefault("nbody.launcher", "scripts/run_once.ps1")
	viper.SetDefault("nbody.config", "data/config_n_body.json")
	viper.SetDefault("nbody.metrics_dir", "scripts/results")
	viper.SetDefault("nbody.settle_ms", 100)

	if err := viper.ReadInConfig(); err == nil {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}
}
