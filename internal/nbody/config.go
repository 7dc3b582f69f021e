package nbody

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SimConfig is the JSON configuration file the external N-body launcher
// reads. Decoding into a generic map preserves keys this harness does
// not own.
type SimConfig map[string]any

// carriedKeys are copied from the original configuration into each
// rewritten one so the external simulator keeps its particle count and
// seed across the batch.
var carriedKeys = []string{"n", "seed"}

// ReadSimConfig loads the simulator configuration file.
func ReadSimConfig(path string) (SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg SimConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return cfg, nil
}

// WriteSimConfig writes the configuration with two-space indentation,
// creating parent directories as needed.
func WriteSimConfig(path string, cfg SimConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// configFor builds the configuration written before one batch entry:
// the entry's tend/dt/input plus any carried keys from the original.
func configFor(batch BatchConfig, original SimConfig) SimConfig {
	cfg := SimConfig{
		"tend":  batch.TEnd,
		"dt":    batch.Dt,
		"input": batch.Input,
	}
	for _, key := range carriedKeys {
		if v, ok := original[key]; ok {
			cfg[key] = v
		}
	}
	return cfg
}
