// Package config loads the emulator's configuration record (spec.md §6).
// It replaces the teacher's utils.IniciarConfiguracion[T] (a generic
// os.Open + json.Decode pair) with spf13/viper, which gains default
// values and tolerant handling of a missing file for free. Environment
// variables are not consulted.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the configuration record spec.md §6 enumerates.
type Config struct {
	NumCPU            int    `mapstructure:"num-cpu"`
	Scheduler         string `mapstructure:"scheduler"`
	QuantumCycles     int    `mapstructure:"quantum-cycles"`
	BatchProcessFreq  uint64 `mapstructure:"batch-process-freq"`
	MinInstructions   int    `mapstructure:"min-ins"`
	MaxInstructions   int    `mapstructure:"max-ins"`
	DelayPerExec      uint64 `mapstructure:"delay-per-exec"`
	MaxOverallMem     uint64 `mapstructure:"max-overall-mem"`
	MemPerFrame       uint64 `mapstructure:"mem-per-frame"`
	MemPerProc        uint64 `mapstructure:"mem-per-proc"`
}

// Default returns the configuration record's documented defaults.
func Default() Config {
	return Config{
		NumCPU:           4,
		Scheduler:        "fcfs",
		QuantumCycles:    5,
		BatchProcessFreq: 1,
		MinInstructions:  1,
		MaxInstructions:  2000,
		DelayPerExec:     100,
		MaxOverallMem:    16384,
		MemPerFrame:      16,
		MemPerProc:       4096,
	}
}

// ErrConfigurationMissing is returned alongside the default config when
// the requested file cannot be opened (spec.md §7: ConfigurationMissing).
var ErrConfigurationMissing = errors.New("configuration file missing, using defaults")

// Load reads path (any format viper supports: yaml, json, toml, ...) and
// decodes it over the documented defaults. If path cannot be opened, the
// defaults are returned alongside ErrConfigurationMissing so the caller
// can report it to stderr and continue, per spec.md §7's
// ConfigurationMissing propagation policy.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	for key, val := range defaultsMap(cfg) {
		v.SetDefault(key, val)
	}
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, ErrConfigurationMissing
		}
		if os.IsNotExist(err) {
			return cfg, ErrConfigurationMissing
		}
		return cfg, fmt.Errorf("reading configuration: %w", err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg, nil
}

func defaultsMap(cfg Config) map[string]interface{} {
	return map[string]interface{}{
		"num-cpu":             cfg.NumCPU,
		"scheduler":           cfg.Scheduler,
		"quantum-cycles":      cfg.QuantumCycles,
		"batch-process-freq":  cfg.BatchProcessFreq,
		"min-ins":             cfg.MinInstructions,
		"max-ins":             cfg.MaxInstructions,
		"delay-per-exec":      cfg.DelayPerExec,
		"max-overall-mem":     cfg.MaxOverallMem,
		"mem-per-frame":       cfg.MemPerFrame,
		"mem-per-proc":        cfg.MemPerProc,
	}
}
