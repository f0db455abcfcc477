// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"log"
	"path/filepath"

	"github.com/spf13/viper"
)

// PathConfig holds the directories the pipeline reads and writes
type PathConfig struct {
	// directory with the input genome assemblies (one FASTA per genome)
	Assemblies string `mapstructure:"assemblies"`

	// directory with the generated per-genome contigs databases
	Data string `mapstructure:"data"`

	// directory with the sentinel marker files
	Sentinels string `mapstructure:"sentinels"`

	// directory with the per-(step, genome) log files
	Logs string `mapstructure:"logs"`
}

// RunConfig are settings for one executor run
type RunConfig struct {
	// the number of workers dispatching external commands at once
	Workers int `mapstructure:"workers"`

	// the thread count hint passed to each external tool,
	// clamped to the range the step declares
	Threads int `mapstructure:"threads"`
}

// Config is the root-level settings struct and is a mix
// of settings available in .gannot.yaml and those
// available from the command line
type Config struct {
	// path to the newline-delimited list of genome IDs
	Genomes string `mapstructure:"genomes"`

	// directory settings
	Paths PathConfig `mapstructure:"paths"`

	// executor settings
	Run RunConfig `mapstructure:"run"`

	// overrides for external tool binaries, keyed by tool name
	Tools map[string]string `mapstructure:"tools"`
}

// New returns a new Config struct populated by
// Viper settings (either from the local .gannot.yaml)
// and/or command line arguments
func New() Config {
	var c Config

	err := viper.Unmarshal(&c)
	if err != nil {
		log.Fatalf("unable to decode settings into struct, %v", err)
	}

	c.Genomes = abs(c.Genomes)
	c.Paths.Assemblies = abs(c.Paths.Assemblies)
	c.Paths.Data = abs(c.Paths.Data)
	c.Paths.Sentinels = abs(c.Paths.Sentinels)
	c.Paths.Logs = abs(c.Paths.Logs)

	return c
}

// abs makes a path absolute so workers never depend on the
// process working directory
func abs(p string) string {
	if p == "" {
		return p
	}

	full, err := filepath.Abs(p)
	if err != nil {
		log.Fatalf("failed to make %s absolute: %v", p, err)
	}
	return full
}

// SetDefaults registers the default settings against viper. Called
// once from the root command before any unmarshalling
func SetDefaults() {
	viper.SetDefault("genomes", "genomes.txt")
	viper.SetDefault("paths.assemblies", "assemblies")
	viper.SetDefault("paths.data", "data")
	viper.SetDefault("paths.sentinels", "done")
	viper.SetDefault("paths.logs", "logs")
	viper.SetDefault("run.workers", 4)
	viper.SetDefault("run.threads", 8)
}
