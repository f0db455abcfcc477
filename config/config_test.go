// Package config is for app wide settings that are unmarshalled
// from Viper (see: /cmd)
package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestNew(t *testing.T) {
	viper.Reset()
	SetDefaults()
	defer viper.Reset()

	c := New()

	if c.Run.Workers != 4 {
		t.Errorf("Config.Run.Workers = %d, want 4", c.Run.Workers)
	}
	if c.Run.Threads != 8 {
		t.Errorf("Config.Run.Threads = %d, want 8", c.Run.Threads)
	}
	if !filepath.IsAbs(c.Paths.Sentinels) {
		t.Errorf("Config.Paths.Sentinels = %s, want an absolute path", c.Paths.Sentinels)
	}
	if !filepath.IsAbs(c.Genomes) {
		t.Errorf("Config.Genomes = %s, want an absolute path", c.Genomes)
	}
}

func TestNew_overrides(t *testing.T) {
	viper.Reset()
	SetDefaults()
	defer viper.Reset()

	viper.Set("run.workers", 16)
	viper.Set("tools", map[string]string{
		"anvi-run-hmms": "/opt/anvio/bin/anvi-run-hmms",
	})

	c := New()

	if c.Run.Workers != 16 {
		t.Errorf("Config.Run.Workers = %d, want 16", c.Run.Workers)
	}
	if got := c.Tools["anvi-run-hmms"]; got != "/opt/anvio/bin/anvi-run-hmms" {
		t.Errorf("Config.Tools[anvi-run-hmms] = %s, want the override", got)
	}
}
