// Package hostenv reads the host process environment the VM's CLI wrapper
// consults (spec.md §6 "Environment"): PLUME_PATH, which selects the
// standard-library root prepended to any library manifest entry flagged
// is_standard.
package hostenv

import "github.com/caarlos0/env/v6"

// Config holds the environment-derived configuration of the host wrapper.
type Config struct {
	// PlumePath is the standard-library root. When empty, standard library
	// entries are resolved relative to the current working directory.
	PlumePath string `env:"PLUME_PATH"`
}

// Load reads Config from the process environment.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, err
	}
	return c, nil
}
