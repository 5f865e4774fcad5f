package config

import "fmt"

// ForecastConfig maps station identifiers to sample files used when a
// recommendation request carries no distribution.
type ForecastConfig struct {
	Stations map[string]string `json:"stations"`
}

// Validate checks every station has a file.
func (c ForecastConfig) Validate() error {
	for id, path := range c.Stations {
		if id == "" || path == "" {
			return fmt.Errorf("station %q has no sample file", id)
		}
	}
	return nil
}
