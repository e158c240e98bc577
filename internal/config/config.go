/*
Copyright © 2022 Jeff Berkowitz (pdxjjb@gmail.com)

This program is free software: you can redistribute it and/or modify it
under the terms of the GNU Affero General Public License as published
by the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful, but
WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public
License along with this program. If not, see
<http://www.gnu.org/licenses/>.
*/

// Package config is the assembler's TOML-driven option set: the origin
// address programs assemble at, whether warnings are promoted to
// errors, and how wide a source excerpt parser errors quote.
//
// cmd/m6800asm applies only OriginAddress. TreatWarningsAsErrors and
// ExcerptLength are loaded and saved, but nothing in the module reads
// them: pkg/asm always uses parser.DefaultExcerptLength.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the assembler's full set of user-tunable options.
type Config struct {
	Assemble struct {
		OriginAddress         uint16 `toml:"origin_address"`
		TreatWarningsAsErrors bool   `toml:"treat_warnings_as_errors"`
	} `toml:"assemble"`

	Diagnostics struct {
		ExcerptLength int `toml:"excerpt_length"`
	} `toml:"diagnostics"`
}

// DefaultConfig returns a Config with the assembler's built-in defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Assemble.OriginAddress = 0x0000
	cfg.Assemble.TreatWarningsAsErrors = false
	cfg.Diagnostics.ExcerptLength = 12
	return cfg
}

// Load reads and parses the TOML file at path, starting from
// DefaultConfig so any field the file omits keeps its default. A missing
// file is not an error: Load returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating its parent directory if
// necessary.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	f, err := os.Create(path) // #nosec G304 -- user-specified config path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
