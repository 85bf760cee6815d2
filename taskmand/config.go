// Copyright 2026 The Govisor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use file except in compliance with the License.
// You may obtain a copy of the license at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/gdamore/taskman"
)

type AuthConfig struct {
	User string `mapstructure:"user"`
	Hash string `mapstructure:"hash"` // bcrypt hash, see "taskmand hash"
}

// Config holds the daemon settings.  Values come from, in increasing
// order of precedence: defaults, the config file, TASKMAN_* environment
// variables, and command line flags.
type Config struct {
	Addr     string     `mapstructure:"addr"`
	Name     string     `mapstructure:"name"`
	Capacity int        `mapstructure:"capacity"`
	Policy   string     `mapstructure:"policy"`
	Seed     string     `mapstructure:"seed"`
	Auth     AuthConfig `mapstructure:"auth"`
}

func Defaults() Config {
	return Config{
		Addr:     "127.0.0.1:8321",
		Name:     "taskmand",
		Capacity: 16,
		Policy:   taskman.PolicyReject.String(),
	}
}

// Validate checks the settings that the registry and handler would
// otherwise reject later, so that problems surface at startup.
func (c *Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, not %d", c.Capacity)
	}
	if _, err := taskman.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if c.Auth.User != "" && c.Auth.Hash == "" {
		return errors.New("auth.user requires auth.hash")
	}
	return nil
}

// AddPolicy returns the parsed default policy.  Call after Validate.
func (c *Config) AddPolicy() taskman.AddPolicy {
	p, _ := taskman.ParsePolicy(c.Policy)
	return p
}

func newViper() *viper.Viper {
	d := Defaults()
	v := viper.New()
	v.SetDefault("addr", d.Addr)
	v.SetDefault("name", d.Name)
	v.SetDefault("capacity", d.Capacity)
	v.SetDefault("policy", d.Policy)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("auth.user", d.Auth.User)
	v.SetDefault("auth.hash", d.Auth.Hash)

	v.SetEnvPrefix("TASKMAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// loadConfig reads the named config file, or taskmand.yaml in the
// current directory if file is empty.  Only an explicitly named file
// is required to exist.
func loadConfig(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("taskmand")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
