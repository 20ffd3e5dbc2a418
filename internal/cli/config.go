// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"gopkg.in/guregu/null.v3"
	"gopkg.in/yaml.v3"
)

// Config is the configuration of the dmlparse command. Each source of
// configuration produces a Config in which only the values it sets are
// valid; they are merged with [Config.Apply] in order of precedence:
// defaults, the config file, the environment, and finally flags.
type Config struct {
	Parallelism null.Int    `yaml:"parallelism"`
	MaxDepth    null.Int    `yaml:"max_depth" split_words:"true"`
	MaxSize     null.Int    `yaml:"max_size" split_words:"true"`
	Color       null.String `yaml:"color"`
	LogLevel    null.String `yaml:"log_level" split_words:"true"`
}

const envPrefix = "dmlparse"

// Color modes.
const (
	colorAuto   = "auto"
	colorAlways = "always"
	colorNever  = "never"
)

func defaultConfig() Config {
	return Config{
		Parallelism: null.IntFrom(0),
		MaxDepth:    null.IntFrom(0),
		MaxSize:     null.IntFrom(0),
		Color:       null.StringFrom(colorAuto),
		LogLevel:    null.StringFrom(logrus.WarnLevel.String()),
	}
}

// Apply returns c with every valid value of cfg copied over it.
func (c Config) Apply(cfg Config) Config {
	if cfg.Parallelism.Valid {
		c.Parallelism = cfg.Parallelism
	}
	if cfg.MaxDepth.Valid {
		c.MaxDepth = cfg.MaxDepth
	}
	if cfg.MaxSize.Valid {
		c.MaxSize = cfg.MaxSize
	}
	if cfg.Color.Valid {
		c.Color = cfg.Color
	}
	if cfg.LogLevel.Valid {
		c.LogLevel = cfg.LogLevel
	}
	return c
}

// Validate checks the consolidated configuration.
func (c Config) Validate() error {
	for _, v := range []struct {
		name  string
		value null.Int
	}{
		{"parallelism", c.Parallelism},
		{"max_depth", c.MaxDepth},
		{"max_size", c.MaxSize},
	} {
		if v.value.Int64 < 0 {
			return fmt.Errorf("%s must not be negative, got %d", v.name, v.value.Int64)
		}
	}
	switch c.Color.String {
	case colorAuto, colorAlways, colorNever:
	default:
		return fmt.Errorf("color must be %s, %s or %s, got %q", colorAuto, colorAlways, colorNever, c.Color.String)
	}
	if _, err := logrus.ParseLevel(c.LogLevel.String); err != nil {
		return err
	}
	return nil
}

func configFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.SortFlags = false
	flags.IntP("parallelism", "j", 0, "maximum number of files parsed at once (0 for one per CPU)")
	flags.Int("max-depth", 0, "maximum nesting depth of the input (0 for the default)")
	flags.Int("max-size", 0, "maximum size of an input file in bytes (0 for no limit)")
	flags.String("color", colorAuto, "colorize output: auto, always or never")
	flags.String("log-level", logrus.WarnLevel.String(), "log level: debug, info, warn or error")
	return flags
}

// Gets configuration from CLI flags. Only flags that were set are valid.
func getFlagConfig(flags *pflag.FlagSet) Config {
	return Config{
		Parallelism: getNullInt(flags, "parallelism"),
		MaxDepth:    getNullInt(flags, "max-depth"),
		MaxSize:     getNullInt(flags, "max-size"),
		Color:       getNullString(flags, "color"),
		LogLevel:    getNullString(flags, "log-level"),
	}
}

func getNullInt(flags *pflag.FlagSet, key string) null.Int {
	v, err := flags.GetInt(key)
	if err != nil {
		panic(err)
	}
	return null.NewInt(int64(v), flags.Changed(key))
}

func getNullString(flags *pflag.FlagSet, key string) null.String {
	v, err := flags.GetString(key)
	if err != nil {
		panic(err)
	}
	return null.NewString(v, flags.Changed(key))
}

// Reads a configuration file. An empty path means there is none.
func readFileConfig(fs afero.Fs, path string) (Config, error) {
	var conf Config
	if path == "" {
		return conf, nil
	}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return conf, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&conf); err != nil && !errors.Is(err, io.EOF) {
		return conf, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

// Reads configuration variables from the environment, named DMLPARSE_ and
// the upper-cased config key.
func readEnvConfig() (conf Config, err error) {
	err = envconfig.Process(envPrefix, &conf)
	return conf, err
}

// getConsolidatedConfig merges every source of configuration and validates
// the result.
func getConsolidatedConfig(fs afero.Fs, flags *pflag.FlagSet, path string) (Config, error) {
	fileConf, err := readFileConfig(fs, path)
	if err != nil {
		return Config{}, err
	}
	envConf, err := readEnvConfig()
	if err != nil {
		return Config{}, err
	}
	conf := defaultConfig().Apply(fileConf).Apply(envConf).Apply(getFlagConfig(flags))
	return conf, conf.Validate()
}
