// Package config loads comparator defaults from an optional schemadiff.yaml file and
// SCHEMADIFF_* environment variables. Command line flags override these values.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/schemadiff/schemadiff/internal/model"
)

// FileName is the base name of the config file searched in the working directory
const FileName = "schemadiff"

// EnvPrefix is the prefix of environment variables read as config keys
const EnvPrefix = "SCHEMADIFF"

// Config keys
const (
	KeyWithRenaming = "with_renaming"
	KeyRemoveEntity = "remove_entity"
	KeyExclude      = "exclude"
	KeyPlatform     = "platform"
	KeyFormat       = "format"
	KeySchema       = "schema"
	KeyIgnoreFile   = "ignore_file"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds comparator and output defaults
type Config struct {
	WithRenaming bool
	RemoveEntity bool
	Exclude      []string
	Platform     string
	Format       string
	Schema       string
	IgnoreFile   string

	// File is the config file that was read, empty when none was found
	File string
}

// Load reads configuration. When path is empty, schemadiff.yaml is looked up in the
// working directory and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyWithRenaming, false)
	v.SetDefault(KeyRemoveEntity, true)
	v.SetDefault(KeyExclude, []string{})
	v.SetDefault(KeyPlatform, model.PlatformGeneric)
	v.SetDefault(KeyFormat, FormatText)
	v.SetDefault(KeySchema, "public")
	v.SetDefault(KeyIgnoreFile, "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		WithRenaming: v.GetBool(KeyWithRenaming),
		RemoveEntity: v.GetBool(KeyRemoveEntity),
		Exclude:      splitList(v.GetStringSlice(KeyExclude)),
		Platform:     v.GetString(KeyPlatform),
		Format:       strings.ToLower(v.GetString(KeyFormat)),
		Schema:       v.GetString(KeySchema),
		IgnoreFile:   v.GetString(KeyIgnoreFile),
		File:         v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the platform and format names
func (c *Config) Validate() error {
	if _, err := model.PlatformByName(c.Platform); err != nil {
		return err
	}
	switch c.Format {
	case FormatText, FormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported format %q (supported: text, json)", c.Format)
	}
}

// splitList accepts both YAML lists and comma separated environment values
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
