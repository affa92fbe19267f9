package ignore

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/schemadiff/schemadiff/internal/model"
)

const (
	// IgnoreFileName is the default name of the ignore file
	IgnoreFileName = ".schemadiffignore"
)

// LoadIgnoreFile loads the .schemadiffignore file from the current directory
// Returns nil if the file doesn't exist (ignore functionality is optional)
func LoadIgnoreFile() (*model.IgnoreConfig, error) {
	return LoadIgnoreFileFromPath(IgnoreFileName)
}

// TomlConfig represents the TOML structure of the .schemadiffignore file
type TomlConfig struct {
	Entities PatternConfig `toml:"entities,omitempty"`
	SkipSQL  PatternConfig `toml:"skip_sql,omitempty"`
}

// PatternConfig holds the glob patterns of one section
type PatternConfig struct {
	Patterns []string `toml:"patterns,omitempty"`
}

// LoadIgnoreFileFromPath loads an ignore file from the specified path
// Returns nil if the file doesn't exist (ignore functionality is optional)
func LoadIgnoreFileFromPath(filePath string) (*model.IgnoreConfig, error) {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var tomlConfig TomlConfig
	if _, err := toml.DecodeFile(filePath, &tomlConfig); err != nil {
		return nil, err
	}

	return &model.IgnoreConfig{
		Entities: tomlConfig.Entities.Patterns,
		SkipSQL:  tomlConfig.SkipSQL.Patterns,
	}, nil
}
