package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlBriefFile is the top-level YAML structure for brief files.
type yamlBriefFile struct {
	Brief    Brief     `yaml:"brief"`
	Settings *Settings `yaml:"settings"`
}

// DefaultSettings returns the scale used when a brief file carries no
// settings block.
func DefaultSettings() Settings {
	return Settings{
		TotalChapters:        3,
		LocationsPerChapter:  5,
		QuestsPerChapter:     4,
		MainQuestsPerChapter: 2,
		EnemiesPerChapter:    3,
		ItemsPerChapter:      3,
		HubRatio:             0.3,
		DifficultyVariance:   0.2,
	}
}

// LoadBriefFromFile reads and validates a brief YAML file, which may carry
// an optional settings block overriding DefaultSettings.
//
// Precondition: path must point to a valid YAML brief file.
// Postcondition: Returns a validated Brief and Settings, or a non-nil error.
func LoadBriefFromFile(path string) (Brief, Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Brief{}, Settings{}, fmt.Errorf("reading brief file %s: %w", path, err)
	}
	return LoadBriefFromBytes(data)
}

// LoadBriefFromBytes parses and validates a brief from YAML bytes.
//
// Postcondition: Returns a validated Brief and Settings, or a non-nil error.
func LoadBriefFromBytes(data []byte) (Brief, Settings, error) {
	var file yamlBriefFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Brief{}, Settings{}, fmt.Errorf("parsing brief YAML: %w", err)
	}

	if err := file.Brief.Validate(); err != nil {
		return Brief{}, Settings{}, fmt.Errorf("validating brief: %w", err)
	}

	settings := DefaultSettings()
	if file.Settings != nil {
		settings = *file.Settings
	}
	if err := settings.Validate(); err != nil {
		return Brief{}, Settings{}, fmt.Errorf("validating settings: %w", err)
	}

	return file.Brief, settings, nil
}
