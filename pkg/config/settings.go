package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings are the persisted user preferences
type Settings struct {
	PilotNames    string   `mapstructure:"pilotNames" json:"pilotNames" yaml:"pilotNames" validate:"required"`        //nolint:lll // tags
	ResultsFolder string   `mapstructure:"resultsFolder" json:"resultsFolder" yaml:"resultsFolder" validate:"required"` //nolint:lll // tags
	SelectedClass string   `mapstructure:"selectedClass" json:"selectedClass" yaml:"selectedClass"`
	SessionTypes  []string `mapstructure:"sessionTypes" json:"sessionTypes" yaml:"sessionTypes" validate:"dive,oneof=race qualifying practice warmup"` //nolint:lll // tags
}

var validate = validator.New()

func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return nil
}

// Pilots returns the trimmed, non-empty pilot names
func (s *Settings) Pilots() []string {
	ret := []string{}
	for _, p := range strings.Split(s.PilotNames, ",") {
		if p = strings.TrimSpace(p); p != "" {
			ret = append(ret, p)
		}
	}
	return ret
}

// DefaultSettingsFile returns $HOME/.sri-settings.json
func DefaultSettingsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sri-settings.json"
	}
	return filepath.Join(home, ".sri-settings.json")
}

// LoadSettings reads the settings file. A missing file yields empty settings.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(s); err != nil {
		return nil, err
	}
	return s, nil
}

// SaveSettings validates and writes s to path
func SaveSettings(path string, s *Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	v := viper.New()
	v.SetConfigType("json")
	v.Set("pilotNames", s.PilotNames)
	v.Set("resultsFolder", s.ResultsFolder)
	v.Set("selectedClass", s.SelectedClass)
	v.Set("sessionTypes", s.SessionTypes)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}

// Resolve applies command line overrides on top of the stored settings
func Resolve(s *Settings) *Settings {
	ret := *s
	if PilotNames != "" {
		ret.PilotNames = PilotNames
	}
	if ResultsFolder != "" {
		ret.ResultsFolder = ResultsFolder
	}
	if SelectedClass != "" {
		ret.SelectedClass = SelectedClass
	}
	return &ret
}
