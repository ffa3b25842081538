package config

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/hotspotlogin/internal/domain/model"
	"github.com/ericfisherdev/hotspotlogin/internal/domain/port/driven"
)

// ErrConfigNotFound is returned when the profile file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// ErrMissingCredentials is returned when the profile lacks a username or password.
var ErrMissingCredentials = errors.New("username and password must be set in the configuration file")

// profileFile is the on-disk JSON shape of the profile.
type profileFile struct {
	Username string           `json:"username"`
	Password string           `json:"password"`
	Settings profileFileFlags `json:"settings"`
}

type profileFileFlags struct {
	EnableNotifications bool `json:"enableNotifications"`
	AutoRetry           bool `json:"autoRetry"`
	CheckConnection     bool `json:"checkConnection"`
	LogToFile           bool `json:"logToFile"`
}

func fromModel(p model.Profile) profileFile {
	return profileFile{
		Username: p.Credentials.Username,
		Password: p.Credentials.Password,
		Settings: profileFileFlags{
			EnableNotifications: p.Settings.EnableNotifications,
			AutoRetry:           p.Settings.AutoRetry,
			CheckConnection:     p.Settings.CheckConnection,
			LogToFile:           p.Settings.LogToFile,
		},
	}
}

func (f profileFile) toModel() model.Profile {
	return model.Profile{
		Credentials: model.Credentials{Username: f.Username, Password: f.Password},
		Settings: model.Settings{
			EnableNotifications: f.Settings.EnableNotifications,
			AutoRetry:           f.Settings.AutoRetry,
			CheckConnection:     f.Settings.CheckConnection,
			LogToFile:           f.Settings.LogToFile,
		},
	}
}

// ReadProfile reads and validates the profile at path. Settings keys missing
// from the file keep their DefaultSettings values.
func ReadProfile(path string) (model.Profile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return model.Profile{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("read config %s: %w", path, err)
	}

	raw := fromModel(model.Profile{Settings: model.DefaultSettings()})
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.Profile{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	profile := raw.toModel()
	if !profile.Credentials.Valid() {
		return model.Profile{}, fmt.Errorf("%w (%s)", ErrMissingCredentials, path)
	}
	return profile, nil
}

// SaveProfile atomically writes p to path, creating parent directories.
func SaveProfile(path string, p model.Profile) error {
	data, err := json.MarshalIndent(fromModel(p), "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(append(data, '\n'))); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// WriteTemplate writes a profile with empty credentials and default settings
// for the user to fill in. An existing file is left untouched.
func WriteTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return SaveProfile(path, model.Profile{Settings: model.DefaultSettings()})
}

// Compile-time interface satisfaction check.
var _ driven.ProfileSource = FileSource("")

// FileSource reads the profile file on every call.
type FileSource string

// Profile implements driven.ProfileSource.
func (s FileSource) Profile(_ context.Context) (model.Profile, error) {
	return ReadProfile(string(s))
}
