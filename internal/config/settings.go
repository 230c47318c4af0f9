// Package config loads application settings, controller profiles and
// controller SDL maps.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Setting keys. Flags of the same name (with dashes) bind onto them.
const (
	KeyConfigDirs               = "config_dirs"
	KeyProfile                  = "profile"
	KeyMonitorAddr              = "monitor_addr"
	KeyDirectControlAddr        = "direct_control_addr"
	KeySyncControlAddr          = "sync_control_addr"
	KeySequencerQueue           = "sequencer_queue"
	KeyDirectControlQueue       = "direct_control_queue"
	KeyUinputDevice             = "uinput_device"
	KeyLinearInitialNeutralized = "linear_initial_neutralized"
	KeyLogLevel                 = "log_level"
	KeyTray                     = "tray"
)

const (
	appName   = "controlmapper"
	envPrefix = "CONTROLMAPPER"
)

// Settings are the application settings.
type Settings struct {
	ConfigDirs               []string `mapstructure:"config_dirs"`
	Profile                  string   `mapstructure:"profile"`
	MonitorAddr              string   `mapstructure:"monitor_addr"`
	DirectControlAddr        string   `mapstructure:"direct_control_addr"`
	SyncControlAddr          string   `mapstructure:"sync_control_addr"`
	SequencerQueue           int      `mapstructure:"sequencer_queue"`
	DirectControlQueue       int      `mapstructure:"direct_control_queue"`
	UinputDevice             string   `mapstructure:"uinput_device"`
	LinearInitialNeutralized bool     `mapstructure:"linear_initial_neutralized"`
	LogLevel                 string   `mapstructure:"log_level"`
	Tray                     bool     `mapstructure:"tray"`
}

// DefaultDir returns ~/.config/controlmapper (or the working directory as
// fallback).
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".config", appName)
	}
	cwd, _ := os.Getwd()
	return cwd
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyConfigDirs, []string{".config", "config"})
	v.SetDefault(KeyProfile, "")
	v.SetDefault(KeyMonitorAddr, "127.0.0.1:8080")
	v.SetDefault(KeyDirectControlAddr, "0.0.0.0:63241")
	v.SetDefault(KeySyncControlAddr, "0.0.0.0:63242")
	v.SetDefault(KeySequencerQueue, 1024)
	v.SetDefault(KeyDirectControlQueue, 1024)
	v.SetDefault(KeyUinputDevice, "/dev/uinput")
	v.SetDefault(KeyLinearInitialNeutralized, false)
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyTray, true)
}

// NewViper returns a viper instance with defaults and environment lookup set
// up. An empty file searches for controlmapper.{yaml,json,toml} in the
// working directory and DefaultDir.
func NewViper(file string) *viper.Viper {
	return newViper(file, []string{".", DefaultDir()})
}

func newViper(file string, searchPaths []string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(appName)
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}
	return v
}

// BindFlags binds every flag of fs whose name matches a setting key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !isSettingKey(key) {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("bind flag %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

func isSettingKey(key string) bool {
	switch key {
	case KeyConfigDirs, KeyProfile, KeyMonitorAddr, KeyDirectControlAddr, KeySyncControlAddr,
		KeySequencerQueue, KeyDirectControlQueue, KeyUinputDevice, KeyLinearInitialNeutralized,
		KeyLogLevel, KeyTray:
		return true
	}
	return false
}

// ReadSettings reads the settings file, if any, and decodes the merged
// settings. A missing settings file is not an error when none was named.
func ReadSettings(v *viper.Viper) (Settings, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}
