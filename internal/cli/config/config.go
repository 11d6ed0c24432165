// Package config loads impactctl settings from TOML files via viper.
package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

var (
	configDir       string
	configFilePath  string
	credentialsPath string
)

func defaultConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("LOCALAPPDATA")
		if appData == "" {
			appData = os.Getenv("APPDATA")
		}
		if appData == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			appData = home
		}
		return filepath.Join(appData, "impactusall", "cli"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "impactusall", "cli"), nil
}

// Init loads /etc/impactusall/cli/config.toml, then the user file, which
// wins. IMPACTCTL_* environment variables override both.
func Init(configPath string) error {
	var err error
	if configPath != "" {
		configDir = filepath.Dir(configPath)
		configFilePath = configPath
	} else {
		configDir, err = defaultConfigDir()
		if err != nil {
			return err
		}
		configFilePath = filepath.Join(configDir, "config.toml")
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}
	credentialsPath = filepath.Join(configDir, "credentials")

	viper.Reset()
	viper.SetConfigType("toml")
	viper.SetEnvPrefix("IMPACTCTL")
	viper.AutomaticEnv()
	setDefaults()

	if _, err := os.Stat("/etc/impactusall/cli/config.toml"); err == nil {
		viper.SetConfigFile("/etc/impactusall/cli/config.toml")
		_ = viper.ReadInConfig()
	}
	viper.SetConfigFile(configFilePath)
	if _, err := os.Stat(configFilePath); err == nil {
		return viper.MergeInConfig()
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("api.base_url", "http://localhost:8787")
	viper.SetDefault("api.timeout", 30)
	viper.SetDefault("output.format", "text")
	viper.SetDefault("output.report_dir", ".")
	viper.SetDefault("log.file", filepath.Join(configDir, "impactctl.log"))
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetString returns a string setting, expanding ~ in path settings
func GetString(key string) string {
	value := viper.GetString(key)
	if key == "output.report_dir" || key == "log.file" {
		return expandPath(value)
	}
	return value
}

// GetInt returns an int setting
func GetInt(key string) int {
	return viper.GetInt(key)
}

// Set overrides a setting for this process only
func Set(key string, value interface{}) {
	viper.Set(key, value)
}

// Save persists a setting to the user config file
func Save(key string, value interface{}) error {
	viper.Set(key, value)
	return viper.WriteConfigAs(configFilePath)
}

// Dir returns the configuration directory
func Dir() string {
	return configDir
}

// CredentialsPath returns the path of the stored session
func CredentialsPath() string {
	return credentialsPath
}
