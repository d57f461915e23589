package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

const (
	appName           = "minimcp"
	defaultConfigName = "default"
)

var (
	cfgFile string
	cfgName string
)

// initConfig wires the environment and the optional config
// file into viper. Flags always win, then MINIMCP_* variables,
// then the config file.
func initConfig() {

	viper.SetEnvPrefix(appName)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if err := loadConfig(cfgFile, cfgName); err != nil {
		slog.Error("Unable to load configuration", "err", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file at path when given, or the config
// named name from the config folders. A missing named config is not an error.
func loadConfig(path string, name string) error {

	if path == "" {
		path = os.Getenv("MINIMCP_CONFIG")
	}

	if path != "" {
		return readConfigFile(path)
	}

	if name == "" {
		name = os.Getenv("MINIMCP_CONFIG_NAME")
	}

	if name == "" {
		name = defaultConfigName
	}

	folders, err := configFolders()
	if err != nil {
		return err
	}

	return searchConfig(name, folders)
}

func readConfigFile(path string) error {

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("unable to use config file '%s': %w", path, err)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigFile(path)

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("unable to read config file '%s': %w", path, err)
	}

	slog.Debug("Using config file", "path", path)

	return nil
}

func searchConfig(name string, folders []string) error {

	for _, f := range folders {
		viper.AddConfigPath(f)
	}

	viper.SetConfigName(name)

	if err := viper.ReadInConfig(); err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) {
			slog.Debug("No config found", "name", name, "folders", folders)
			return nil
		}
		return fmt.Errorf("unable to read config '%s': %w", name, err)
	}

	slog.Debug("Using config", "name", name, "path", viper.ConfigFileUsed())

	return nil
}

func configFolders() ([]string, error) {

	userFolder, err := xdg.ConfigFile(appName)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve xdg config folder: %w", err)
	}

	return []string{
		userFolder,
		"/usr/local/etc/" + appName,
		"/etc/" + appName,
	}, nil
}
