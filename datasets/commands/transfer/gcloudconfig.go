package transfer

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/jfrog/jfrog-client-go/utils/errorutils"
	"github.com/jfrog/jfrog-client-go/utils/io/fileutils"
	"gopkg.in/ini.v1"
)

const (
	cloudSdkConfigEnv = "CLOUDSDK_CONFIG"
	activeConfigEnv   = "CLOUDSDK_ACTIVE_CONFIG_NAME"
	defaultConfigName = "default"
	activeConfigFile  = "active_config"
	configurationsDir = "configurations"
	configFilePrefix  = "config_"
	coreSection       = "core"
	accountKey        = "account"
	projectKey        = "project"
)

// GcloudConfiguration is the subset of a gcloud named configuration the transfer logs.
type GcloudConfiguration struct {
	Name    string
	Account string
	Project string
}

// GetConfigDir returns the gcloud configuration directory, honoring CLOUDSDK_CONFIG.
func GetConfigDir() (string, error) {
	if configDir := os.Getenv(cloudSdkConfigEnv); configDir != "" {
		return configDir, nil
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "gcloud"), nil
		}
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errorutils.CheckError(err)
	}
	return filepath.Join(homeDir, ".config", "gcloud"), nil
}

// ReadActiveConfiguration reads the active named configuration. It returns nil when gcloud was never configured.
func ReadActiveConfiguration() (*GcloudConfiguration, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return nil, err
	}
	name, err := activeConfigurationName(configDir)
	if err != nil {
		return nil, err
	}
	configPath := filepath.Join(configDir, configurationsDir, configFilePrefix+name)
	exists, err := fileutils.IsFileExists(configPath, false)
	if err != nil || !exists {
		return nil, err
	}
	cfg, err := ini.LoadSources(ini.LoadOptions{Loose: true, Insensitive: true, IgnoreInlineComment: true}, configPath)
	if err != nil {
		return nil, errorutils.CheckErrorf("failed to parse %s: %w", configPath, err)
	}
	core := cfg.Section(coreSection)
	return &GcloudConfiguration{
		Name:    name,
		Account: core.Key(accountKey).String(),
		Project: core.Key(projectKey).String(),
	}, nil
}

func activeConfigurationName(configDir string) (string, error) {
	if name := os.Getenv(activeConfigEnv); name != "" {
		return name, nil
	}
	activePath := filepath.Join(configDir, activeConfigFile)
	exists, err := fileutils.IsFileExists(activePath, false)
	if err != nil || !exists {
		return defaultConfigName, err
	}
	content, err := os.ReadFile(activePath)
	if err != nil {
		return "", errorutils.CheckError(err)
	}
	if name := strings.TrimSpace(string(content)); name != "" {
		return name, nil
	}
	return defaultConfigName, nil
}
