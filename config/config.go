package config

import (
	"path/filepath"

	"github.com/jfrog/jfrog-cli-core/v2/utils/coreutils"
	"github.com/jfrog/jfrog-client-go/utils/errorutils"
	"github.com/jfrog/jfrog-client-go/utils/io/fileutils"
	"github.com/jfrog/jfrog-client-go/utils/log"
	"github.com/spf13/viper"
)

const (
	jfrogDir         = ".jfrog"
	datasetsFileYml  = "hf-datasets.yml"
	datasetsFileYaml = "hf-datasets.yaml"

	keyHubEndpoint     = "hub.endpoint"
	keyHubToken        = "hub.token"
	keyHubBackend      = "hub.backend"
	keyHttpRetries     = "http.retries"
	keyHttpRetryWaitMs = "http.retryWaitMs"
	keyThreads         = "threads"
	keyOutputDir       = "output.dir"
	keyTransferCommand = "transfer.command"
	keyLogLevel        = "log.level"

	envHubEndpoint     = "HF_ENDPOINT"
	envHubToken        = "HF_TOKEN"
	envHubBackend      = "HF_DATASETS_BACKEND"
	envHttpRetries     = "HF_DATASETS_HTTP_RETRIES"
	envHttpRetryWaitMs = "HF_DATASETS_HTTP_RETRY_WAIT_MS"
	envThreads         = "HF_DATASETS_THREADS"
	envOutputDir       = "HF_DATASETS_OUTPUT_DIR"
	envTransferCommand = "HF_DATASETS_TRANSFER_COMMAND"
	envLogLevel        = "JFROG_CLI_LOG_LEVEL"

	DefaultEndpoint        = "https://huggingface.co"
	DefaultBackend         = "http"
	DefaultThreads         = 1
	DefaultRetryWaitMs     = 1000
	DefaultTransferCommand = "gcloud"
)

type HubConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Token    string `mapstructure:"token"`
	Backend  string `mapstructure:"backend"`
}

type HttpConfig struct {
	Retries     int `mapstructure:"retries"`
	RetryWaitMs int `mapstructure:"retryWaitMs"`
}

type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

type TransferConfig struct {
	Command string `mapstructure:"command"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DatasetsConfig holds the settings flags fall back to.
type DatasetsConfig struct {
	Hub      HubConfig      `mapstructure:"hub"`
	Http     HttpConfig     `mapstructure:"http"`
	Threads  int            `mapstructure:"threads"`
	Output   OutputConfig   `mapstructure:"output"`
	Transfer TransferConfig `mapstructure:"transfer"`
	Log      LogConfig      `mapstructure:"log"`
	// Path of the file the settings were read from, empty when only env and defaults apply.
	Path string `mapstructure:"-"`
}

// LoadConfig reads the first config file found, looking at the upstream .jfrog directory and then
// the JFrog home directory. Environment variables override file values.
func LoadConfig() (*DatasetsConfig, error) {
	for _, path := range candidatePaths() {
		exists, err := fileutils.IsFileExists(path, false)
		if err != nil {
			return nil, err
		}
		if exists {
			return readConfigWithEnv(path)
		}
	}
	return readConfigWithEnv("")
}

func candidatePaths() []string {
	var paths []string
	if root, exists, _ := fileutils.FindUpstream(jfrogDir, fileutils.Dir); exists {
		paths = append(paths, filepath.Join(root, jfrogDir, datasetsFileYml), filepath.Join(root, jfrogDir, datasetsFileYaml))
	}
	if home, err := coreutils.GetJfrogHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, datasetsFileYml), filepath.Join(home, datasetsFileYaml))
	}
	return paths
}

func readConfigWithEnv(path string) (*DatasetsConfig, error) {
	v := viper.New()

	v.SetDefault(keyHubEndpoint, DefaultEndpoint)
	v.SetDefault(keyHubBackend, DefaultBackend)
	v.SetDefault(keyHttpRetryWaitMs, DefaultRetryWaitMs)
	v.SetDefault(keyThreads, DefaultThreads)
	v.SetDefault(keyTransferCommand, DefaultTransferCommand)

	_ = v.BindEnv(keyHubEndpoint, envHubEndpoint)
	_ = v.BindEnv(keyHubToken, envHubToken)
	_ = v.BindEnv(keyHubBackend, envHubBackend)
	_ = v.BindEnv(keyHttpRetries, envHttpRetries)
	_ = v.BindEnv(keyHttpRetryWaitMs, envHttpRetryWaitMs)
	_ = v.BindEnv(keyThreads, envThreads)
	_ = v.BindEnv(keyOutputDir, envOutputDir)
	_ = v.BindEnv(keyTransferCommand, envTransferCommand)
	_ = v.BindEnv(keyLogLevel, envLogLevel)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errorutils.CheckErrorf("failed to read %s: %w", path, err)
		}
		log.Debug("Loaded configuration from", path)
	}

	cfg := new(DatasetsConfig)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errorutils.CheckError(err)
	}
	cfg.Path = path
	return cfg, nil
}
