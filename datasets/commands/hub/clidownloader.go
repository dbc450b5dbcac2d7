package hub

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jfrog/jfrog-client-go/utils/errorutils"
	"github.com/jfrog/jfrog-client-go/utils/log"
	"golang.org/x/mod/semver"
)

const (
	// huggingface_hub no longer supports older interpreters.
	minPythonVersion = "v3.8.0"

	hubCacheDirName   = ".hf-cache"
	hubCliModule      = "huggingface_hub.commands.huggingface_cli"
	hubPythonPackage  = "huggingface_hub"
	hfTransferPackage = "hf_transfer"

	HfEndpointEnv       = "HF_ENDPOINT"
	hfHubCacheEnv       = "HF_HUB_CACHE"
	hfEnableTransferEnv = "HF_HUB_ENABLE_HF_TRANSFER"
)

var pythonVersionPattern = regexp.MustCompile(`^(\d+)\.(\d+)(?:\.(\d+))?`)

// CliDownloader delegates downloads to the Hugging Face CLI, falling back to the
// huggingface_hub Python module when no CLI executable is installed.
type CliDownloader struct {
	endpoint         string
	token            string
	enableHfTransfer bool
}

func NewCliDownloader() *CliDownloader {
	return &CliDownloader{}
}

func (cd *CliDownloader) SetEndpoint(endpoint string) *CliDownloader {
	cd.endpoint = endpoint
	return cd
}

func (cd *CliDownloader) SetToken(token string) *CliDownloader {
	cd.token = token
	return cd
}

// SetEnableHfTransfer turns on the Rust based hf_transfer accelerator, installing it when missing.
func (cd *CliDownloader) SetEnableHfTransfer(enable bool) *CliDownloader {
	cd.enableHfTransfer = enable
	return cd
}

func (cd *CliDownloader) Download(datasetId DatasetId, revision string, files []RepoFile, destDir string) ([]LocalFile, error) {
	if len(files) == 0 {
		return nil, nil
	}
	cliPath, prefixArgs, err := GetHuggingFaceCliPath()
	if err != nil {
		return nil, err
	}
	if cd.enableHfTransfer {
		pythonPath, err := GetPythonPath()
		if err != nil {
			return nil, err
		}
		if err = EnsurePythonPackage(pythonPath, hfTransferPackage); err != nil {
			return nil, err
		}
	}

	paths := make([]string, 0, len(files))
	for _, file := range files {
		paths = append(paths, file.Path)
	}
	cmdArgs := BuildCliDownloadArgs(prefixArgs, datasetId, revision, paths, destDir)
	log.Debug("Executing:", cliPath, strings.Join(cmdArgs, " "))

	cmd := exec.Command(cliPath, cmdArgs...)
	cmd.Env = append(os.Environ(), cd.buildEnv(destDir)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err = cmd.Run(); err != nil {
		return nil, errorutils.CheckErrorf("huggingface-cli download failed: %w", err)
	}

	results := make([]LocalFile, 0, len(files))
	for _, file := range files {
		localPath, err := JoinRepoPath(destDir, file.Path)
		if err != nil {
			return nil, err
		}
		localFile := LocalFile{Remote: file, LocalPath: localPath}
		if err = localFile.setChecksums(localPath); err != nil {
			return nil, errorutils.CheckErrorf("huggingface-cli reported success but %s is missing: %w", file.Path, err)
		}
		results = append(results, localFile)
	}
	log.Info("Downloaded", len(results), "files of", datasetId.String())
	return results, nil
}

func (cd *CliDownloader) buildEnv(destDir string) []string {
	env := []string{hfHubCacheEnv + "=" + filepath.Join(destDir, hubCacheDirName)}
	if cd.endpoint != "" {
		env = append(env, HfEndpointEnv+"="+cd.endpoint)
	}
	if cd.token != "" {
		env = append(env, HfTokenEnv+"="+cd.token)
	}
	if cd.enableHfTransfer {
		env = append(env, hfEnableTransferEnv+"=1")
	}
	return env
}

// BuildCliDownloadArgs builds the arguments of `hf download` for a dataset repository.
func BuildCliDownloadArgs(prefixArgs []string, datasetId DatasetId, revision string, paths []string, destDir string) []string {
	var cmdArgs []string
	cmdArgs = append(cmdArgs, prefixArgs...)
	cmdArgs = append(cmdArgs, "download", datasetId.String())
	cmdArgs = append(cmdArgs, paths...)
	cmdArgs = append(cmdArgs, "--repo-type", "dataset")
	if revision != "" {
		cmdArgs = append(cmdArgs, "--revision", revision)
	}
	return append(cmdArgs, "--local-dir", destDir)
}

// GetHuggingFaceCliPath finds the huggingface-cli or hf command in PATH.
// Returns the command path and any prefix args needed (for Python module mode).
func GetHuggingFaceCliPath() (cmdPath string, prefixArgs []string, err error) {
	for _, executable := range []string{"huggingface-cli", "hf"} {
		if cmdPath, err = exec.LookPath(executable); err == nil {
			log.Debug("Found", executable+":", cmdPath)
			return cmdPath, nil, nil
		}
	}
	pythonPath, err := GetPythonPath()
	if err != nil {
		return "", nil, errorutils.CheckErrorf("neither huggingface-cli nor hf found in PATH, and Python is not available: %w", err)
	}
	if err = EnsurePythonPackage(pythonPath, hubPythonPackage); err != nil {
		return "", nil, err
	}
	log.Debug("Using Python module mode:", pythonPath, "-m", hubCliModule)
	return pythonPath, []string{"-m", hubCliModule}, nil
}

// GetPythonPath finds a Python interpreter recent enough for huggingface_hub.
// It first tries "python3", then falls back to "python".
func GetPythonPath() (string, error) {
	var lastErr error
	for _, executable := range []string{"python3", "python"} {
		pythonPath, err := exec.LookPath(executable)
		if err != nil {
			continue
		}
		log.Debug("Found Python interpreter:", pythonPath)
		if lastErr = verifyPythonVersion(pythonPath); lastErr == nil {
			return pythonPath, nil
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", errorutils.CheckErrorf("neither python3 nor python found in PATH. Please ensure Python 3 is installed and available in your PATH")
}

func verifyPythonVersion(pythonPath string) error {
	output, err := exec.Command(pythonPath, "-c", "import platform; print(platform.python_version())").Output()
	if err != nil {
		return errorutils.CheckErrorf("failed to get Python version: %w", err)
	}
	version, err := ToSemver(strings.TrimSpace(string(output)))
	if err != nil {
		return err
	}
	if semver.Compare(version, minPythonVersion) < 0 {
		return errorutils.CheckErrorf("Python %s found, but %s or higher is required", version, minPythonVersion)
	}
	log.Debug("Python", version, "verified (minimum required:", minPythonVersion+")")
	return nil
}

// ToSemver converts a Python version string such as "3.12.0rc1" to "v3.12.0".
func ToSemver(pythonVersion string) (string, error) {
	match := pythonVersionPattern.FindStringSubmatch(pythonVersion)
	if match == nil {
		return "", errorutils.CheckErrorf("failed to parse Python version '%s'", pythonVersion)
	}
	patch := match[3]
	if patch == "" {
		patch = "0"
	}
	return "v" + match[1] + "." + match[2] + "." + patch, nil
}

// EnsurePythonPackage installs a Python package for the current user when it cannot be imported.
func EnsurePythonPackage(pythonPath, pkg string) error {
	if err := exec.Command(pythonPath, "-c", "import "+pkg).Run(); err == nil {
		log.Debug(pkg, "is already installed")
		return nil
	}
	log.Info("Installing", pkg, "...")
	// --user first for externally-managed environments (PEP 668), then --break-system-packages.
	for _, installFlag := range []string{"--user", "--break-system-packages"} {
		installCmd := exec.Command(pythonPath, "-m", "pip", "install", pkg, installFlag, "--quiet")
		installCmd.Stdout = os.Stdout
		installCmd.Stderr = os.Stderr
		if err := installCmd.Run(); err == nil {
			log.Info(pkg, "installed successfully")
			return nil
		}
		log.Debug("pip install", pkg, installFlag, "failed")
	}
	return errorutils.CheckErrorf("failed to install %s. Please install manually using: pip install %s --user", pkg, pkg)
}

var (
	_ Downloader = (*CliDownloader)(nil)
	_ Downloader = (*HttpDownloader)(nil)
)
