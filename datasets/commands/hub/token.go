package hub

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jfrog/jfrog-client-go/utils/io/fileutils"
	"github.com/jfrog/jfrog-client-go/utils/log"
)

const (
	HfTokenEnv = "HF_TOKEN"
	HfHomeEnv  = "HF_HOME"
)

// ResolveToken returns the access token used against the hub.
// An explicit token wins, then HF_TOKEN, then the token file written by `hf auth login`.
// An empty result means anonymous access.
func ResolveToken(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if token := os.Getenv(HfTokenEnv); token != "" {
		return token
	}
	tokenPath := getTokenFilePath()
	if tokenPath == "" {
		return ""
	}
	exists, err := fileutils.IsFileExists(tokenPath, false)
	if err != nil || !exists {
		return ""
	}
	content, err := os.ReadFile(tokenPath)
	if err != nil {
		log.Debug("Failed reading the hub token file", tokenPath+":", err.Error())
		return ""
	}
	log.Debug("Using hub token from", tokenPath)
	return strings.TrimSpace(string(content))
}

func getTokenFilePath() string {
	if hfHome := os.Getenv(HfHomeEnv); hfHome != "" {
		return filepath.Join(hfHome, "token")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".cache", "huggingface", "token")
}
