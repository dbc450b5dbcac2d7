package extract

import (
	"os/exec"
	"strings"

	"github.com/jfrog/jfrog-client-go/utils/errorutils"
	"github.com/jfrog/jfrog-client-go/utils/log"
)

const tarExecutable = "tar"

// ExtractWithSystemTar runs `tar -xf <archive> -C <dir>`.
func ExtractWithSystemTar(archivePath, targetDir string) error {
	tarPath, err := exec.LookPath(tarExecutable)
	if err != nil {
		return errorutils.CheckErrorf("%s was not found in PATH: %w", tarExecutable, err)
	}
	args := []string{"-xf", archivePath, "-C", targetDir}
	log.Debug("Executing:", tarPath, strings.Join(args, " "))
	output, err := exec.Command(tarPath, args...).CombinedOutput()
	if err != nil {
		return errorutils.CheckErrorf("%s %s failed: %w: %s", tarExecutable, strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}
