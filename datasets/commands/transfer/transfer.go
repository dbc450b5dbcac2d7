package transfer

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	gofrogcmd "github.com/jfrog/gofrog/io"
	"github.com/jfrog/jfrog-cli-core/v2/utils/coreutils"
	"github.com/jfrog/jfrog-client-go/utils/errorutils"
	"github.com/jfrog/jfrog-client-go/utils/log"
)

const DefaultExecutable = "gcloud"

var copyPrefix = []string{"storage", "cp", "-r"}

// StorageCopyCommand uploads a local directory with `<executable> storage cp -r <dir> <args...>`.
// The pass-through args are appended untouched.
type StorageCopyCommand struct {
	executable string
	sourceDir  string
	args       []string
	cmd        *exec.Cmd
}

func NewStorageCopyCommand() *StorageCopyCommand {
	return &StorageCopyCommand{executable: DefaultExecutable}
}

func (sc *StorageCopyCommand) SetExecutable(executable string) *StorageCopyCommand {
	if executable != "" {
		sc.executable = executable
	}
	return sc
}

func (sc *StorageCopyCommand) SetSourceDir(sourceDir string) *StorageCopyCommand {
	sc.sourceDir = sourceDir
	return sc
}

func (sc *StorageCopyCommand) SetArgs(args []string) *StorageCopyCommand {
	sc.args = args
	return sc
}

func (sc *StorageCopyCommand) Executable() string {
	return sc.executable
}

// BuildArgs returns the full argument list passed to the executable.
func (sc *StorageCopyCommand) BuildArgs() []string {
	args := make([]string, 0, len(copyPrefix)+1+len(sc.args))
	args = append(args, copyPrefix...)
	args = append(args, sc.sourceDir)
	return append(args, sc.args...)
}

// CommandLine is the command as it is logged and reported.
func (sc *StorageCopyCommand) CommandLine() string {
	return strings.Join(append([]string{sc.executable}, sc.BuildArgs()...), " ")
}

// Run executes the transfer. A non-zero exit is returned as a CliError holding the process exit code.
func (sc *StorageCopyCommand) Run() error {
	executablePath, err := exec.LookPath(sc.executable)
	if err != nil {
		return errorutils.CheckErrorf("%s was not found in PATH. Please install the Google Cloud CLI or set transfer.command: %w", sc.executable, err)
	}
	sc.logActiveConfiguration()
	log.Info("Running:", sc.CommandLine())
	sc.cmd = exec.Command(executablePath, sc.BuildArgs()...)
	if err = gofrogcmd.RunCmd(sc); err != nil {
		if exitCode := sc.ExitCode(); exitCode > 0 {
			return coreutils.CliError{
				ExitCode: coreutils.ExitCode{Code: exitCode},
				ErrorMsg: fmt.Sprintf("%s exited with code %d", sc.executable, exitCode),
			}
		}
		return errorutils.CheckErrorf("failed running %s: %w", sc.executable, err)
	}
	log.Info("Transfer completed")
	return nil
}

// ExitCode of the last run, -1 when the process did not run to completion.
func (sc *StorageCopyCommand) ExitCode() int {
	if sc.cmd == nil || sc.cmd.ProcessState == nil {
		return -1
	}
	return sc.cmd.ProcessState.ExitCode()
}

func (sc *StorageCopyCommand) logActiveConfiguration() {
	gcloudConfig, err := ReadActiveConfiguration()
	if err != nil {
		log.Debug("Could not read the active gcloud configuration:", err.Error())
		return
	}
	if gcloudConfig == nil {
		log.Debug("No gcloud configuration found")
		return
	}
	log.Debug(fmt.Sprintf("gcloud configuration '%s': account=%s project=%s", gcloudConfig.Name, gcloudConfig.Account, gcloudConfig.Project))
}

func (sc *StorageCopyCommand) GetCmd() *exec.Cmd {
	if sc.cmd == nil {
		sc.cmd = exec.Command(sc.executable, sc.BuildArgs()...)
	}
	return sc.cmd
}

func (sc *StorageCopyCommand) GetEnv() map[string]string {
	return map[string]string{}
}

func (sc *StorageCopyCommand) GetStdWriter() io.WriteCloser {
	return nil
}

func (sc *StorageCopyCommand) GetErrWriter() io.WriteCloser {
	return nil
}
