package commonutils

import (
	"errors"
	"strconv"
	"sync"

	"github.com/jfrog/gofrog/parallel"
	"github.com/jfrog/jfrog-cli-core/v2/utils/coreutils"
	"golang.org/x/exp/slices"
)

func IsFlagPositiveNumber(flag string) bool {
	num, err := strconv.Atoi(flag)
	if err != nil {
		return false
	}
	return num > 0
}

// GetExitCode maps the error returned by a command to the process exit code.
// A wrapped CliError carries the code of the failing external process.
func GetExitCode(err error) int {
	if err == nil {
		return coreutils.ExitCodeNoError.Code
	}
	var cliErr coreutils.CliError
	if errors.As(err, &cliErr) && cliErr.Code > 0 {
		return cliErr.Code
	}
	return coreutils.ExitCodeError.Code
}

// RunTasks executes task for every index in [0, count) on at most threads workers.
// With a single thread the tasks run in order on the calling goroutine and stop at the first error.
// Otherwise the first error reported by any task is returned once all queued tasks are done.
func RunTasks(count, threads int, task func(index int) error) error {
	if threads <= 1 || count <= 1 {
		for i := 0; i < count; i++ {
			if err := task(i); err != nil {
				return err
			}
		}
		return nil
	}
	if threads > count {
		threads = count
	}
	var (
		firstErr error
		errMutex sync.Mutex
	)
	onError := func(err error) {
		errMutex.Lock()
		defer errMutex.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}
	runner := parallel.NewRunner(threads, uint(count), true)
	go func() {
		defer runner.Done()
		for i := 0; i < count; i++ {
			index := i
			_, _ = runner.AddTaskWithError(func(int) error {
				return task(index)
			}, onError)
		}
	}()
	runner.Run()
	return firstErr
}

// SplitPassThroughArgs splits args at the first occurrence of marker.
// Everything after the marker is returned untouched in passThrough; the marker itself is dropped.
func SplitPassThroughArgs(args []string, marker string) (cliArgs, passThrough []string) {
	for i, arg := range args {
		if arg == marker {
			return args[:i], append([]string{}, args[i+1:]...)
		}
	}
	return args, nil
}

// WithDefaultCommand inserts defaultCommand after the program name when the first argument
// is neither a known command nor a help or version request.
func WithDefaultCommand(args []string, knownCommands []string, defaultCommand string) []string {
	if len(args) < 2 {
		return args
	}
	first := args[1]
	if slices.Contains(knownCommands, first) || slices.Contains(helpAndVersionArgs, first) {
		return args
	}
	withDefault := make([]string, 0, len(args)+1)
	withDefault = append(withDefault, args[0], defaultCommand)
	return append(withDefault, args[1:]...)
}

var helpAndVersionArgs = []string{"help", "h", "-h", "--help", "-v", "--version"}
