//go:build unix

package infra

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/devin-dcc/devin/internal/domain"
)

// forwardedSignals are relayed from the launcher to the child.
var forwardedSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}

// terminateSignal is sent to the child when the launch context is cancelled.
var terminateSignal os.Signal = syscall.SIGTERM

func signalProcess(pid int, sig os.Signal) error {
	s, ok := sig.(syscall.Signal)
	if !ok {
		return fmt.Errorf("unsupported signal %v", sig)
	}
	err := unix.Kill(pid, s)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

// resultFromState converts a finished process state. Signalled children
// report 128+signal like a shell does.
func resultFromState(state *os.ProcessState) domain.LaunchResult {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return domain.LaunchResult{
			ExitCode:  128 + int(ws.Signal()),
			Signalled: true,
			Signal:    unix.SignalName(ws.Signal()),
		}
	}
	return domain.LaunchResult{ExitCode: state.ExitCode()}
}
