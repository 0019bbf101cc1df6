//go:build windows

package infra

import (
	"os"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/devin-dcc/devin/internal/domain"
)

var forwardedSignals = []os.Signal{os.Interrupt}

var terminateSignal os.Signal = os.Kill

// signalProcess kills pid for anything but an interrupt. Console interrupts
// already reach every process attached to the console.
func signalProcess(pid int, sig os.Signal) error {
	if sig == os.Interrupt {
		return nil
	}
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil
	}
	return p.Kill()
}

func resultFromState(state *os.ProcessState) domain.LaunchResult {
	return domain.LaunchResult{ExitCode: state.ExitCode()}
}
