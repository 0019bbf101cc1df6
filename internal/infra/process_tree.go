package infra

import (
	"os"
	"sort"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/devin-dcc/devin/internal/domain"
)

// ProcessTreeImpl implements domain.ProcessTree using gopsutil.
type ProcessTreeImpl struct{}

// NewProcessTree creates a new process tree inspector.
func NewProcessTree() domain.ProcessTree {
	return &ProcessTreeImpl{}
}

// Descendants returns PIDs of all processes below pid, depth first.
// The tree is built from parent PIDs so that it works without pgrep.
func (pt *ProcessTreeImpl) Descendants(pid int) ([]int, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	children := make(map[int32][]int32)
	for _, p := range procs {
		ppid, err := p.Ppid()
		if err != nil {
			continue // Process may have exited
		}
		if ppid != p.Pid {
			children[ppid] = append(children[ppid], p.Pid)
		}
	}
	for _, c := range children {
		sort.Slice(c, func(i, j int) bool { return c[i] < c[j] })
	}

	var out []int
	seen := map[int32]bool{int32(pid): true}
	var walk func(int32)
	walk = func(parent int32) {
		for _, c := range children[parent] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, int(c))
			walk(c)
		}
	}
	walk(int32(pid))
	return out, nil
}

// Signal delivers sig to pid. A process that already exited is not an error.
func (pt *ProcessTreeImpl) Signal(pid int, sig os.Signal) error {
	return signalProcess(pid, sig)
}

// IsRunning reports whether pid is still in the process table.
func (pt *ProcessTreeImpl) IsRunning(pid int) bool {
	ok, err := process.PidExists(int32(pid))
	return err == nil && ok
}

// Ensure ProcessTreeImpl implements domain.ProcessTree.
var _ domain.ProcessTree = (*ProcessTreeImpl)(nil)
