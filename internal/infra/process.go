// Package infra implements infrastructure concerns (discovery, process, filesystem, registry).
package infra

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"os/signal"

	"go.uber.org/zap"

	"github.com/devin-dcc/devin/internal/domain"
)

// ProcessLauncherImpl implements domain.ProcessLauncher with os/exec.
// The child inherits stdio; signals received by the launcher are forwarded
// to the child and its descendants until it exits.
type ProcessLauncherImpl struct {
	tree   domain.ProcessTree
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	notify func(c chan<- os.Signal, sig ...os.Signal)
	stop   func(c chan<- os.Signal)
	logger *zap.Logger
}

// LauncherOption configures a ProcessLauncherImpl.
type LauncherOption func(*ProcessLauncherImpl)

// WithStdio replaces the inherited standard streams.
func WithStdio(in io.Reader, out, errOut io.Writer) LauncherOption {
	return func(l *ProcessLauncherImpl) {
		l.stdin, l.stdout, l.stderr = in, out, errOut
	}
}

// WithSignalSource replaces os/signal registration (for testing).
func WithSignalSource(notify func(c chan<- os.Signal, sig ...os.Signal), stop func(c chan<- os.Signal)) LauncherOption {
	return func(l *ProcessLauncherImpl) {
		l.notify, l.stop = notify, stop
	}
}

// NewProcessLauncher creates a launcher that forwards signals through tree.
func NewProcessLauncher(tree domain.ProcessTree, logger *zap.Logger, opts ...LauncherOption) *ProcessLauncherImpl {
	l := &ProcessLauncherImpl{
		tree:   tree,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		notify: signal.Notify,
		stop:   signal.Stop,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch starts the child and blocks until it exits. There is no timeout.
// Cancelling ctx terminates the child and still waits for it.
func (l *ProcessLauncherImpl) Launch(ctx context.Context, lc domain.LaunchCommand) (domain.LaunchResult, error) {
	cmd := exec.Command(lc.ExecutablePath, lc.Args...)
	if lc.Environment != nil {
		cmd.Env = lc.Environment.Environ()
	}
	cmd.Dir = lc.WorkingDirectory
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	signals := make(chan os.Signal, 4)
	l.notify(signals, forwardedSignals...)
	defer l.stop(signals)

	if err := cmd.Start(); err != nil {
		return domain.LaunchResult{}, &domain.SpawnFailedError{Path: lc.ExecutablePath, Err: err}
	}
	pid := cmd.Process.Pid

	l.logger.Info("launched",
		zap.String("executable", lc.ExecutablePath),
		zap.Strings("args", lc.Args),
		zap.String("dir", lc.WorkingDirectory),
		zap.Int("pid", pid))

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var signalled []int
	ctxDone := ctx.Done()
	for {
		select {
		case err := <-done:
			var exitErr *exec.ExitError
			if err != nil && !errors.As(err, &exitErr) {
				return domain.LaunchResult{}, err
			}
			result := resultFromState(cmd.ProcessState)
			l.logger.Info("child exited",
				zap.Int("pid", pid),
				zap.Int("exit_code", result.ExitCode),
				zap.String("signal", result.Signal))
			if left := l.survivors(signalled); len(left) > 0 {
				l.logger.Warn("processes started by the child are still running",
					zap.Int("pid", pid),
					zap.Ints("survivors", left))
			}
			return result, nil

		case sig := <-signals:
			signalled = append(signalled, l.forward(pid, sig)...)

		case <-ctxDone:
			ctxDone = nil
			l.logger.Debug("context cancelled, terminating child", zap.Int("pid", pid))
			signalled = append(signalled, l.forward(pid, terminateSignal)...)
		}
	}
}

// forward signals the child and then every descendant recorded before the
// child was signalled, since they are reparented once it exits. It returns
// the descendants it signalled.
func (l *ProcessLauncherImpl) forward(pid int, sig os.Signal) []int {
	descendants, err := l.tree.Descendants(pid)
	if err != nil {
		l.logger.Debug("list descendants", zap.Int("pid", pid), zap.Error(err))
	}

	l.logger.Debug("forwarding signal",
		zap.String("signal", sig.String()),
		zap.Int("pid", pid),
		zap.Ints("descendants", descendants))

	if err := l.tree.Signal(pid, sig); err != nil {
		l.logger.Warn("signal child", zap.Int("pid", pid), zap.Error(err))
	}
	for _, d := range descendants {
		if err := l.tree.Signal(d, sig); err != nil {
			l.logger.Debug("signal descendant", zap.Int("pid", d), zap.Error(err))
		}
	}
	return descendants
}

// survivors returns the signalled descendants that outlived the child, once each.
func (l *ProcessLauncherImpl) survivors(signalled []int) []int {
	var left []int
	seen := make(map[int]bool, len(signalled))
	for _, pid := range signalled {
		if seen[pid] {
			continue
		}
		seen[pid] = true
		if l.tree.IsRunning(pid) {
			left = append(left, pid)
		}
	}
	return left
}

// Ensure ProcessLauncherImpl implements domain.ProcessLauncher.
var _ domain.ProcessLauncher = (*ProcessLauncherImpl)(nil)
