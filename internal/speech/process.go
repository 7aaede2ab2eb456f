package speech

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

const stopGrace = 1200 * time.Millisecond

// process wraps one external command and stops it at most once.
type process struct {
	cmd    *exec.Cmd
	stderr *bytes.Buffer

	done    chan struct{}
	exitErr error

	stopOnce sync.Once
}

func startProcess(cmd *exec.Cmd) (*process, error) {
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &process{cmd: cmd, stderr: &stderr, done: make(chan struct{})}
	go func() {
		p.exitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// wait blocks until the command exits on its own.
func (p *process) wait() error {
	<-p.done
	return p.withStderr(p.exitErr)
}

// stop interrupts the command, killing it if it does not exit within the grace period.
func (p *process) stop() error {
	p.stopOnce.Do(func() {
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Signal(os.Interrupt)
		}

		select {
		case <-p.done:
		case <-time.After(stopGrace):
			if p.cmd.Process != nil {
				_ = p.cmd.Process.Kill()
			}
			<-p.done
		}
	})
	return normalizeStopErr(p.exitErr)
}

func (p *process) withStderr(err error) error {
	if err == nil {
		return nil
	}
	if detail := trimOutput(p.stderr.String()); detail != "" {
		return errors.New(err.Error() + ": " + detail)
	}
	return err
}

// normalizeStopErr drops the exit status produced by our own interrupt.
func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimOutput(input string) string {
	if input == "" {
		return input
	}
	return string(bytes.TrimSpace([]byte(input)))
}

// expandArgs substitutes {name} placeholders in every argument.
func expandArgs(args []string, values map[string]string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		for key, value := range values {
			arg = strings.ReplaceAll(arg, "{"+key+"}", value)
		}
		out = append(out, arg)
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
