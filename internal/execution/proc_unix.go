//go:build unix

package execution

import (
	"os"
	"os/exec"
	"syscall"
)

// isolate starts the child as the leader of its own process group
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killTree kills the whole process group led by p, so grandchildren such as
// the binary built by go test die with it
func killTree(p *os.Process) error {
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil {
		return p.Kill()
	}
	return nil
}
