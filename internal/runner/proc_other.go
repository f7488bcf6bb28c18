//go:build !unix

package runner

import (
	"os"
	"os/exec"
)

func configureSandboxProcess(cmd *exec.Cmd) {}

func peakMemoryKB(state *os.ProcessState) int64 { return 0 }
