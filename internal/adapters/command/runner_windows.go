//go:build windows

package command

import "os/exec"

// configureProcess keeps the default behaviour: cancellation kills the process.
func configureProcess(_ *exec.Cmd) {}
