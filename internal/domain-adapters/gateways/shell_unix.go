//go:build !windows

package gateways

// shellCommand wraps a script for /bin/sh
func shellCommand(script string) (string, []string) {
	return "/bin/sh", []string{"-c", script}
}
