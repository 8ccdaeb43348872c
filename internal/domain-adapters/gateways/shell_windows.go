//go:build windows

package gateways

// shellCommand wraps a script for cmd.exe
func shellCommand(script string) (string, []string) {
	return "cmd", []string{"/C", script}
}
