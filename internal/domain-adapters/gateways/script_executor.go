package gateways

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// ScriptExecutor runs subprocesses and captures their outcome
type ScriptExecutor struct {
	defaultTimeout time.Duration
}

// NewScriptExecutor creates a new script executor
func NewScriptExecutor() *ScriptExecutor {
	return &ScriptExecutor{
		defaultTimeout: 60 * time.Minute,
	}
}

// ExecuteConfig describes one subprocess invocation
type ExecuteConfig struct {
	Command     string
	Args        []string
	WorkingDir  string
	Env         map[string]string
	Timeout     time.Duration
	Description string
	// Tee, when set, also receives stdout and stderr as they are produced
	Tee io.Writer
}

// ExecuteResult contains the result of a subprocess execution
type ExecuteResult struct {
	Success  bool
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Execute runs a command. A non-zero exit is reported in the result, not as a
// panic or a Go error; ExitCode is -1 when the process could not run to completion.
func (se *ScriptExecutor) Execute(ctx context.Context, config ExecuteConfig) *ExecuteResult {
	startTime := time.Now()
	result := &ExecuteResult{}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = se.defaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	//nolint:gosec // G204: CTK entry scripts and collaborator tools are trusted by configuration
	cmd := exec.CommandContext(execCtx, config.Command, config.Args...)
	if config.WorkingDir != "" {
		cmd.Dir = config.WorkingDir
	}

	env := os.Environ()
	for key, value := range config.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	if config.Tee != nil {
		cmd.Stdout = io.MultiWriter(&stdout, config.Tee)
		cmd.Stderr = io.MultiWriter(&stderr, config.Tee)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	err := cmd.Run()
	result.Duration = time.Since(startTime)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	if err != nil {
		result.Error = err
		var exitErr *exec.ExitError
		//nolint:gocritic // ifElseChain: checking different error types, not suitable for switch
		if execCtx.Err() == context.DeadlineExceeded {
			result.Error = fmt.Errorf("%s timed out after %v", describe(config), timeout)
			result.ExitCode = -1
		} else if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		return result
	}

	result.Success = true
	result.ExitCode = 0
	return result
}

// ExecuteShell runs a script through the platform shell
func (se *ScriptExecutor) ExecuteShell(ctx context.Context, script string, config ExecuteConfig) *ExecuteResult {
	config.Command, config.Args = shellCommand(script)
	return se.Execute(ctx, config)
}

func describe(config ExecuteConfig) string {
	if config.Description != "" {
		return config.Description
	}
	return config.Command
}
