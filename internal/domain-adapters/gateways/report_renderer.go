package gateways

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// NPMReportRenderer runs the report generator with `npm install` and `npm start`
type NPMReportRenderer struct {
	executor *ScriptExecutor
	output   io.Writer
	steps    []string
}

// NewNPMReportRenderer creates a renderer; output receives the npm console output
func NewNPMReportRenderer(executor *ScriptExecutor, output io.Writer) *NPMReportRenderer {
	return &NPMReportRenderer{
		executor: executor,
		output:   output,
		steps:    []string{"npm install", "npm start"},
	}
}

// Render runs every step in sourceDir, stopping at the first failure
func (r *NPMReportRenderer) Render(ctx context.Context, sourceDir string) error {
	for _, step := range r.steps {
		result := r.executor.ExecuteShell(ctx, step, ExecuteConfig{
			WorkingDir:  sourceDir,
			Timeout:     30 * time.Minute,
			Description: step,
			Tee:         r.output,
		})
		if !result.Success {
			return fmt.Errorf("%s failed (exit %d): %s", step, result.ExitCode, strings.TrimSpace(result.Stderr))
		}
	}
	return nil
}
