package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
	"github.com/ochairo/ctkrunner/internal/domain/interfaces"
)

// Well-known result locations relative to the results root
const (
	SummaryFile             = "reportData.json"
	APIResultsDirName       = "api-ctk-results"
	ConfigurationReportFile = "baseline-ctk/Configuration-report.json"
	DeploymentReportFile    = "baseline-ctk/deployment-report.json"
	BDDResultsFile          = "cucumber-bdd/results.json"
)

// ConsolidationSources names the directories a report is assembled from
type ConsolidationSources struct {
	ResultsDir string
	PayloadDir string
}

// ResultConsolidator merges per-API and auxiliary results into one document
type ResultConsolidator struct {
	logger interfaces.Logger
}

// NewResultConsolidator creates a consolidator
func NewResultConsolidator(logger interfaces.Logger) *ResultConsolidator {
	return &ResultConsolidator{logger: interfaces.OrNoOp(logger)}
}

// Consolidate reads every well-known location. Each one is optional: a missing or
// unreadable source leaves its field empty and never stops the others.
func (c *ResultConsolidator) Consolidate(src ConsolidationSources) *entities.ConsolidatedReport {
	report := entities.NewConsolidatedReport()

	report.ResultsSummary = c.readOptional(filepath.Join(src.ResultsDir, SummaryFile))
	for _, f := range c.readDirectory(filepath.Join(src.ResultsDir, APIResultsDirName)) {
		report.APICTKResults = append(report.APICTKResults, entities.APICTKResult{File: f.name, Data: f.data})
	}
	report.ConfigurationReport = c.readOptional(filepath.Join(src.ResultsDir, filepath.FromSlash(ConfigurationReportFile)))
	report.DeploymentReport = c.readOptional(filepath.Join(src.ResultsDir, filepath.FromSlash(DeploymentReportFile)))
	report.BDDResults = c.readOptional(filepath.Join(src.ResultsDir, filepath.FromSlash(BDDResultsFile)))

	if src.PayloadDir != "" {
		for _, f := range c.readDirectory(src.PayloadDir) {
			report.BDDPayloads[f.name] = f.data
		}
	}

	return report
}

// readOptional returns the JSON content of path, or nil when it is absent or invalid
func (c *ResultConsolidator) readOptional(path string) json.RawMessage {
	data, err := readJSON(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("optional result not present", interfaces.F("path", path))
		} else {
			c.logger.Warn("skipping unreadable result", interfaces.F("path", path), interfaces.Err(err))
		}
		return nil
	}
	return data
}

type jsonFile struct {
	name string
	data json.RawMessage
}

// readDirectory reads every valid *.json file in dir, sorted by file name
func (c *ResultConsolidator) readDirectory(dir string) []jsonFile {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("skipping unreadable result directory", interfaces.F("path", dir), interfaces.Err(err))
		}
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	files := make([]jsonFile, 0, len(names))
	for _, name := range names {
		if data := c.readOptional(filepath.Join(dir, name)); data != nil {
			files = append(files, jsonFile{name: name, data: data})
		}
	}
	return files
}

func readJSON(path string) (json.RawMessage, error) {
	//nolint:gosec // G304: path is a well-known location under the results root
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON in %s", filepath.Base(path))
	}
	return json.RawMessage(data), nil
}

// WriteReport writes the consolidated document to path in a single pass
func WriteReport(path string, report *entities.ConsolidatedReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal consolidated report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	//nolint:gosec // G306: report is meant to be read by the report viewer
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write consolidated report: %w", err)
	}
	return nil
}
