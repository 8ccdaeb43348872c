package entities

import "encoding/json"

// APICTKResult is one per-API result file in the consolidated report
type APICTKResult struct {
	File string          `json:"file"`
	Data json.RawMessage `json:"data"`
}

// ConsolidatedReport merges every CTK and auxiliary result of one run
type ConsolidatedReport struct {
	ResultsSummary      json.RawMessage            `json:"resultsSummary"`
	APICTKResults       []APICTKResult             `json:"apiCtkResults"`
	ConfigurationReport json.RawMessage            `json:"configurationReport"`
	DeploymentReport    json.RawMessage            `json:"deploymentReport"`
	BDDResults          json.RawMessage            `json:"bddResults"`
	BDDPayloads         map[string]json.RawMessage `json:"bddPayloads"`
}

// NewConsolidatedReport returns a report with every field at its empty default
func NewConsolidatedReport() *ConsolidatedReport {
	return &ConsolidatedReport{
		APICTKResults: make([]APICTKResult, 0),
		BDDPayloads:   make(map[string]json.RawMessage),
	}
}
