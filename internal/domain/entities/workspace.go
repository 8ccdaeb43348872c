package entities

import "path/filepath"

// Workspace resolves every well-known location below reportGeneratorSrc.
//
//	<base>/componentCTK/
//	  resources/
//	    api-ctks/<canonical>/        extracted CTKs (cache)
//	    results/                     raw results of the current run
//	      api-ctk-results/           <canonical>.html / <canonical>.json
//	    reports/                     rendered report
//	    consolidatedResults.json
//	  src/ctkconfig.json
//	  src/features/payloads/
//	  Reports/<component>/           final per-release copy
type Workspace struct {
	Base string
}

// NewWorkspace creates a workspace rooted at base
func NewWorkspace(base string) Workspace {
	if base == "" {
		base = "."
	}
	return Workspace{Base: base}
}

// ComponentCTKDir is the componentCTK directory
func (w Workspace) ComponentCTKDir() string {
	return filepath.Join(w.Base, "componentCTK")
}

// ResourcesDir holds artifacts, results and rendered reports
func (w Workspace) ResourcesDir() string {
	return filepath.Join(w.ComponentCTKDir(), "resources")
}

// ArtifactRoot is where CTKs are extracted
func (w Workspace) ArtifactRoot() string {
	return filepath.Join(w.ResourcesDir(), "api-ctks")
}

// ArtifactDir is the canonical directory of one CTK
func (w Workspace) ArtifactDir(canonicalName string) string {
	return filepath.Join(w.ArtifactRoot(), canonicalName)
}

// ResultsDir is the results area of the current run
func (w Workspace) ResultsDir() string {
	return filepath.Join(w.ResourcesDir(), "results")
}

// APIResultsDir holds the relocated per-artifact result pairs
func (w Workspace) APIResultsDir() string {
	return filepath.Join(w.ResultsDir(), "api-ctk-results")
}

// RenderedReportsDir is filled by the report renderer
func (w Workspace) RenderedReportsDir() string {
	return filepath.Join(w.ResourcesDir(), "reports")
}

// ConsolidatedReportPath is where the consolidated document is written
func (w Workspace) ConsolidatedReportPath() string {
	return filepath.Join(w.ResourcesDir(), "consolidatedResults.json")
}

// ManifestPath is where the deployment manifest of a release is stored
func (w Workspace) ManifestPath(releaseName string) string {
	return filepath.Join(w.ResourcesDir(), "component-"+releaseName+".yaml")
}

// SourceDir is the report generator source directory
func (w Workspace) SourceDir() string {
	return filepath.Join(w.ComponentCTKDir(), "src")
}

// CTKConfigPath is the generated report generator configuration
func (w Workspace) CTKConfigPath() string {
	return filepath.Join(w.SourceDir(), "ctkconfig.json")
}

// PayloadDir holds the BDD payload files of the component under test
func (w Workspace) PayloadDir() string {
	return filepath.Join(w.SourceDir(), "features", "payloads")
}

// FinalReportDir is the per-component copy of reports and results
func (w Workspace) FinalReportDir(componentName string) string {
	return filepath.Join(w.ComponentCTKDir(), "Reports", componentName)
}

// StandardComponentsDir is the default location of standard component specifications
func (w Workspace) StandardComponentsDir() string {
	return filepath.Join(w.ResourcesDir(), "standard-components")
}
