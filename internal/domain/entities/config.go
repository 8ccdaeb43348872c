package entities

// RunConfig is the orchestrator configuration (CHANGE_ME.json)
type RunConfig struct {
	CTKNameMapping        map[string]string
	URL                   string
	ReleaseName           string
	ComponentNamespace    string
	ComponentToRun        string
	RunExposedOptional    bool
	RunDependentOptional  bool
	RunSecurityOptional   bool
	StandardComponent     StandardComponentDownload
	CTKConfig             map[string]any
	BDDPayloads           map[string]map[string]any
	ReportGeneratorSrc    string
	StandardComponentPath string
	APIIndexPath          string
	APIIndexURL           string
}

// StandardComponentDownload locates the published standard component specifications
type StandardComponentDownload struct {
	APIBaseURL string
	RepoOwner  string
	RepoName   string
	GitBranch  string
	RepoPath   string
	GitURL     string
	SSLVerify  bool
}

// RunOptional reports whether optional APIs of a category should be exercised
func (c *RunConfig) RunOptional(category APICategory) bool {
	switch category {
	case CategoryExposed:
		return c.RunExposedOptional
	case CategoryDependent:
		return c.RunDependentOptional
	case CategorySecurity:
		return c.RunSecurityOptional
	default:
		return false
	}
}
