// Package entities defines core domain models and data structures.
package entities

import "time"

// IndexEntry is one downloadable CTK listed in the artifact index
type IndexEntry struct {
	Name        string // Vendor artifact name with embedded version, e.g. "TMF620_v4.1.0"
	DownloadURL string
}

// ArtifactIndex lists every CTK available for download, in document order.
// Resolution is first-hit, so the order is significant.
type ArtifactIndex struct {
	Entries []IndexEntry
}

// Lookup returns the entry with the given name
func (i *ArtifactIndex) Lookup(name string) (IndexEntry, bool) {
	if i == nil {
		return IndexEntry{}, false
	}
	for _, e := range i.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return IndexEntry{}, false
}

// Len returns the number of entries in the index
func (i *ArtifactIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.Entries)
}

// Artifact is a resolved, extracted and normalized CTK on disk
type Artifact struct {
	Identifier    string // Logical API identifier, e.g. "TMF620"
	CanonicalName string // <prefix>_v<major>, e.g. "TMF620_v4"
	Path          string // Canonical directory under the api-ctks root
	Cached        bool   // True when the directory already existed before this run
	SHA256        string // Digest of the downloaded archive, empty on cache hits
}

// CTKExecution is the outcome of running one CTK entry script
type CTKExecution struct {
	Identifier    string
	CanonicalName string
	ExitCode      int    // -1 when the script could not run to completion
	Status        string // "passed", "failed" or "error", from the exit policy
	Duration      time.Duration
	HTMLPath      string // Relocated results, empty when the CTK produced none
	JSONPath      string
}
