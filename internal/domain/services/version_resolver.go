// Package services holds the CTK domain logic that does not talk to the outside world.
package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
)

// DefaultMajorVersionMarker is the token an index key must contain to be selected
// by substring match
const DefaultMajorVersionMarker = "_v4"

const versionSeparator = "_v"

var (
	// canonicalNamePattern matches <prefix>_v<digits>
	canonicalNamePattern = regexp.MustCompile(`^.+_v[0-9]+$`)
	versionedKeyPattern  = regexp.MustCompile(`^(.*)_v([0-9]+)`)
)

// Resolution records how one identifier was resolved
type Resolution struct {
	Identifier    string
	IndexKey      string // Entry the match was made on, e.g. "TMF620_v4.1.0"
	CanonicalName string // e.g. "TMF620_v4"
	MajorVersion  string
	DownloadURL   string
}

// Session is the state of one orchestration run. It owns the
// identifier -> canonical artifact name mapping; entries are added, never removed.
type Session struct {
	RunID       string
	Marker      string
	mapping     map[string]string
	resolutions []Resolution
}

// NewSession creates a session seeded with the configured name mapping
func NewSession(seed map[string]string) *Session {
	mapping := make(map[string]string, len(seed))
	for k, v := range seed {
		mapping[k] = v
	}
	return &Session{
		RunID:   newRunID(),
		Marker:  DefaultMajorVersionMarker,
		mapping: mapping,
	}
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ArtifactName returns the canonical artifact name recorded for an identifier
func (s *Session) ArtifactName(identifier string) (string, bool) {
	name, ok := s.mapping[identifier]
	return name, ok
}

// Mapping returns a copy of the identifier mapping
func (s *Session) Mapping() map[string]string {
	out := make(map[string]string, len(s.mapping))
	for k, v := range s.mapping {
		out[k] = v
	}
	return out
}

// Resolutions returns the resolutions made in this session, in order
func (s *Session) Resolutions() []Resolution {
	return append([]Resolution(nil), s.resolutions...)
}

// Resolve finds the index entry for identifier. An entry matches when its key is
// the name already mapped for the identifier, or when it contains the identifier
// (case-insensitive) and the major version marker. The first match in index order
// wins. On a match the canonical name is recorded in the session mapping.
func (s *Session) Resolve(identifier string, index *entities.ArtifactIndex) (Resolution, bool) {
	if index == nil || identifier == "" {
		return Resolution{}, false
	}
	mapped, hasMapping := s.mapping[identifier]
	needle := strings.ToLower(identifier)

	for _, entry := range index.Entries {
		key := entry.Name
		matched := hasMapping && mapped == key
		if !matched {
			matched = strings.Contains(strings.ToLower(key), needle) && strings.Contains(key, s.Marker)
		}
		if !matched {
			continue
		}

		canonical, major, err := CanonicalName(key)
		if err != nil {
			continue
		}
		s.mapping[identifier] = canonical
		res := Resolution{
			Identifier:    identifier,
			IndexKey:      key,
			CanonicalName: canonical,
			MajorVersion:  major,
			DownloadURL:   entry.DownloadURL,
		}
		s.resolutions = append(s.resolutions, res)
		return res, true
	}
	return Resolution{}, false
}

// CanonicalName strips minor and patch from an index key:
// "TMF620_v4.1.0" -> ("TMF620_v4", "4"). The last "_v<digits>" in the key is the
// version, so prefixes such as "TMF_validation" survive intact.
func CanonicalName(key string) (string, string, error) {
	m := versionedKeyPattern.FindStringSubmatch(key)
	if m == nil || m[1] == "" {
		return "", "", fmt.Errorf("artifact name %q has no numeric %q major version", key, versionSeparator)
	}
	return m[1] + versionSeparator + m[2], m[2], nil
}

// IsCanonicalName reports whether name has the <prefix>_v<digits> shape
func IsCanonicalName(name string) bool {
	return canonicalNamePattern.MatchString(name)
}
