package services

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/ctkrunner/internal/domain/entities"
)

func testIndex(names ...string) *entities.ArtifactIndex {
	idx := &entities.ArtifactIndex{}
	for _, n := range names {
		idx.Entries = append(idx.Entries, entities.IndexEntry{Name: n, DownloadURL: "https://example.test/" + n + ".zip"})
	}
	return idx
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		key       string
		canonical string
		major     string
		wantErr   bool
	}{
		{key: "TMF620_v4.1.0", canonical: "TMF620_v4", major: "4"},
		{key: "TMF620_v4", canonical: "TMF620_v4", major: "4"},
		{key: "billing_v4.0.0", canonical: "billing_v4", major: "4"},
		{key: "TMF632_v5.0.0-beta", canonical: "TMF632_v5", major: "5"},
		{key: "TMF_validation_v4.2.0", canonical: "TMF_validation_v4", major: "4"},
		{key: "TMF681_v12.0.1", canonical: "TMF681_v12", major: "12"},
		{key: "TMF620", wantErr: true},
		{key: "_v4.0.0", wantErr: true},
		{key: "TMF620_vX", wantErr: true},
		{key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			canonical, major, err := CanonicalName(tt.key)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.canonical, canonical)
			assert.Equal(t, tt.major, major)
			assert.True(t, IsCanonicalName(canonical))
		})
	}
}

func TestCanonicalName_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	shape := regexp.MustCompile(`^[A-Za-z0-9]+_v[0-9]+$`)

	properties.Property("canonical name keeps prefix and major only", prop.ForAll(
		func(prefix string, major, minor, patch uint16) bool {
			if prefix == "" {
				return true
			}
			key := prefix + "_v" + strconv.Itoa(int(major)) + "." + strconv.Itoa(int(minor)) + "." + strconv.Itoa(int(patch))
			canonical, got, err := CanonicalName(key)
			if err != nil {
				return false
			}
			return shape.MatchString(canonical) &&
				canonical == prefix+"_v"+strconv.Itoa(int(major)) &&
				got == strconv.Itoa(int(major))
		},
		gen.Identifier(),
		gen.UInt16(),
		gen.UInt16(),
		gen.UInt16(),
	))

	properties.Property("canonical names are fixed points", prop.ForAll(
		func(prefix string, major uint16) bool {
			if prefix == "" {
				return true
			}
			name := prefix + "_v" + strconv.Itoa(int(major))
			canonical, _, err := CanonicalName(name)
			return err == nil && canonical == name
		},
		gen.Identifier(),
		gen.UInt16(),
	))

	properties.TestingRun(t)
}

func TestIsCanonicalName(t *testing.T) {
	assert.True(t, IsCanonicalName("TMF620_v4"))
	assert.True(t, IsCanonicalName("billing_v10"))
	assert.False(t, IsCanonicalName("TMF620_v4.1.0"))
	assert.False(t, IsCanonicalName("TMF620"))
	assert.False(t, IsCanonicalName("_v4"))
}

func TestSession_Resolve(t *testing.T) {
	index := testIndex("TMF620_v4.1.0", "TMF620_v5.0.0", "billing_v4.0.0", "TMF632_v4.0.0", "TMF620_v4.2.0")

	t.Run("substring with marker", func(t *testing.T) {
		s := NewSession(nil)
		res, ok := s.Resolve("BILLING", index)
		require.True(t, ok)
		assert.Equal(t, "billing_v4.0.0", res.IndexKey)
		assert.Equal(t, "billing_v4", res.CanonicalName)
		assert.Equal(t, "4", res.MajorVersion)
		assert.Equal(t, "https://example.test/billing_v4.0.0.zip", res.DownloadURL)

		name, ok := s.ArtifactName("BILLING")
		require.True(t, ok)
		assert.Equal(t, "billing_v4", name)
	})

	t.Run("first hit in index order", func(t *testing.T) {
		s := NewSession(nil)
		res, ok := s.Resolve("TMF620", index)
		require.True(t, ok)
		assert.Equal(t, "TMF620_v4.1.0", res.IndexKey)
	})

	t.Run("entries without marker are skipped", func(t *testing.T) {
		s := NewSession(nil)
		_, ok := s.Resolve("TMF620", testIndex("TMF620_v5.0.0"))
		assert.False(t, ok)
	})

	t.Run("mapped key matches exactly", func(t *testing.T) {
		s := NewSession(map[string]string{"PARTY": "TMF620_v5.0.0"})
		res, ok := s.Resolve("PARTY", index)
		require.True(t, ok)
		assert.Equal(t, "TMF620_v5.0.0", res.IndexKey)
		assert.Equal(t, "TMF620_v5", res.CanonicalName)

		name, _ := s.ArtifactName("PARTY")
		assert.Equal(t, "TMF620_v5", name)
	})

	t.Run("unresolved leaves mapping untouched", func(t *testing.T) {
		s := NewSession(map[string]string{"X": "Y"})
		_, ok := s.Resolve("TMF999", index)
		assert.False(t, ok)
		assert.Equal(t, map[string]string{"X": "Y"}, s.Mapping())
		assert.Empty(t, s.Resolutions())
	})

	t.Run("nil index and empty identifier", func(t *testing.T) {
		s := NewSession(nil)
		_, ok := s.Resolve("TMF620", nil)
		assert.False(t, ok)
		_, ok = s.Resolve("", index)
		assert.False(t, ok)
	})

	t.Run("resolutions are recorded in order", func(t *testing.T) {
		s := NewSession(nil)
		_, _ = s.Resolve("TMF632", index)
		_, _ = s.Resolve("billing", index)
		got := s.Resolutions()
		require.Len(t, got, 2)
		assert.Equal(t, "TMF632", got[0].Identifier)
		assert.Equal(t, "billing", got[1].Identifier)
	})
}

func TestNewSession_CopiesSeed(t *testing.T) {
	seed := map[string]string{"A": "a_v4"}
	s := NewSession(seed)
	seed["B"] = "b_v4"

	_, ok := s.ArtifactName("B")
	assert.False(t, ok)
	assert.NotEmpty(t, s.RunID)
	assert.Equal(t, DefaultMajorVersionMarker, s.Marker)

	m := s.Mapping()
	m["C"] = "c_v4"
	_, ok = s.ArtifactName("C")
	assert.False(t, ok)
}
