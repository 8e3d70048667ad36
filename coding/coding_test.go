package coding

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRejectsUnknownRevision(t *testing.T) {
	_, err := Get(Revision(11))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported ICD revision")

	_, err = Get(Revision(0))
	require.Error(t, err)
}

func TestGetReturnsBothRevisions(t *testing.T) {
	for _, rev := range []Revision{ICD9, ICD10} {
		table, err := Get(rev)
		require.NoError(t, err)
		assert.Equal(t, rev, table.Revision)
		assert.NotEmpty(t, table.Entries)
	}
}

func TestLookupExactMatch(t *testing.T) {
	table, err := Get(ICD10)
	require.NoError(t, err)

	got := table.Lookup("I74")
	require.Len(t, got, 1)
	assert.Equal(t, "I74", got[0].Code)
	assert.Equal(t, "Arterial embolism and thrombosis", got[0].Meaning)
}

func TestLookupUnknownCodeIsNotAnError(t *testing.T) {
	table, err := Get(ICD10)
	require.NoError(t, err)

	assert.Empty(t, table.Lookup("ZZZ999"))
}

func TestLookupMultipleCodes(t *testing.T) {
	table, err := Get(ICD10)
	require.NoError(t, err)

	got := table.Lookup("I74", "K40", "NOPE", "I74")
	require.Len(t, got, 2)
	codes := []string{got[0].Code, got[1].Code}
	assert.ElementsMatch(t, []string{"I74", "K40"}, codes)
}

func TestLookupICD9(t *testing.T) {
	table, err := Get(ICD9)
	require.NoError(t, err)

	got := table.Lookup("4449")
	require.Len(t, got, 1)
	assert.Equal(t, "Embolism and thrombosis of unspecified artery", got[0].Meaning)
}

func TestMeaning(t *testing.T) {
	table, err := Get(ICD10)
	require.NoError(t, err)

	meaning, ok := table.Meaning("I74")
	assert.True(t, ok)
	assert.Equal(t, "Arterial embolism and thrombosis", meaning)

	_, ok = table.Meaning("ZZZ999")
	assert.False(t, ok)
}

func TestSearchIsCaseInsensitiveByDefault(t *testing.T) {
	table, err := Get(ICD10)
	require.NoError(t, err)

	got, err := table.Search([]string{"EMBOLISM"}, SearchOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, got)

	found := false
	for _, e := range got {
		if e.Code == "I74" {
			found = true
		}
	}
	assert.True(t, found, "expected I74 among embolism matches")
}

func TestSearchCaseSensitive(t *testing.T) {
	table, err := Get(ICD10)
	require.NoError(t, err)

	got, err := table.Search([]string{"EMBOLISM"}, SearchOptions{CaseSensitive: true})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchORsAcrossKeywords(t *testing.T) {
	table, err := Get(ICD10)
	require.NoError(t, err)

	embolism, err := table.Search([]string{"embolism"}, SearchOptions{})
	require.NoError(t, err)
	asthma, err := table.Search([]string{"asthma"}, SearchOptions{})
	require.NoError(t, err)

	both, err := table.Search([]string{"embolism", "asthma"}, SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, both, len(embolism)+len(asthma))
}

func TestSearchAcceptsRegularExpressions(t *testing.T) {
	table, err := Get(ICD10)
	require.NoError(t, err)

	got, err := table.Search([]string{"^Asthma$"}, SearchOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "J45", got[0].Code)
}

func TestSearchRejectsBadPatternAndEmptyKeywords(t *testing.T) {
	table, err := Get(ICD10)
	require.NoError(t, err)

	_, err = table.Search([]string{"("}, SearchOptions{})
	assert.Error(t, err)

	_, err = table.Search(nil, SearchOptions{})
	assert.Error(t, err)
}

func TestLoadExternalTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codings.tsv")
	content := "coding\tmeaning\nX99\tTest condition\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := Load(path, ICD10)
	require.NoError(t, err)
	require.Len(t, table.Entries, 1)

	got := table.Lookup("X99")
	require.Len(t, got, 1)
	assert.Equal(t, "Test condition", got[0].Meaning)
}

func TestLoadRejectsDuplicateCodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codings.tsv")
	content := "coding\tmeaning\nX99\tFirst\nX99\tSecond\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := Load(path, ICD10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicates code")
}
