package ukb

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muschellij2/ukbtools/coding"
)

// prevalenceDataset has 10 individuals, exactly 3 of whom carry a
// diagnosis matching ^I in any diagnosis column.
func prevalenceRows() [][]string {
	return [][]string{
		{"1", "I74", ""},
		{"2", "I21", "I74"}, // two matching columns, still counts once
		{"3", "", "I63"},
		{"4", "K40", ""},
		{"5", "E11", "J45"},
		{"6", "", ""},
		{"7", "NA", ""},
		{"8", "K57", "K80"},
		{"9", "", "E14"},
		{"10", "", ""},
	}
}

func prevalenceHeader() []string {
	return []string{"eid", "diagnoses_main_icd10_f41202_0_0", "diagnoses_secondary_icd10_f41204_0_0"}
}

func TestICDPrevalence(t *testing.T) {
	ds := makeDataset(t, prevalenceHeader(), prevalenceRows())

	got, err := ICDPrevalence(ds, coding.ICD10, "^I")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, got, 1e-12)
}

func TestICDPrevalenceRowOrderInvariant(t *testing.T) {
	rows := prevalenceRows()
	r := rand.New(rand.NewSource(7))
	r.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

	ds := makeDataset(t, prevalenceHeader(), rows)

	got, err := ICDPrevalence(ds, coding.ICD10, "^I")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, got, 1e-12)
}

func TestICDPrevalenceBounds(t *testing.T) {
	ds := makeDataset(t, prevalenceHeader(), prevalenceRows())

	none, err := ICDPrevalence(ds, coding.ICD10, "^ZZZ")
	require.NoError(t, err)
	assert.Equal(t, 0.0, none)

	all, err := ICDPrevalence(ds, coding.ICD10, "")
	require.NoError(t, err)
	assert.True(t, all >= 0 && all <= 1)
}

func TestICDPrevalenceMatchEverything(t *testing.T) {
	ds := makeDataset(t, prevalenceHeader(), [][]string{
		{"1", "I74", ""},
		{"2", "", "I63"},
	})

	got, err := ICDPrevalence(ds, coding.ICD10, ".")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestICDPrevalenceMissingNeverMatches(t *testing.T) {
	// The empty pattern matches any string, but missing cells are not
	// strings: individuals with no diagnoses stay out of the numerator.
	ds := makeDataset(t, prevalenceHeader(), [][]string{
		{"1", "I74", ""},
		{"2", "", ""},
		{"3", "NA", "NA"},
		{"4", "", ""},
	})

	got, err := ICDPrevalence(ds, coding.ICD10, "")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got, 1e-12)
}

func TestICDPrevalenceDenominatorIncludesUndiagnosed(t *testing.T) {
	ds := makeDataset(t, prevalenceHeader(), [][]string{
		{"1", "I74", ""},
		{"2", "", ""},
		{"3", "", ""},
		{"4", "", ""},
	})

	got, err := ICDPrevalence(ds, coding.ICD10, "^I74")
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got, 1e-12)
}

func TestICDPrevalenceEmptyDataset(t *testing.T) {
	ds := makeDataset(t, prevalenceHeader(), nil)

	got, err := ICDPrevalence(ds, coding.ICD10, "^I")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)
}

func TestICDPrevalenceErrors(t *testing.T) {
	ds := makeDataset(t, prevalenceHeader(), prevalenceRows())

	_, err := ICDPrevalence(ds, coding.Revision(11), "^I")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported ICD revision")

	_, err = ICDPrevalence(ds, coding.ICD10, "(")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid diagnosis pattern")
}
