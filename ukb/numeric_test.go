package ukb

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericColumnFloats(t *testing.T) {
	ds := makeDataset(t,
		[]string{"eid", "bmi"},
		[][]string{
			{"1", "24.5"},
			{"2", ""},
			{"3", "31"},
		},
	)

	got, err := NumericColumn(ds, "bmi")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 24.5, got[0])
	assert.True(t, math.IsNaN(got[1]))
	assert.Equal(t, 31.0, got[2])
}

func TestNumericColumnDates(t *testing.T) {
	ds := makeDataset(t,
		[]string{"eid", "assessment_date"},
		[][]string{
			{"1", "2010-05-01"},
			{"2", "2010-05-02"},
		},
	)

	got, err := NumericColumn(ds, "assessment_date")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got[1]-got[0], 1e-9)
}

func TestNumericColumnRejectsText(t *testing.T) {
	ds := makeDataset(t,
		[]string{"eid", "sex"},
		[][]string{
			{"1", "Female"},
		},
	)

	_, err := NumericColumn(ds, "sex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not numeric")
}

func TestNumericColumnUnknown(t *testing.T) {
	ds := makeDataset(t, []string{"eid", "bmi"}, nil)

	_, err := NumericColumn(ds, "weight")
	require.Error(t, err)
}
