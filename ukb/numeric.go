package ukb

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
)

// NumericColumn coerces the named column to float64, with NaN marking
// missing cells. Date-valued columns (e.g. assessment dates) are accepted
// and converted to fractional days since the Unix epoch so they can be
// binned like any other continuous variable. A column with any cell that
// is neither numeric nor a recognizable date is an error.
func NumericColumn(ds *Dataset, name string) ([]float64, error) {
	col, err := ds.Column(name)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(col))
	for i, v := range col {
		if !v.Valid {
			out[i] = math.NaN()
			continue
		}

		if f, err := strconv.ParseFloat(v.String, 64); err == nil {
			out[i] = f
			continue
		}

		t, err := dateparse.ParseAny(v.String)
		if err != nil {
			// Try a known UKB export format that dateparse fails to understand
			t, err = time.Parse("02-Jan-2006 15:04:05", v.String)
		}
		if err != nil {
			return nil, fmt.Errorf("column %q is not numeric: cannot interpret value %q in row %d", name, v.String, i)
		}

		out[i] = float64(t.Unix()) / 86400.0
	}

	return out, nil
}
