package ukb

import (
	"fmt"
	"regexp"

	"github.com/muschellij2/ukbtools/coding"
)

// ICDPrevalence returns the fraction of individuals in the dataset with at
// least one diagnosis of the given revision matching the pattern. An
// individual counts once however many diagnosis fields match; missing
// fields never match. The denominator is the full dataset, including
// individuals with no diagnoses at all.
func ICDPrevalence(ds *Dataset, rev coding.Revision, pattern string) (float64, error) {
	if !rev.Valid() {
		return 0, fmt.Errorf("unsupported ICD revision %d: must be 9 or 10", int(rev))
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("invalid diagnosis pattern %q: %w", pattern, err)
	}

	if ds.N() == 0 {
		return 0, nil
	}

	rows := make([]int, ds.N())
	for i := range rows {
		rows[i] = i
	}

	return ds.prevalence(ds.DiagnosisColumns(rev), re, rows), nil
}

// prevalence computes pattern prevalence over a subset of row indices. It
// is the sequential kernel shared by ICDPrevalence and the stratified
// frequency fan-out.
func (ds *Dataset) prevalence(cols []string, re *regexp.Regexp, rows []int) float64 {
	if len(rows) == 0 {
		return 0
	}

	matched := 0
	for _, row := range rows {
		for _, name := range cols {
			v := ds.columns[name][row]
			if !v.Valid {
				continue
			}
			if re.MatchString(v.String) {
				matched++
				break
			}
		}
	}

	return float64(matched) / float64(len(rows))
}
