package ukb

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	"github.com/exascience/pargo/parallel"
	"github.com/sirupsen/logrus"
	"gopkg.in/guregu/null.v3"

	"github.com/muschellij2/ukbtools/coding"
)

// Default disease groups, matching the common comparison set: coronary
// artery disease, cerebrovascular disease, and diabetes mellitus.
var (
	DefaultPatterns = []string{"I2[0245]", "I6[0-9]", "E1[0-4]"}
	DefaultLabels   = []string{"coronary artery disease", "cerebrovascular disease", "diabetes mellitus"}
)

// FreqOptions configures ICDFreqByVariable. The zero value uses the
// default disease groups against ICD-10 with 10 quantile bins.
type FreqOptions struct {
	// Revision of the diagnosis codes to match. Defaults to ICD-10.
	Revision coding.Revision

	// Groups is the number of quantile bins for a numeric reference
	// variable. Ignored for categorical variables. Defaults to 10.
	Groups int

	// Patterns are the diagnosis regular expressions, one frequency column
	// each. Labels name them; when Patterns are supplied without matching
	// Labels, the patterns themselves are used as labels and a warning is
	// emitted.
	Patterns []string
	Labels   []string
}

// FreqGroup is one stratum of a frequency table: either a level of a
// categorical reference variable or a quantile bin of a numeric one. For
// numeric strata Lower/Upper/Mid carry the bin bounds; for categorical
// strata they are NaN.
type FreqGroup struct {
	Level string

	Lower float64
	Upper float64
	Mid   float64

	// N is the number of individuals in the stratum.
	N int

	// Freq holds one frequency per requested pattern, each in [0, 1].
	Freq []float64

	// rows are the dataset row indices of the stratum's members. They are
	// only needed during construction and never leave this package.
	rows []int
}

// FreqTable is the result of a stratified frequency computation: one row
// per stratum, ordered by lower bound for numeric reference variables and
// by level for categorical ones.
type FreqTable struct {
	Reference string
	Labels    []string
	Numeric   bool
	Groups    []FreqGroup
}

// ICDFreqByVariable computes, within each stratum of the reference
// variable, the fraction of individuals with a diagnosis matching each
// pattern. A numeric reference variable is partitioned into
// approximately equal-population quantile bins; a categorical one is
// grouped by its levels. Individuals with a missing reference value are
// excluded before grouping.
//
// Per-stratum computation fans out across the processor pool; the result
// is identical to sequential evaluation.
func ICDFreqByVariable(ds *Dataset, reference string, opts FreqOptions) (*FreqTable, error) {
	if opts.Revision == 0 {
		opts.Revision = coding.ICD10
	}
	if !opts.Revision.Valid() {
		return nil, fmt.Errorf("unsupported ICD revision %d: must be 9 or 10", int(opts.Revision))
	}
	if opts.Groups == 0 {
		opts.Groups = 10
	}
	if opts.Groups < 1 {
		return nil, fmt.Errorf("requested %d groups: must be at least 1", opts.Groups)
	}

	patterns := opts.Patterns
	labels := opts.Labels
	if len(patterns) == 0 {
		patterns = DefaultPatterns
		if len(labels) == 0 {
			labels = DefaultLabels
		}
	}
	if len(labels) != len(patterns) {
		if len(opts.Patterns) > 0 {
			logrus.Warnf("supplied %d diagnosis patterns with %d labels; using the patterns as labels", len(patterns), len(labels))
		}
		labels = patterns
	}

	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid diagnosis pattern %q: %w", p, err)
		}
		res = append(res, re)
	}

	refCol, err := ds.Column(reference)
	if err != nil {
		return nil, err
	}

	out := &FreqTable{
		Reference: reference,
		Labels:    labels,
	}

	// Prefer numeric stratification; fall back to the column's levels when
	// the values cannot all be read as numbers or dates.
	nums, numErr := NumericColumn(ds, reference)
	if numErr == nil {
		out.Numeric = true
		out.Groups = quantileGroups(nums, opts.Groups, len(res))
	} else {
		out.Groups = levelGroups(refCol, len(res))
	}

	cols := ds.DiagnosisColumns(opts.Revision)

	// Fan the per-stratum prevalence computation across the processor
	// pool. Each task only reads its own stratum's rows and writes its own
	// FreqGroup, so no coordination is needed; the pool is released when
	// Range returns, whether or not a task panicked.
	parallel.Range(0, len(out.Groups), 0, func(low, high int) {
		for i := low; i < high; i++ {
			g := &out.Groups[i]
			for j, re := range res {
				g.Freq[j] = ds.prevalence(cols, re, g.rows)
			}
		}
	})

	return out, nil
}

// quantileGroups partitions the non-missing values into approximately
// equal-population bins. Tied quantile cut points are collapsed, so fewer
// than the requested number of bins may come back. Bins are contiguous,
// non-overlapping, and cover the full non-missing range; they are returned
// ordered by lower bound ascending.
func quantileGroups(vals []float64, n, npatterns int) []FreqGroup {
	kept := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	cuts := quantileCuts(kept, n)

	groups := make([]FreqGroup, len(cuts)-1)
	for i := range groups {
		lo, hi := cuts[i], cuts[i+1]
		level := fmt.Sprintf("[%g,%g)", lo, hi)
		if i == len(groups)-1 {
			level = fmt.Sprintf("[%g,%g]", lo, hi)
		}
		groups[i] = FreqGroup{
			Level: level,
			Lower: lo,
			Upper: hi,
			Mid:   lo + (hi-lo)/2,
			Freq:  make([]float64, npatterns),
		}
	}

	for row, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		i := sort.SearchFloat64s(cuts[1:len(cuts)-1], v)
		// SearchFloat64s puts v on the bin whose upper cut is the first
		// interior cut >= v; shift ties upward so bins are [lo, hi).
		if i < len(groups)-1 && v == cuts[i+1] {
			i++
		}
		groups[i].rows = append(groups[i].rows, row)
		groups[i].N++
	}

	return groups
}

// quantileCuts returns n+1 cut points at evenly spaced probabilities over
// the values, deduplicated, using linear interpolation between order
// statistics.
func quantileCuts(vals []float64, n int) []float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	cuts := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		q := quantile(sorted, float64(i)/float64(n))
		if len(cuts) > 0 && q == cuts[len(cuts)-1] {
			continue
		}
		cuts = append(cuts, q)
	}

	// A constant column collapses to a single cut; widen it to a
	// degenerate [v, v] bin.
	if len(cuts) == 1 {
		cuts = append(cuts, cuts[0])
	}

	return cuts
}

func quantile(sorted []float64, p float64) float64 {
	h := p * float64(len(sorted)-1)
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))

	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// levelGroups groups a categorical reference variable by its distinct
// levels, ordered lexically. Missing values are excluded.
func levelGroups(col []null.String, npatterns int) []FreqGroup {
	byLevel := make(map[string][]int)
	for row, v := range col {
		if !v.Valid {
			continue
		}
		byLevel[v.String] = append(byLevel[v.String], row)
	}

	levels := make([]string, 0, len(byLevel))
	for level := range byLevel {
		levels = append(levels, level)
	}
	sort.Strings(levels)

	groups := make([]FreqGroup, 0, len(levels))
	for _, level := range levels {
		rows := byLevel[level]
		groups = append(groups, FreqGroup{
			Level: level,
			Lower: math.NaN(),
			Upper: math.NaN(),
			Mid:   math.NaN(),
			N:     len(rows),
			Freq:  make([]float64, npatterns),
			rows:  rows,
		})
	}

	return groups
}
