// Package ukb provides lookup and summary-statistics utilities over a wide
// UK Biobank phenotype table: per-individual diagnosis retrieval, diagnosis
// prevalence, and frequency of diagnoses stratified by a reference variable.
package ukb

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/carbocation/genomisc"
	"github.com/carbocation/pfx"
	"gopkg.in/guregu/null.v3"

	"github.com/muschellij2/ukbtools/coding"
)

// The dataset constructor names diagnosis columns with the ICD revision
// embedded, e.g. diagnoses_main_icd10_f41202_0_0. Column selection happens
// once, when a Dataset is built; query paths only ever consult the resolved
// per-revision column lists.
var diagnosisColumn = regexp.MustCompile(`(?i)diagnoses.*icd(9|10)`)

// Dataset is a wide phenotype table: one row per individual, one column per
// field/instance/array combination. Cells are nullable strings. Datasets
// are read-only once built.
type Dataset struct {
	EIDColumn string

	eids     []string
	eidIndex map[string]int

	columnNames []string
	columns     map[string][]null.String

	diagnosisCols map[coding.Revision][]string
}

// NewDataset builds a Dataset from a header row and data rows. The first
// header entry is taken as the individual-identifier column. Empty and "NA"
// cells become null. Diagnosis columns are resolved from the naming
// convention here, once.
func NewDataset(header []string, rows [][]string) (*Dataset, error) {
	if len(header) < 1 {
		return nil, fmt.Errorf("dataset header is empty")
	}

	ds := &Dataset{
		EIDColumn:     header[0],
		eidIndex:      make(map[string]int),
		columnNames:   append([]string(nil), header[1:]...),
		columns:       make(map[string][]null.String),
		diagnosisCols: make(map[coding.Revision][]string),
	}

	for _, name := range ds.columnNames {
		if _, exists := ds.columns[name]; exists {
			return nil, fmt.Errorf("dataset has duplicate column %q", name)
		}
		ds.columns[name] = make([]null.String, 0, len(rows))

		m := diagnosisColumn.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		rev, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, pfx.Err(err)
		}
		ds.diagnosisCols[coding.Revision(rev)] = append(ds.diagnosisCols[coding.Revision(rev)], name)
	}

	for i, row := range rows {
		if l := len(row); l != len(header) {
			return nil, fmt.Errorf("dataset row %d had %d columns, expected %d", i, l, len(header))
		}

		eid := row[0]
		if _, exists := ds.eidIndex[eid]; exists {
			return nil, fmt.Errorf("dataset has duplicate individual ID %q", eid)
		}
		ds.eidIndex[eid] = len(ds.eids)
		ds.eids = append(ds.eids, eid)

		for j, name := range ds.columnNames {
			ds.columns[name] = append(ds.columns[name], cell(row[j+1]))
		}
	}

	return ds, nil
}

// FromCSV reads a dataset from a delimited file, sniffing the delimiter the
// same way the ingest tools do. The first column must hold the individual
// identifiers.
func FromCSV(path string) (*Dataset, error) {
	path = genomisc.ExpandHome(path)

	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	delim := genomisc.DetermineDelimiter(f)
	f.Seek(0, 0)

	r := csv.NewReader(f)
	r.Comma = delim
	r.LazyQuotes = true

	recs, err := r.ReadAll()
	if err != nil {
		return nil, pfx.Err(err)
	}
	if len(recs) < 1 {
		return nil, fmt.Errorf("dataset file %s is empty", path)
	}

	return NewDataset(recs[0], recs[1:])
}

func cell(v string) null.String {
	if v == "" || v == "NA" {
		return null.String{}
	}

	return null.StringFrom(v)
}

// N reports the number of individuals in the dataset.
func (ds *Dataset) N() int {
	return len(ds.eids)
}

// EIDs returns the individual identifiers in row order. Callers must not
// modify the returned slice.
func (ds *Dataset) EIDs() []string {
	return ds.eids
}

// HasEID reports whether the given individual is present.
func (ds *Dataset) HasEID(eid string) bool {
	_, exists := ds.eidIndex[eid]

	return exists
}

// ColumnNames returns the non-identifier column names in file order.
func (ds *Dataset) ColumnNames() []string {
	return ds.columnNames
}

// Column returns the named column's cells in row order.
func (ds *Dataset) Column(name string) ([]null.String, error) {
	col, exists := ds.columns[name]
	if !exists {
		return nil, fmt.Errorf("dataset has no column %q", name)
	}

	return col, nil
}

// DiagnosisColumns returns the names of the diagnosis columns for the given
// ICD revision, as resolved at construction time. The result may be empty
// if the dataset carries no diagnoses for that revision.
func (ds *Dataset) DiagnosisColumns(rev coding.Revision) []string {
	return ds.diagnosisCols[rev]
}
