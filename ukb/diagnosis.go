package ukb

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/muschellij2/ukbtools/coding"
)

// Diagnosis is one resolved diagnosis held by one individual.
type Diagnosis struct {
	EID     string
	Code    string
	Meaning string
}

// ICDDiagnosis returns every non-missing diagnosis of the given revision
// held by the given individuals, resolved against the coding table. Rows
// are tagged with the originating individual. An individual with no
// diagnoses for the revision is not an error; it is reported at info level
// and simply contributes no rows.
func ICDDiagnosis(ds *Dataset, ids []string, rev coding.Revision) ([]Diagnosis, error) {
	table, err := coding.Get(rev)
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("no individual IDs supplied")
	}

	for _, id := range ids {
		if !ds.HasEID(id) {
			return nil, fmt.Errorf("individual %q is not in the dataset", id)
		}
	}

	cols := ds.DiagnosisColumns(rev)

	out := make([]Diagnosis, 0)
	undiagnosed := make([]string, 0)

	for _, id := range ids {
		codes := ds.diagnosisCodes(id, cols)
		if len(codes) == 0 {
			logrus.Infof("ID %s has no diagnoses recorded against %s", id, rev)
			undiagnosed = append(undiagnosed, id)
			continue
		}

		n := 0
		for _, entry := range table.Lookup(codes...) {
			out = append(out, Diagnosis{EID: id, Code: entry.Code, Meaning: entry.Meaning})
			n++
		}
		if n == 0 {
			undiagnosed = append(undiagnosed, id)
		}
	}

	if len(undiagnosed) > 0 {
		logrus.Infof("No %s diagnoses for: %s", rev, strings.Join(undiagnosed, ", "))
	}

	return out, nil
}

// diagnosisCodes collects the individual's non-missing codes across the
// given diagnosis columns, preserving column order.
func (ds *Dataset) diagnosisCodes(eid string, cols []string) []string {
	row := ds.eidIndex[eid]

	codes := make([]string, 0, len(cols))
	for _, name := range cols {
		v := ds.columns[name][row]
		if !v.Valid {
			continue
		}
		codes = append(codes, v.String)
	}

	return codes
}
