// Package sqldb pivots a long-format phenotype table (one row per
// sample/field/instance/array value, the layout produced by the ukbb2sql
// ingest tools) into a wide in-memory ukb.Dataset.
package sqldb

import (
	"fmt"
	"sort"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"

	"github.com/muschellij2/ukbtools/ukb"
)

// SamplePheno matches one row of the long-format phenotype table.
type SamplePheno struct {
	SampleID string `db:"sample_id"`
	FieldID  string `db:"FieldID"`
	Instance string `db:"instance"`
	ArrayIDX string `db:"array_idx"`
	Value    string `db:"value"`
}

// ColumnName renders the wide-table column name for this row under the
// dataset naming convention, e.g. diagnoses_main_icd10_f41202_0_3.
func (s SamplePheno) ColumnName(base string) string {
	return fmt.Sprintf("%s_f%s_%s_%s", base, s.FieldID, s.Instance, s.ArrayIDX)
}

// Dataset reads the long-format phenotype rows for the given FieldIDs and
// pivots them into a wide Dataset. fields maps FieldID to the base column
// name it should appear under; diagnosis fields must use a base name that
// embeds the ICD revision (e.g. diagnoses_main_icd10) so the diagnosis
// operations can find them.
func Dataset(db *sqlx.DB, table string, fields map[string]string) (*ukb.Dataset, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("no FieldIDs requested from %s", table)
	}

	fieldIDs := make([]string, 0, len(fields))
	for id := range fields {
		fieldIDs = append(fieldIDs, id)
	}
	sort.Strings(fieldIDs)

	query, args, err := sqlx.In(fmt.Sprintf(`SELECT sample_id, FieldID, instance, array_idx, value FROM %s WHERE FieldID IN (?)`, table), fieldIDs)
	if err != nil {
		return nil, pfx.Err(err)
	}

	rows, err := db.Queryx(db.Rebind(query), args...)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer rows.Close()

	phenos := make([]SamplePheno, 0)
	for rows.Next() {
		var sp SamplePheno
		if err := rows.StructScan(&sp); err != nil {
			return nil, pfx.Err(err)
		}
		phenos = append(phenos, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, pfx.Err(err)
	}

	return Pivot(phenos, fields)
}

// Pivot turns long-format phenotype rows into a wide Dataset: sample IDs
// become rows, field/instance/array combinations become columns. The
// column set is discovered from the data since the array depth varies by
// field; rows for FieldIDs absent from fields are skipped, and cells with
// no row stay empty, which the Dataset treats as missing. Samples and
// columns come back sorted.
func Pivot(phenos []SamplePheno, fields map[string]string) (*ukb.Dataset, error) {
	cells := make(map[string]map[string]string)
	sampleIDs := make([]string, 0)
	colSet := make(map[string]struct{})

	for _, sp := range phenos {
		base, exists := fields[sp.FieldID]
		if !exists {
			continue
		}
		col := sp.ColumnName(base)
		colSet[col] = struct{}{}

		if _, exists := cells[sp.SampleID]; !exists {
			cells[sp.SampleID] = make(map[string]string)
			sampleIDs = append(sampleIDs, sp.SampleID)
		}
		cells[sp.SampleID][col] = sp.Value
	}

	columns := make([]string, 0, len(colSet))
	for col := range colSet {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	sort.Strings(sampleIDs)

	header := append([]string{"eid"}, columns...)
	out := make([][]string, 0, len(sampleIDs))
	for _, id := range sampleIDs {
		row := make([]string, 0, len(header))
		row = append(row, id)
		for _, col := range columns {
			row = append(row, cells[id][col])
		}
		out = append(out, row)
	}

	return ukb.NewDataset(header, out)
}
