// Package bq fetches a wide phenotype table from BigQuery into an
// in-memory ukb.Dataset, for deployments that keep the UK Biobank
// phenotype data in a BigQuery database rather than on disk.
package bq

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"

	"github.com/muschellij2/ukbtools/ukb"
)

// WrappedBigQuery carries the connection context alongside the client so
// it doesn't have to be passed around separately.
type WrappedBigQuery struct {
	Context  context.Context
	Client   *bigquery.Client
	Project  string
	Database string
}

// Connect opens a BigQuery client against the given project and database.
// Callers should Close the client when done.
func Connect(ctx context.Context, project, database string) (*WrappedBigQuery, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return &WrappedBigQuery{
		Context:  ctx,
		Client:   client,
		Project:  project,
		Database: database,
	}, nil
}

func (wbq *WrappedBigQuery) Close() error {
	return wbq.Client.Close()
}

// FetchDataset pulls the identifier column and the listed columns of a
// wide table into a Dataset. Column names must follow the diagnosis
// naming convention for the diagnosis operations to see them.
func FetchDataset(wbq *WrappedBigQuery, table, eidColumn string, columns []string) (*ukb.Dataset, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns requested from %s.%s", wbq.Database, table)
	}

	quoted := make([]string, 0, len(columns)+1)
	for _, name := range append([]string{eidColumn}, columns...) {
		// BigQuery permits few special characters in identifiers, so
		// backtick-quoting is enough.
		if strings.ContainsRune(name, '`') {
			return nil, fmt.Errorf("invalid column name %q", name)
		}
		quoted = append(quoted, "`"+name+"`")
	}

	query := wbq.Client.Query(fmt.Sprintf(`SELECT %s
FROM %s.%s
ORDER BY %s ASC
`, strings.Join(quoted, ", "), wbq.Database, table, quoted[0]))

	itr, err := query.Read(wbq.Context)
	if err != nil {
		return nil, pfx.Err(err)
	}

	header := append([]string{eidColumn}, columns...)
	rows := make([][]string, 0)

	for {
		var values map[string]bigquery.Value
		err := itr.Next(&values)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, pfx.Err(err)
		}

		row := make([]string, 0, len(header))
		for _, name := range header {
			row = append(row, stringify(values[name]))
		}
		rows = append(rows, row)
	}

	return ukb.NewDataset(header, rows)
}

// stringify renders a BigQuery cell the way the CSV export would; NULL
// becomes the empty string, which the Dataset treats as missing.
func stringify(v bigquery.Value) string {
	if v == nil {
		return ""
	}

	return fmt.Sprintf("%v", v)
}
