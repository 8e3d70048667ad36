// Package coding provides the ICD-9 and ICD-10 coding tables used by the UK
// Biobank: code-to-meaning resolution and keyword search over meanings.
//
// The tables are shipped with the package as tab-separated lookup files in
// the same coding/meaning layout as the UKB data-coding export, and are
// parsed once per process. Load can be used instead to read a table from
// disk, e.g. a fresher export of the same codings.
package coding

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/carbocation/pfx"
	"github.com/gobuffalo/packr"
)

// Revision identifies an ICD revision. The UK Biobank keys hospital
// diagnoses against revisions 9 and 10 only.
type Revision int

const (
	ICD9  Revision = 9
	ICD10 Revision = 10
)

func (r Revision) Valid() bool {
	return r == ICD9 || r == ICD10
}

func (r Revision) String() string {
	return fmt.Sprintf("ICD-%d", int(r))
}

// Entry is one row of a coding table. The UK Biobank keys up ICD codes
// without decimals, so e.g. K41.2 is stored as K412; Code follows that
// convention.
type Entry struct {
	Code    string
	Meaning string
}

// Table is the full coding table for a single ICD revision. Codes are
// unique within a table. Tables are read-only once built.
type Table struct {
	Revision Revision
	Entries  []Entry

	byCode map[string]int
}

var (
	lookups = packr.NewBox("./lookups")

	lookupFiles = map[Revision]string{
		ICD9:  "icd9_codings.tsv",
		ICD10: "icd10_codings.tsv",
	}

	tablesOnce sync.Once
	tables     map[Revision]*Table
	tablesErr  error
)

// Get returns the embedded coding table for the given revision, parsing
// the embedded lookup files on first use. The returned table is shared;
// callers must not modify it.
func Get(rev Revision) (*Table, error) {
	if !rev.Valid() {
		return nil, fmt.Errorf("unsupported ICD revision %d: must be 9 or 10", int(rev))
	}

	tablesOnce.Do(func() {
		tables = make(map[Revision]*Table)
		for r, name := range lookupFiles {
			t, err := parse(bytes.NewReader(lookups.Bytes(name)), r)
			if err != nil {
				tablesErr = fmt.Errorf("parsing embedded lookup %s: %w", name, err)
				return
			}
			tables[r] = t
		}
	})
	if tablesErr != nil {
		return nil, tablesErr
	}

	return tables[rev], nil
}

// Load reads a coding table for the given revision from a tab-separated
// file with a coding/meaning header, as exported from the UKB showcase.
func Load(path string, rev Revision) (*Table, error) {
	if !rev.Valid() {
		return nil, fmt.Errorf("unsupported ICD revision %d: must be 9 or 10", int(rev))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	return parse(f, rev)
}

func parse(r io.Reader, rev Revision) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true

	out := &Table{
		Revision: rev,
		byCode:   make(map[string]int),
	}

	var i int64
	for {
		rec, err := cr.Read()
		if err != nil && err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}

		if l := len(rec); l != 2 {
			return nil, fmt.Errorf("coding table row %d had %d columns, expected 2", i, l)
		}

		i++
		if i == 1 {
			// header
			continue
		}

		e := Entry{
			Code:    strings.TrimSpace(rec[0]),
			Meaning: strings.TrimSpace(rec[1]),
		}

		if _, exists := out.byCode[e.Code]; exists {
			return nil, fmt.Errorf("coding table row %d duplicates code %s", i, e.Code)
		}

		out.byCode[e.Code] = len(out.Entries)
		out.Entries = append(out.Entries, e)
	}

	return out, nil
}

// Lookup returns the entries whose code exactly equals one of the given
// codes, in table order. Codes absent from the table simply produce no
// entry.
func (t *Table) Lookup(codes ...string) []Entry {
	seen := make(map[int]struct{})
	idx := make([]int, 0, len(codes))

	for _, code := range codes {
		i, exists := t.byCode[strings.TrimSpace(code)]
		if !exists {
			continue
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}

	out := make([]Entry, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.Entries[i])
	}

	return out
}

// Meaning resolves a single code, reporting whether it was found.
func (t *Table) Meaning(code string) (string, bool) {
	i, exists := t.byCode[strings.TrimSpace(code)]
	if !exists {
		return "", false
	}

	return t.Entries[i].Meaning, true
}

// SearchOptions configures Search. The zero value matches the UKB showcase
// behavior: case-insensitive matching.
type SearchOptions struct {
	CaseSensitive bool
}

// Search returns every entry whose meaning matches at least one of the
// given keywords. Keywords are regular expressions; a plain word is a
// substring match.
func (t *Table) Search(keywords []string, opts SearchOptions) ([]Entry, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("no keywords supplied")
	}

	res := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		if !opts.CaseSensitive {
			kw = "(?i)" + kw
		}
		re, err := regexp.Compile(kw)
		if err != nil {
			return nil, fmt.Errorf("invalid keyword %q: %w", kw, err)
		}
		res = append(res, re)
	}

	out := make([]Entry, 0)
	for _, e := range t.Entries {
		for _, re := range res {
			if re.MatchString(e.Meaning) {
				out = append(out, e)
				break
			}
		}
	}

	return out, nil
}
