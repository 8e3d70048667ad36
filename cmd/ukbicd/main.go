// ukbicd looks things up in the ICD coding tables and, given a phenotype
// CSV, lists individuals' diagnoses or computes the prevalence of a
// diagnosis pattern. Output is tab-separated on stdout.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/muschellij2/ukbtools/coding"
	"github.com/muschellij2/ukbtools/ukb"
)

var (
	BufferSize = 4096 * 8
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

func main() {
	defer STDOUT.Flush()

	var (
		revision      int
		codes         flagSlice
		keywords      flagSlice
		caseSensitive bool
		dataPath      string
		ids           flagSlice
		pattern       string
	)

	flag.IntVar(&revision, "icd", 10, "ICD revision (9 or 10)")
	flag.Var(&codes, "code", "ICD code to resolve to its meaning. Pass this flag once per code.")
	flag.Var(&keywords, "keyword", "Keyword or regular expression to search for in code meanings. Pass this flag once per keyword.")
	flag.BoolVar(&caseSensitive, "case", false, "Make keyword search case-sensitive")
	flag.StringVar(&dataPath, "data", "", "Phenotype CSV with an eid column and diagnosis columns named by the diagnoses_..._icd9/icd10 convention")
	flag.Var(&ids, "id", "Individual ID whose diagnoses should be listed (requires -data). Pass this flag once per individual.")
	flag.StringVar(&pattern, "prevalence", "", "Diagnosis pattern whose prevalence over the dataset should be computed (requires -data)")
	flag.Parse()

	if len(codes) == 0 && len(keywords) == 0 && len(ids) == 0 && pattern == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	rev := coding.Revision(revision)

	if len(codes) > 0 {
		if err := lookupCodes(rev, codes); err != nil {
			log.Fatalln(err)
		}
	}

	if len(keywords) > 0 {
		if err := searchKeywords(rev, keywords, caseSensitive); err != nil {
			log.Fatalln(err)
		}
	}

	if len(ids) == 0 && pattern == "" {
		return
	}

	if dataPath == "" {
		log.Fatalln("-id and -prevalence require -data")
	}

	ds, err := ukb.FromCSV(dataPath)
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("Loaded", ds.N(), "individuals from", dataPath)

	if len(ids) > 0 {
		diagnoses, err := ukb.ICDDiagnosis(ds, ids, rev)
		if err != nil {
			log.Fatalln(err)
		}

		fmt.Fprintf(STDOUT, "eid\tcode\tmeaning\n")
		for _, d := range diagnoses {
			fmt.Fprintf(STDOUT, "%s\t%s\t%s\n", d.EID, d.Code, d.Meaning)
		}
	}

	if pattern != "" {
		prev, err := ukb.ICDPrevalence(ds, rev, pattern)
		if err != nil {
			log.Fatalln(err)
		}

		fmt.Fprintf(STDOUT, "pattern\tprevalence\n%s\t%g\n", pattern, prev)
	}
}

func lookupCodes(rev coding.Revision, codes []string) error {
	table, err := coding.Get(rev)
	if err != nil {
		return err
	}

	fmt.Fprintf(STDOUT, "code\tmeaning\n")
	for _, e := range table.Lookup(codes...) {
		fmt.Fprintf(STDOUT, "%s\t%s\n", e.Code, e.Meaning)
	}

	return nil
}

func searchKeywords(rev coding.Revision, keywords []string, caseSensitive bool) error {
	table, err := coding.Get(rev)
	if err != nil {
		return err
	}

	entries, err := table.Search(keywords, coding.SearchOptions{CaseSensitive: caseSensitive})
	if err != nil {
		return err
	}

	fmt.Fprintf(STDOUT, "code\tmeaning\n")
	for _, e := range entries {
		fmt.Fprintf(STDOUT, "%s\t%s\n", e.Code, e.Meaning)
	}

	return nil
}
