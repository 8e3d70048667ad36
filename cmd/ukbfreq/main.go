// ukbfreq computes diagnosis frequency stratified by a reference variable
// over a phenotype CSV. The frequency table goes to stdout tab-separated;
// -plot additionally renders a chart.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
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
		dataPath  string
		reference string
		groups    int
		revision  int
		patterns  flagSlice
		labels    flagSlice
		plotPath  string
	)

	flag.StringVar(&dataPath, "data", "", "Phenotype CSV with an eid column and diagnosis columns named by the diagnoses_..._icd9/icd10 convention")
	flag.StringVar(&reference, "ref", "", "Reference variable (column name) to stratify by")
	flag.IntVar(&groups, "groups", 10, "Number of quantile bins for a numeric reference variable")
	flag.IntVar(&revision, "icd", 10, "ICD revision (9 or 10)")
	flag.Var(&patterns, "pattern", "Diagnosis pattern, one frequency column each. Pass this flag once per pattern. Defaults to coronary artery disease, cerebrovascular disease, and diabetes.")
	flag.Var(&labels, "label", "Label for the matching -pattern. Pass this flag once per pattern.")
	flag.StringVar(&plotPath, "plot", "", "Also render a chart to this file (format from extension: .png, .pdf, .svg)")
	flag.Parse()

	if dataPath == "" || reference == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	ds, err := ukb.FromCSV(dataPath)
	if err != nil {
		log.Fatalln(err)
	}
	log.Println("Loaded", ds.N(), "individuals from", dataPath)

	ft, err := ukb.ICDFreqByVariable(ds, reference, ukb.FreqOptions{
		Revision: coding.Revision(revision),
		Groups:   groups,
		Patterns: patterns,
		Labels:   labels,
	})
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Fprintf(STDOUT, "group\tlower\tupper\tn")
	for _, label := range ft.Labels {
		fmt.Fprintf(STDOUT, "\t%s", label)
	}
	fmt.Fprintln(STDOUT)

	for _, g := range ft.Groups {
		fmt.Fprintf(STDOUT, "%s\t%s\t%s\t%d", g.Level, bound(g.Lower), bound(g.Upper), g.N)
		for _, f := range g.Freq {
			fmt.Fprintf(STDOUT, "\t%g", f)
		}
		fmt.Fprintln(STDOUT)
	}

	if plotPath != "" {
		if err := ukb.PlotFreq(ft, plotPath); err != nil {
			log.Fatalln(err)
		}
		log.Println("Wrote plot to", plotPath)
	}
}

// bound emits an empty string for the NaN bounds of categorical strata,
// which plays better with downstream table tools.
func bound(v float64) string {
	if math.IsNaN(v) {
		return ""
	}

	return fmt.Sprintf("%g", v)
}
