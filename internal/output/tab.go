// Package output provides report formatters for annotated variants.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-annotate/internal/vcf"
)

// TabWriter writes the annotation report in tab-delimited format: one fixed
// header row, then one row per variant in input order.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited report writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#CHROM",
			"POS",
			"ID",
			"REF",
			"ALT",
			"TYPE",
			"EFFECT",
			"DEPTH",
			"SUPPORT",
			"VAR:REF READS",
			"ALLELE FREQ",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single variant row. Columns mirror the header: the parsed
// site and allele fields, then the enrichment results.
func (tw *TabWriter) Write(v *vcf.Variant) error {
	values := []string{
		v.Chrom,
		v.Pos,
		v.ID,
		v.Ref,
		v.Alt,
		v.Type,
		v.Effect(),
		strconv.Itoa(v.Depth),
		v.VarReadCount,
		v.SupportRatio,
		v.AlleleFreq(),
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
