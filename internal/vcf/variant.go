// Package vcf provides parsing for the fixed-layout variant call files
// this tool annotates.
package vcf

import (
	"fmt"
	"strings"
)

// Variant represents a single record from a variant call file. Multi-allelic
// records are kept as one Variant with comma-joined sub-fields (Alt, Type,
// VarReadCount, SupportRatio), positionally aligned per allele.
type Variant struct {
	Chrom string // chromosome name (e.g., "1", "X")
	Pos   string // 1-based position, kept as text
	ID    string // variant identifier (e.g., rs ID, or ".")
	Ref   string // reference allele
	Alt   string // alternate allele(s), comma-separated if multi-allelic
	Qual  string // call quality, kept as text

	Type         string // variant type per allele (snp, ins, del, complex, ...)
	Depth        int    // total sequencing depth at the site (INFO DP)
	VarReadCount string // reads supporting each alternate allele (INFO AO)
	RefReadCount int    // reads supporting the reference allele (INFO RO)

	SupportRatio string // derived var%:ref% pair per allele, comma-joined

	effect     string
	effectSet  bool
	alleleFreq string
	freqSet    bool
}

// IsMultiAllelic returns true if the record lists more than one alternate allele.
func (v *Variant) IsMultiAllelic() bool {
	return strings.Contains(v.Alt, ",")
}

// Key returns the variant's canonical identity string, CHROM-POS-REF-ALT.
// Multi-allelic records keep their comma-joined alternate text verbatim.
func (v *Variant) Key() string {
	return v.Chrom + "-" + v.Pos + "-" + v.Ref + "-" + v.Alt
}

// SetEffect records the externally sourced consequence. A Variant is
// constructed without an effect and enriched exactly once; a second call
// is an error.
func (v *Variant) SetEffect(effect string) error {
	if v.effectSet {
		return fmt.Errorf("effect already set for %s", v.Key())
	}
	v.effect = effect
	v.effectSet = true
	return nil
}

// Effect returns the externally sourced consequence, or "" before enrichment.
func (v *Variant) Effect() string {
	return v.effect
}

// SetAlleleFreq records the externally sourced population allele frequency
// (or the "." sentinel when the service has none). Like SetEffect, it may
// be called exactly once.
func (v *Variant) SetAlleleFreq(freq string) error {
	if v.freqSet {
		return fmt.Errorf("allele frequency already set for %s", v.Key())
	}
	v.alleleFreq = freq
	v.freqSet = true
	return nil
}

// AlleleFreq returns the externally sourced allele frequency, or "" before
// enrichment.
func (v *Variant) AlleleFreq() string {
	return v.alleleFreq
}

// Enriched returns true once both externally sourced fields have been set.
func (v *Variant) Enriched() bool {
	return v.effectSet && v.freqSet
}

// FormatSupportRatio renders the fraction of reads supporting each alternate
// allele versus the reference allele. Each pair is computed independently
// against the shared reference count and formatted var%:ref% to three
// decimals; per-allele pairs are joined with ",". A zero total (no reads
// either way) yields 0.000:0.000 rather than a division fault.
func FormatSupportRatio(varReads []int, refReads int) string {
	pairs := make([]string, len(varReads))
	for i, vr := range varReads {
		total := vr + refReads
		if total == 0 {
			pairs[i] = "0.000:0.000"
			continue
		}
		varPct := float64(vr) / float64(total)
		refPct := float64(refReads) / float64(total)
		pairs[i] = fmt.Sprintf("%.3f:%.3f", varPct, refPct)
	}
	return strings.Join(pairs, ",")
}
