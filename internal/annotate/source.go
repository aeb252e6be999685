package annotate

import (
	"fmt"

	"github.com/inodb/vibe-annotate/internal/vcf"
)

// EffectSource resolves variant effects for a whole batch in one call.
// Implementations return one effect per variant, in submission order.
type EffectSource interface {
	Name() string // e.g. "vep"
	Effects(variants []*vcf.Variant) ([]string, error)
}

// FrequencySource resolves population allele frequencies for a whole batch
// in one call. Implementations return one formatted frequency per variant,
// in submission order, using "." for variants the population data does not
// cover.
type FrequencySource interface {
	Name() string // e.g. "exac"
	Frequencies(variants []*vcf.Variant) ([]string, error)
}

// CachedAnnotation holds the enrichment results for one variant as stored
// in an annotation cache.
type CachedAnnotation struct {
	Effect     string
	AlleleFreq string
}

// AnnotationCache stores enrichment results between runs. Lookup returns
// hits keyed by Variant.Key(); Save persists the enrichment fields of
// already-enriched variants. A cache is an optimization only: lookups and
// saves may fail without affecting correctness.
type AnnotationCache interface {
	Lookup(variants []*vcf.Variant) (map[string]CachedAnnotation, error)
	Save(variants []*vcf.Variant) error
}

// CardinalityError reports a source response whose length differs from the
// submitted batch. Applying such a response would assign annotations to the
// wrong variants, so the run aborts before any variant of the batch is
// written.
type CardinalityError struct {
	Source string
	Want   int
	Got    int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("%s returned %d results for a batch of %d variants", e.Source, e.Got, e.Want)
}
