// Package annotate coordinates batched variant enrichment against the
// external effect and frequency services.
package annotate

import (
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-annotate/internal/vcf"
)

// DefaultBatchSize is the largest batch the enrichment services accept in
// one request.
const DefaultBatchSize = 200

// Coordinator accumulates parsed variants and enriches them batch by batch.
// A batch is enriched when it reaches capacity or when Drain is called at
// end of input; every variant passes through exactly one enrichment cycle.
type Coordinator struct {
	effects   EffectSource
	freqs     FrequencySource
	cache     AnnotationCache
	batchSize int
	pending   []*vcf.Variant
	cacheHits int
	logger    *zap.Logger
}

// NewCoordinator creates a coordinator over the given sources.
func NewCoordinator(effects EffectSource, freqs FrequencySource) *Coordinator {
	return &Coordinator{
		effects:   effects,
		freqs:     freqs,
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
	}
}

// SetBatchSize overrides the batch capacity. Values below one are ignored.
func (c *Coordinator) SetBatchSize(n int) {
	if n > 0 {
		c.batchSize = n
	}
}

// SetCache installs an annotation cache consulted before each enrichment
// round trip.
func (c *Coordinator) SetCache(cache AnnotationCache) {
	c.cache = cache
}

// SetLogger sets the logger for warning and debug messages.
func (c *Coordinator) SetLogger(l *zap.Logger) {
	c.logger = l
}

// CacheHits returns how many variants were served from the annotation cache.
func (c *Coordinator) CacheHits() int {
	return c.cacheHits
}

// Pending returns how many variants are buffered awaiting enrichment.
func (c *Coordinator) Pending() int {
	return len(c.pending)
}

// Add queues a variant. When the buffer reaches capacity it is enriched and
// returned in submission order; otherwise Add returns nil.
func (c *Coordinator) Add(v *vcf.Variant) ([]*vcf.Variant, error) {
	c.pending = append(c.pending, v)
	if len(c.pending) < c.batchSize {
		return nil, nil
	}
	return c.flush()
}

// Drain enriches and returns whatever is buffered. At end of input a batch
// boundary may leave nothing pending, in which case Drain returns nil
// without touching the services.
func (c *Coordinator) Drain() ([]*vcf.Variant, error) {
	if len(c.pending) == 0 {
		return nil, nil
	}
	return c.flush()
}

func (c *Coordinator) flush() ([]*vcf.Variant, error) {
	batch := c.pending
	c.pending = nil

	misses, err := c.applyCached(batch)
	if err != nil {
		return nil, err
	}

	if len(misses) > 0 {
		if err := c.enrich(misses); err != nil {
			return nil, err
		}
		c.saveCached(misses)
	}

	c.logger.Debug("batch enriched",
		zap.Int("variants", len(batch)),
		zap.Int("fetched", len(misses)))

	return batch, nil
}

// enrich fetches effects and frequencies for the batch. The two calls are
// independent of each other, so they run concurrently; results are applied
// only after both have returned.
func (c *Coordinator) enrich(batch []*vcf.Variant) error {
	var (
		g       errgroup.Group
		effects []string
		freqs   []string
	)

	g.Go(func() error {
		var err error
		effects, err = c.effects.Effects(batch)
		return err
	})
	g.Go(func() error {
		var err error
		freqs, err = c.freqs.Frequencies(batch)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if len(effects) != len(batch) {
		return &CardinalityError{Source: c.effects.Name(), Want: len(batch), Got: len(effects)}
	}
	if len(freqs) != len(batch) {
		return &CardinalityError{Source: c.freqs.Name(), Want: len(batch), Got: len(freqs)}
	}

	for i, v := range batch {
		if err := v.SetEffect(effects[i]); err != nil {
			return err
		}
		if err := v.SetAlleleFreq(freqs[i]); err != nil {
			return err
		}
	}

	return nil
}

// applyCached fills enrichment fields for variants the cache already knows
// and returns the ones still needing a service round trip. A failed lookup
// degrades to fetching the full batch.
func (c *Coordinator) applyCached(batch []*vcf.Variant) ([]*vcf.Variant, error) {
	if c.cache == nil {
		return batch, nil
	}

	cached, err := c.cache.Lookup(batch)
	if err != nil {
		c.logger.Warn("annotation cache lookup failed", zap.Error(err))
		return batch, nil
	}

	var misses []*vcf.Variant
	for _, v := range batch {
		hit, ok := cached[v.Key()]
		if !ok {
			misses = append(misses, v)
			continue
		}
		if err := v.SetEffect(hit.Effect); err != nil {
			return nil, err
		}
		if err := v.SetAlleleFreq(hit.AlleleFreq); err != nil {
			return nil, err
		}
		c.cacheHits++
	}

	return misses, nil
}

// saveCached persists freshly fetched annotations. Failures are logged and
// otherwise ignored; the batch is already enriched.
func (c *Coordinator) saveCached(variants []*vcf.Variant) {
	if c.cache == nil {
		return
	}

	if err := c.cache.Save(variants); err != nil {
		c.logger.Warn("annotation cache save failed", zap.Error(err))
	}
}
