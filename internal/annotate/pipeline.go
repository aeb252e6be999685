package annotate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-annotate/internal/vcf"
)

// VariantWriter defines the interface for writing enriched variants.
type VariantWriter interface {
	WriteHeader() error
	Write(v *vcf.Variant) error
	Flush() error
}

// Stats summarizes a completed run.
type Stats struct {
	Variants  int // variants read and written
	Batches   int // enrichment batches flushed
	CacheHits int // variants served from the annotation cache
}

// Pipeline drives variants from a parser through batched enrichment to a
// writer. Batches are strictly sequential: a batch is fully written before
// the next one starts accumulating.
type Pipeline struct {
	coordinator *Coordinator
	logger      *zap.Logger
}

// NewPipeline creates a pipeline around the given coordinator.
func NewPipeline(coordinator *Coordinator) *Pipeline {
	return &Pipeline{
		coordinator: coordinator,
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger for progress messages.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
}

// Run processes the whole input. On any fatal error the current batch is
// abandoned unwritten and the error is returned; batches already written
// stay written.
func (p *Pipeline) Run(parser vcf.VariantParser, writer VariantWriter) (*Stats, error) {
	if err := writer.WriteHeader(); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	stats := &Stats{}
	for {
		v, err := parser.Next()
		if err != nil {
			return nil, fmt.Errorf("read variant: %w", err)
		}
		if v == nil {
			break
		}
		stats.Variants++

		batch, err := p.coordinator.Add(v)
		if err != nil {
			return nil, err
		}
		if err := p.writeBatch(writer, batch, stats); err != nil {
			return nil, err
		}
	}

	batch, err := p.coordinator.Drain()
	if err != nil {
		return nil, err
	}
	if err := p.writeBatch(writer, batch, stats); err != nil {
		return nil, err
	}

	if err := writer.Flush(); err != nil {
		return nil, fmt.Errorf("flush output: %w", err)
	}

	stats.CacheHits = p.coordinator.CacheHits()
	return stats, nil
}

func (p *Pipeline) writeBatch(writer VariantWriter, batch []*vcf.Variant, stats *Stats) error {
	if len(batch) == 0 {
		return nil
	}

	for _, v := range batch {
		if err := writer.Write(v); err != nil {
			return fmt.Errorf("write variant: %w", err)
		}
	}
	// Flushing per batch keeps completed batches on disk even when a later
	// batch aborts the run.
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	stats.Batches++

	p.logger.Info("batch written",
		zap.Int("variants", len(batch)),
		zap.Int("total", stats.Variants))

	return nil
}
