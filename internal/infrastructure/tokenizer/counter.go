package tokenizer

import (
	"fmt"

	"github.com/jbctechsolutions/modelbridge/internal/application/ports"
	"github.com/jbctechsolutions/modelbridge/internal/domain/errors"
	"github.com/jbctechsolutions/modelbridge/internal/domain/model"
)

// Counter implements ports.TokenCounter on top of the registry. Counting is
// exact for well-formed segments and deterministic for identical input.
type Counter struct {
	registry *Registry
}

// Ensure Counter implements ports.TokenCounter.
var _ ports.TokenCounter = (*Counter)(nil)

// NewCounter creates a counter backed by the given registry.
func NewCounter(registry *Registry) *Counter {
	return &Counter{registry: registry}
}

// Count returns the exact token total for adapted segments. Families whose
// artifacts never resolved fail with ErrTokenizerUnavailable; calling code
// treats that as "use provider-reported usage only" and continues.
func (c *Counter) Count(family model.Family, segments []model.Segment) (int, error) {
	bundle, err := c.resolve(family)
	if err != nil {
		return 0, err
	}
	return bundle.CountSegments(segments)
}

// CountText counts plain text without template structure.
func (c *Counter) CountText(family model.Family, text string) (int, error) {
	bundle, err := c.resolve(family)
	if err != nil {
		return 0, err
	}
	return bundle.CountText(text), nil
}

func (c *Counter) resolve(family model.Family) (*Bundle, error) {
	if family == model.FamilyNone {
		return nil, errors.NewError(errors.CodeTokenizer,
			"binding declares no tokenizer family", errors.ErrTokenizerUnavailable)
	}
	bundle, err := c.registry.Resolve(family)
	if err != nil {
		return nil, errors.NewError(errors.CodeTokenizer,
			fmt.Sprintf("no usable tokenizer for family %s", family),
			errors.ErrTokenizerUnavailable)
	}
	return bundle, nil
}
