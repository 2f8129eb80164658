package norm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/oslo-method/nldnorm/internal/model"
)

// Run executes the configured strategy once and returns the full result.
// A normalizer is terminal: a second Run fails with ErrAlreadyRun.
func (n *Normalizer) Run(ctx context.Context) (*model.Result, error) {
	if n.done {
		return nil, ErrAlreadyRun
	}
	n.done = true

	switch n.strategy {
	case model.StrategyTwoPoint:
		return n.runTwoPoint()
	case model.StrategyFindNorm:
		return n.runFindNorm(ctx)
	default:
		// Unreachable: constructors close the strategy set.
		return nil, eris.Wrapf(ErrUnknownStrategy, "%q", n.strategy)
	}
}
