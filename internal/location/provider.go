// Package location abstracts the source of position samples.
package location

import (
	"context"

	"github.com/placepulse/fencewatch/internal/model"
)

// Provider yields the current position or fails. A failed sample is
// tick-local: the monitor skips the tick and retries on the next one.
type Provider interface {
	Current(ctx context.Context) (model.Coordinate, error)
}

// Static always reports the same coordinate. Useful for demos and tests.
type Static struct {
	Coord model.Coordinate
}

func (s Static) Current(context.Context) (model.Coordinate, error) {
	return s.Coord, nil
}
