package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/gridlake/internal/domain/model"
)

// Processor handles one resource.
type Processor interface {
	Process(ctx context.Context, d model.ResourceDescriptor, rng model.DateRange) model.Outcome
}

// Dispatcher fans resources out to one goroutine each and joins them.
type Dispatcher struct {
	unit Processor
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(unit Processor) *Dispatcher {
	return &Dispatcher{unit: unit}
}

// Run processes every descriptor concurrently. out[i] always belongs to descriptors[i].
func (d *Dispatcher) Run(ctx context.Context, descriptors []model.ResourceDescriptor, rng model.DateRange) []model.Outcome {
	out := make([]model.Outcome, len(descriptors))
	var wg sync.WaitGroup
	for i, desc := range descriptors {
		wg.Add(1)
		go func(i int, desc model.ResourceDescriptor) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					out[i] = model.Failed(desc, fmt.Errorf("%w: %v", ErrUnitPanic, r))
				}
			}()
			out[i] = d.unit.Process(ctx, desc, rng)
		}(i, desc)
	}
	wg.Wait()
	return out
}
