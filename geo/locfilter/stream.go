package locfilter

import (
	"context"

	"github.com/rotblauer/fixd/types/fix"
)

// Stream runs every fix received from in through the filter on a single goroutine
// and sends the results, in order, on the returned channel.
// The output channel is closed when in is closed or ctx is done.
// The filter must not be used by anything else while the stream runs.
func (f *Filter) Stream(ctx context.Context, in <-chan fix.RawFix) <-chan fix.SmoothedFix {
	out := make(chan fix.SmoothedFix)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}
				select {
				case <-ctx.Done():
					return
				case out <- f.Update(raw):
				}
			}
		}
	}()
	return out
}
