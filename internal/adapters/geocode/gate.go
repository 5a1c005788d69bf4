package geocode

import (
	"artist-discovery-service/internal/platform/obs"
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinInterval keeps outbound traffic under the public Nominatim
// ceiling of one request per second.
const DefaultMinInterval = 1100 * time.Millisecond

// Gate admits at most one outbound request per interval across every caller
// that shares it. A caller arriving early waits out the remainder of the
// interval measured from the previous dispatch.
type Gate struct {
	limiter  *rate.Limiter
	interval time.Duration
	metrics  *obs.Metrics
}

func NewGate(interval time.Duration, metrics *obs.Metrics) *Gate {
	if interval <= 0 {
		interval = DefaultMinInterval
	}
	return &Gate{
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		interval: interval,
		metrics:  metrics,
	}
}

// Wait blocks until the caller may dispatch or ctx is done.
func (g *Gate) Wait(ctx context.Context) error {
	start := time.Now()
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate gate: %w", err)
	}
	g.metrics.GateWait(time.Since(start))
	return nil
}

func (g *Gate) Interval() time.Duration { return g.interval }
