package taskwatch

import (
	"time"

	catrate "github.com/joeycumines/go-catrate"
)

// burstRates bounds how many shed events per category are tolerated before
// BurstDetector.Record starts reporting that category as bursting. These
// are deliberately generous - the detector exists to flag sustained
// overload, not to react to an isolated blip.
var burstRates = map[time.Duration]int{
	time.Second: 2000,
	time.Minute: 20000,
}

// BurstDetector supplements the lifetime DropCounts with a windowed view:
// spec.md's shedding policy only ever accumulates flat lifetime counters
// (mirroring original_source's dropped_tasks/dropped_resources/
// dropped_async_ops AtomicUsize fields), which makes it impossible to tell
// a brief blip from a sustained overload after the fact. BurstDetector
// reuses the teacher's own github.com/joeycumines/go-catrate sliding-window
// limiter - one category key per drop category - purely as a classifier:
// Record never blocks or drops anything itself, it only answers "is this
// category currently shedding faster than its budget".
type BurstDetector struct {
	limiter *catrate.Limiter
}

// NewBurstDetector constructs a detector using burstRates as the default
// budget. A nil rates map falls back to burstRates.
func NewBurstDetector(rates map[time.Duration]int) *BurstDetector {
	if len(rates) == 0 {
		rates = burstRates
	}
	return &BurstDetector{limiter: catrate.NewLimiter(rates)}
}

// Record accounts one shed event against cat and reports whether this
// category is currently bursting (i.e. its sliding-window budget is
// exhausted). Called only from the aggregator's own goroutine, sampling the
// shared drop counters rather than from Submit directly - see
// Aggregator.checkBursts. The aggregator logs a warning on the Allowed ->
// bursting transition, not on every subsequent drop, to avoid log spam
// under sustained overload.
func (b *BurstDetector) Record(cat DropCategory) (bursting bool) {
	_, allowed := b.limiter.Allow(cat)
	return !allowed
}
