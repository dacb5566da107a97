package taskwatch

import "time"

// Default configuration values, named in spec.md section 6.
const (
	DefaultEventBufferCapacity  = 102_400
	DefaultClientBufferCapacity = 4_096
	DefaultPublishInterval      = time.Second
	DefaultRetention            = time.Hour
	DefaultServerAddr           = "127.0.0.1:6669"
)

// Builder configures an Aggregator before it is built, in the same
// functional-options shape the teacher uses for eventloop.Option and
// catrate.NewLimiter's parameter validation.
type Builder struct {
	eventBufferCapacity  int
	clientBufferCapacity int
	publishInterval      time.Duration
	retention            time.Duration
	serverAddr           string
	logger               Logger
	burstRates           map[time.Duration]int
}

// NewBuilder returns a Builder pre-populated with the documented defaults.
func NewBuilder() *Builder {
	return &Builder{
		eventBufferCapacity:  DefaultEventBufferCapacity,
		clientBufferCapacity: DefaultClientBufferCapacity,
		publishInterval:      DefaultPublishInterval,
		retention:            DefaultRetention,
		serverAddr:           DefaultServerAddr,
		logger:               defaultLogger(),
	}
}

// WithEventBufferCapacity sets the bounded intake channel's capacity.
func (b *Builder) WithEventBufferCapacity(n int) *Builder {
	b.eventBufferCapacity = n
	return b
}

// WithClientBufferCapacity sets the per-subscriber channel buffer size used
// by new subscriptions that don't specify their own.
func (b *Builder) WithClientBufferCapacity(n int) *Builder {
	b.clientBufferCapacity = n
	return b
}

// WithPublishInterval sets how often the instrument stream is flushed to
// watchers.
func (b *Builder) WithPublishInterval(d time.Duration) *Builder {
	b.publishInterval = d
	return b
}

// WithRetention sets how long a closed entity is kept after closing, absent
// live watchers still owed its final state.
func (b *Builder) WithRetention(d time.Duration) *Builder {
	b.retention = d
	return b
}

// WithServerAddr sets the address string carried for the benefit of an
// out-of-scope RPC transport; the Aggregator itself never dials or listens
// on it.
func (b *Builder) WithServerAddr(addr string) *Builder {
	b.serverAddr = addr
	return b
}

// WithLogger overrides the structured logger used for subscription
// lifecycle, GC, and warning diagnostics. See logging.go.
func (b *Builder) WithLogger(l Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

// WithBurstRates overrides the sliding-window budgets BurstDetector uses to
// classify sustained drop bursts; see diagnostics.go.
func (b *Builder) WithBurstRates(rates map[time.Duration]int) *Builder {
	b.burstRates = rates
	return b
}

// Build validates the configuration and constructs an Aggregator. The
// returned Aggregator is not yet running; call Run on it, typically from a
// dedicated goroutine.
func (b *Builder) Build() (*Aggregator, error) {
	if b.eventBufferCapacity <= 0 || b.clientBufferCapacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	if b.publishInterval <= 0 {
		return nil, ErrInvalidPublishInterval
	}
	if b.retention < 0 {
		return nil, ErrInvalidRetention
	}

	return newAggregator(b), nil
}
