package review

import (
	"time"

	"github.com/phrazzld/lexis/internal/config"
	"github.com/phrazzld/lexis/internal/events"
	"go.opentelemetry.io/otel/trace"
)

// Options tunes a review service. Zero values fall back to the defaults in
// DefaultOptions.
type Options struct {
	// DefaultQueueLimit is used when GetReviewQueue receives a non-positive limit.
	DefaultQueueLimit int
	// MaxQueueLimit caps the requested limit.
	MaxQueueLimit int
	// MinQueueSize is the size below which the queue is backfilled with new items.
	MinQueueSize int
	// Location is the timezone for calendar-day statistics.
	Location *time.Location
	// Now is the service clock.
	Now func() time.Time
	// Emitter receives ProgressChangedEvents after commit.
	Emitter events.EventEmitter
	// Tracer records spans for each operation.
	Tracer trace.Tracer
}

// DefaultOptions returns the built-in queue sizes, UTC, the wall clock and no emitter.
func DefaultOptions() Options {
	return Options{
		DefaultQueueLimit: 20,
		MaxQueueLimit:     100,
		MinQueueSize:      5,
		Location:          time.UTC,
		Now:               time.Now,
	}
}

// OptionsFromConfig maps scheduler configuration onto Options.
func OptionsFromConfig(cfg config.SchedulerConfig) Options {
	opts := DefaultOptions()
	opts.DefaultQueueLimit = cfg.DefaultQueueLimit
	opts.MaxQueueLimit = cfg.MaxQueueLimit
	opts.MinQueueSize = cfg.MinQueueSize
	opts.Location = cfg.Location()
	return opts
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DefaultQueueLimit <= 0 {
		o.DefaultQueueLimit = d.DefaultQueueLimit
	}
	if o.MaxQueueLimit <= 0 {
		o.MaxQueueLimit = d.MaxQueueLimit
	}
	if o.DefaultQueueLimit > o.MaxQueueLimit {
		o.DefaultQueueLimit = o.MaxQueueLimit
	}
	if o.MinQueueSize < 0 {
		o.MinQueueSize = 0
	}
	if o.Location == nil {
		o.Location = d.Location
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	if o.Emitter == nil {
		o.Emitter = events.NopEmitter{}
	}
	return o
}
