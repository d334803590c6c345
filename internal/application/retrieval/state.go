// Package retrieval adapts the listings API into stateful retrievers that
// presentation code renders from. Each retriever owns a {Result, Loading,
// Error} tuple, notifies subscribers whenever it changes and can be refetched
// on demand. Retrievers never share state with each other.
package retrieval

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultSearchDebounce is the quiet period a Search waits for before querying.
const DefaultSearchDebounce = 300 * time.Millisecond

// State is the render-facing snapshot of a retriever.
type State[T any] struct {
	Result  T      `json:"result"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether the last settled attempt failed.
func (s State[T]) Failed() bool {
	return s.Error != ""
}

// Listener receives the snapshot current at Subscribe and then every state
// change, synchronously and in order. It must not call Subscribe or mutating
// methods of the same retriever on its own goroutine.
type Listener[T any] func(State[T])

// Option tunes a retriever.
type Option func(*options)

type options struct {
	debounce time.Duration
	logger   zerolog.Logger
}

func defaultOptions() options {
	return options{
		debounce: DefaultSearchDebounce,
		logger:   log.Logger,
	}
}

// WithDebounce overrides the Search quiet period. Non-positive values disable debouncing.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		o.debounce = d
	}
}

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
