package options

import "time"

// DefaultOptions mirrors the reference attack: 1000 restarts of 1000 swaps
// each, a 300 second wall-clock budget and a top-3 report.
var DefaultOptions = SearchOptions{
	MaxIterations: 1000,
	TimeLimit:     300 * time.Second,
	Steps:         1000,
	TopK:          3,
	Now:           time.Now,
}

type SearchOptions struct {
	MaxIterations int           // number of restarts
	TimeLimit     time.Duration // checked once per restart, 0 disables it
	Steps         int           // swaps tried per restart
	TopK          int           // candidates kept by the result tracker
	Seed          uint64
	Seeded        bool // use Seed instead of a random seed
	Now           func() time.Time
}

type Options interface {
	Apply(options *SearchOptions)
}

type FuncConfig struct {
	ops func(options *SearchOptions)
}

func (w FuncConfig) Apply(conf *SearchOptions) {
	w.ops(conf)
}

func NewFuncOption(f func(options *SearchOptions)) *FuncConfig {
	return &FuncConfig{ops: f}
}

// Resolve applies opts on top of DefaultOptions.
func Resolve(opts ...Options) SearchOptions {
	o := DefaultOptions
	for _, opt := range opts {
		if opt != nil {
			opt.Apply(&o)
		}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

func WithMaxIterations(n int) Options {
	return NewFuncOption(func(options *SearchOptions) {
		options.MaxIterations = n
	})
}

func WithTimeLimit(d time.Duration) Options {
	return NewFuncOption(func(options *SearchOptions) {
		options.TimeLimit = d
	})
}

func WithSteps(n int) Options {
	return NewFuncOption(func(options *SearchOptions) {
		options.Steps = n
	})
}

func WithTopK(k int) Options {
	return NewFuncOption(func(options *SearchOptions) {
		options.TopK = k
	})
}

// WithSeed makes the restart sequence reproducible.
func WithSeed(seed uint64) Options {
	return NewFuncOption(func(options *SearchOptions) {
		options.Seed = seed
		options.Seeded = true
	})
}

// WithClock replaces time.Now for the time budget check.
func WithClock(now func() time.Time) Options {
	return NewFuncOption(func(options *SearchOptions) {
		options.Now = now
	})
}
