package app

import "time"

// Options holds the battle timing constants.
type Options struct {
	TotalRounds       int
	PresentationDelay time.Duration
	RevealDelay       time.Duration
	RoundGrace        time.Duration
	PersistTimeout    time.Duration
}

// DefaultOptions returns 5 rounds, a 3s matched animation, a 3s answer reveal and a 1s timeout grace.
func DefaultOptions() Options {
	return Options{
		TotalRounds:       5,
		PresentationDelay: 3 * time.Second,
		RevealDelay:       3 * time.Second,
		RoundGrace:        time.Second,
		PersistTimeout:    5 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.TotalRounds <= 0 {
		o.TotalRounds = def.TotalRounds
	}
	if o.PresentationDelay < 0 {
		o.PresentationDelay = def.PresentationDelay
	}
	if o.RevealDelay < 0 {
		o.RevealDelay = def.RevealDelay
	}
	if o.RoundGrace < 0 {
		o.RoundGrace = def.RoundGrace
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = def.PersistTimeout
	}
	return o
}
