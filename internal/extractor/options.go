package extractor

import "time"

// Clock returns the current time.
type Clock func() time.Time

// Option is a functional option for configuring Extractor.
type Option func(*Extractor)

// WithClock sets the time source of the "bugün" rule.
func WithClock(clock Clock) Option {
	return func(e *Extractor) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLocation sets the time zone the "bugün" rule resolves the weekday in.
func WithLocation(loc *time.Location) Option {
	return func(e *Extractor) {
		if loc != nil {
			e.loc = loc
		}
	}
}
