package farm

import "sync/atomic"

// Stats are monotonic counters safe to read from other goroutines; the loop
// is the only writer.
type Stats struct {
	Ticks          atomic.Uint64
	CommandsOK     atomic.Uint64
	CommandsFailed atomic.Uint64
	EventsEmitted  atomic.Uint64
	WeatherChanges atomic.Uint64
	DaysElapsed    atomic.Uint64
	SavesTotal     atomic.Uint64
	LoadsTotal     atomic.Uint64
	Sessions       atomic.Int64
}

func (f *Farm) Stats() *Stats { return &f.stats }
