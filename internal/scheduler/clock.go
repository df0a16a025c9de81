package scheduler

import "time"

// Clock abstracts wall time and ticker creation so refresh scheduling is
// testable without real waits.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{ticker: time.NewTicker(d)}
}

type systemTicker struct {
	ticker *time.Ticker
}

func (t *systemTicker) Chan() <-chan time.Time { return t.ticker.C }

func (t *systemTicker) Stop() { t.ticker.Stop() }
