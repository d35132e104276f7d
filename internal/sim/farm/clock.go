package farm

import (
	"fmt"
	"math"
)

// Clock tracks in-game time. timeScale converts real seconds to game minutes
// (scale/60 game-minutes per real second, so 60 means one game minute per
// real second). Whole minutes are applied with carry; the fractional remainder
// stays in acc so no time is lost between ticks.
type Clock struct {
	Hour      int
	Minute    int
	Day       int // 1..30
	Season    string
	Year      int
	TimeScale float64

	acc float64 // fractional game-minutes
}

func NewClock(timeScale float64) *Clock {
	if timeScale <= 0 {
		timeScale = 60
	}
	return &Clock{
		Hour:      6,
		Minute:    0,
		Day:       1,
		Season:    SeasonSpring,
		Year:      1,
		TimeScale: timeScale,
	}
}

// Advance applies dt real seconds and returns how many day boundaries were
// crossed. Carry order: minute -> hour -> day -> season -> year.
func (c *Clock) Advance(dt float64) int {
	if dt <= 0 {
		return 0
	}
	c.acc += dt * c.TimeScale / 60.0
	whole := int(math.Floor(c.acc))
	if whole <= 0 {
		return 0
	}
	c.acc -= float64(whole)

	days := 0
	c.Minute += whole
	for c.Minute >= 60 {
		c.Minute -= 60
		c.Hour++
	}
	for c.Hour >= 24 {
		c.Hour -= 24
		c.Day++
		days++
	}
	for c.Day > daysPerSeason {
		c.Day -= daysPerSeason
		if next := seasonIndex(c.Season) + 1; next >= len(seasonOrder) {
			c.Season = seasonOrder[0]
			c.Year++
		} else {
			c.Season = seasonOrder[next]
		}
	}
	return days
}

func (c *Clock) IsDaytime() bool {
	return c.Hour >= 6 && c.Hour < 20
}

func (c *Clock) Formatted() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}
