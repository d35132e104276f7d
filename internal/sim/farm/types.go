package farm

import (
	"math"

	"farmgrid.io/internal/protocol"
)

// CellSize is the world-unit side length of one field cell. Field state and
// crops are addressed by CellKey, never by raw world coordinates.
const CellSize = 2.0

// CellKey identifies a 2x2 world-unit field cell by rounded grid coordinates.
type CellKey struct {
	X int `json:"x"`
	Z int `json:"z"`
}

func cellForPos(p protocol.Vec3) CellKey {
	return CellKey{
		X: int(math.Round(p.X / CellSize)),
		Z: int(math.Round(p.Z / CellSize)),
	}
}

func cellCenter(k CellKey) protocol.Vec3 {
	return protocol.Vec3{X: float64(k.X) * CellSize, Y: 0, Z: float64(k.Z) * CellSize}
}

func (k CellKey) less(o CellKey) bool {
	if k.X != o.X {
		return k.X < o.X
	}
	return k.Z < o.Z
}

// Seasons in rollover order. Winter wraps to Spring and increments the year.
const (
	SeasonSpring = "Spring"
	SeasonSummer = "Summer"
	SeasonFall   = "Fall"
	SeasonWinter = "Winter"
)

var seasonOrder = [4]string{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter}

func seasonIndex(s string) int {
	for i, name := range seasonOrder {
		if name == s {
			return i
		}
	}
	return 0
}

func validSeason(s string) bool {
	for _, name := range seasonOrder {
		if name == s {
			return true
		}
	}
	return false
}

// daysPerSeason is fixed: day runs 1..30, then the season advances.
const daysPerSeason = 30

// elapsedDays counts whole in-game days from (fromDay, fromSeason) to
// (toDay, toSeason), treating the season cycle as circular. Crop growth,
// field decay, and animal aging all share this arithmetic; a full-year wrap
// is indistinguishable from zero elapsed seasons.
func elapsedDays(fromDay int, fromSeason string, toDay int, toSeason string) int {
	seasons := (seasonIndex(toSeason) - seasonIndex(fromSeason) + 4) % 4
	return (toDay - fromDay) + daysPerSeason*seasons
}

func distXZ(a, b protocol.Vec3) float64 {
	dx := a.X - b.X
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dz*dz)
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
