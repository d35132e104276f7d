package farm

import "math/rand"

const (
	WeatherSunny  = "Sunny"
	WeatherCloudy = "Cloudy"
	WeatherRainy  = "Rainy"
	WeatherStormy = "Stormy"
)

var weatherKinds = [4]string{WeatherSunny, WeatherCloudy, WeatherRainy, WeatherStormy}

func validWeatherKind(k string) bool {
	for _, known := range weatherKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Weather rolls for a new state every ChangeSeconds of real update time. On
// each roll a change happens with probability ChangeChance; the replacement is
// picked uniformly among the other kinds and the timer resets either way.
type Weather struct {
	Kind        string
	Temperature float64
	Humidity    float64
	WindSpeed   float64

	ChangeSeconds float64
	ChangeChance  float64

	timer float64
}

type weatherRange struct {
	tempLo, tempHi float64
	humLo, humHi   float64
	windLo, windHi float64
}

var weatherRanges = map[string]weatherRange{
	WeatherSunny:  {18, 30, 0.20, 0.50, 0, 10},
	WeatherCloudy: {12, 22, 0.40, 0.70, 5, 15},
	WeatherRainy:  {8, 18, 0.70, 1.00, 10, 25},
	WeatherStormy: {5, 15, 0.80, 1.00, 25, 50},
}

func NewWeather(changeSeconds, changeChance float64, rng *rand.Rand) *Weather {
	w := &Weather{
		Kind:          WeatherSunny,
		ChangeSeconds: changeSeconds,
		ChangeChance:  changeChance,
	}
	w.rollConditions(rng)
	return w
}

// Advance accumulates real seconds and reports whether the kind changed.
func (w *Weather) Advance(dt float64, rng *rand.Rand) bool {
	w.timer += dt
	if w.timer < w.ChangeSeconds {
		return false
	}
	w.timer = 0
	if rng.Float64() >= w.ChangeChance {
		return false
	}

	others := make([]string, 0, 3)
	for _, k := range weatherKinds {
		if k != w.Kind {
			others = append(others, k)
		}
	}
	w.Kind = others[rng.Intn(len(others))]
	w.rollConditions(rng)
	return true
}

func (w *Weather) rollConditions(rng *rand.Rand) {
	r := weatherRanges[w.Kind]
	w.Temperature = r.tempLo + rng.Float64()*(r.tempHi-r.tempLo)
	w.Humidity = r.humLo + rng.Float64()*(r.humHi-r.humLo)
	w.WindSpeed = r.windLo + rng.Float64()*(r.windHi-r.windLo)
}

// GrowthMultiplier scales crop growth speed per weather kind.
func GrowthMultiplier(kind string) float64 {
	switch kind {
	case WeatherCloudy:
		return 1.1
	case WeatherRainy:
		return 1.3
	case WeatherStormy:
		return 0.7
	default:
		return 1.0
	}
}

// YieldMultiplier scales harvest amounts per weather kind.
func YieldMultiplier(kind string) float64 {
	switch kind {
	case WeatherCloudy:
		return 1.05
	case WeatherRainy:
		return 1.2
	case WeatherStormy:
		return 0.8
	default:
		return 1.0
	}
}
