package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	TickRateHz int     `yaml:"tick_rate_hz"`
	TimeScale  float64 `yaml:"time_scale"` // sim seconds per real second

	StartingMoney int `yaml:"starting_money"`
	BaseStorage   int `yaml:"base_storage"`

	WeatherChangeSeconds float64 `yaml:"weather_change_seconds"`
	WeatherChangeChance  float64 `yaml:"weather_change_chance"`
	MarketUpdateSeconds  float64 `yaml:"market_update_seconds"`
	MarketJitter         float64 `yaml:"market_jitter"`

	HarvestedToStubbleDays int `yaml:"harvested_to_stubble_days"`
	StubbleToUntilledDays  int `yaml:"stubble_to_untilled_days"`

	AutosaveEveryTicks int    `yaml:"autosave_every_ticks"`
	AutosaveSlot       string `yaml:"autosave_slot"`

	Cooldowns Cooldowns `yaml:"cooldowns"`
}

type Cooldowns struct {
	TillSeconds    float64 `yaml:"till_seconds"`
	PlantSeconds   float64 `yaml:"plant_seconds"`
	HarvestSeconds float64 `yaml:"harvest_seconds"`
}

func Load(path string) (Tuning, error) {
	var t Tuning
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Defaults returns the tuning applied when no tuning.yaml is available
// (e.g. resuming from a save on a fresh checkout).
func Defaults() Tuning {
	return Tuning{
		ProtocolVersion:        "1.0",
		TickRateHz:             10,
		TimeScale:              60,
		StartingMoney:          500,
		BaseStorage:            500,
		WeatherChangeSeconds:   300,
		WeatherChangeChance:    0.3,
		MarketUpdateSeconds:    300,
		MarketJitter:           0.2,
		HarvestedToStubbleDays: 2,
		StubbleToUntilledDays:  5,
		AutosaveEveryTicks:     3000,
		AutosaveSlot:           "autosave",
		Cooldowns: Cooldowns{
			TillSeconds:    0.5,
			PlantSeconds:   0.5,
			HarvestSeconds: 0.8,
		},
	}
}
