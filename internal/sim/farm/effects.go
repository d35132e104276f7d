package farm

import "farmgrid.io/internal/sim/catalogs"

// EffectSet is the composed result of folding equipment and attachment effect
// defs. Multiplicative fields start at 1.0 and a catalog value of 0 means
// "unset", so folding is commutative regardless of acquisition order. Storage
// adds; working area takes the widest mounted value.
type EffectSet struct {
	TillingSpeed    float64
	PlantingSpeed   float64
	HarvestSpeed    float64
	CropYield       float64
	Efficiency      float64
	FuelEfficiency  float64
	ProcessingRate  float64
	StorageCapacity int
	WorkingArea     int
}

func NeutralEffects() EffectSet {
	return EffectSet{
		TillingSpeed:   1.0,
		PlantingSpeed:  1.0,
		HarvestSpeed:   1.0,
		CropYield:      1.0,
		Efficiency:     1.0,
		FuelEfficiency: 1.0,
		ProcessingRate: 1.0,
		WorkingArea:    1,
	}
}

func (e EffectSet) apply(d catalogs.EffectDef) EffectSet {
	if d.TillingSpeed > 0 {
		e.TillingSpeed *= d.TillingSpeed
	}
	if d.PlantingSpeed > 0 {
		e.PlantingSpeed *= d.PlantingSpeed
	}
	if d.HarvestSpeed > 0 {
		e.HarvestSpeed *= d.HarvestSpeed
	}
	if d.CropYield > 0 {
		e.CropYield *= d.CropYield
	}
	if d.Efficiency > 0 {
		e.Efficiency *= d.Efficiency
	}
	if d.FuelEfficiency > 0 {
		e.FuelEfficiency *= d.FuelEfficiency
	}
	if d.ProcessingRate > 0 {
		e.ProcessingRate *= d.ProcessingRate
	}
	e.StorageCapacity += d.StorageCapacity
	if d.WorkingArea > e.WorkingArea {
		e.WorkingArea = d.WorkingArea
	}
	return e
}
