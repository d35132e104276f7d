package farm

// equipmentPurchase flips the owned flag only. Cash deduction belongs to the
// command layer so check-then-mutate stays in one place.
func (f *Farm) equipmentPurchase(id string) bool {
	if _, known := f.catalogs.Equipment.ByID[id]; !known {
		return false
	}
	if f.ownedEquipment[id] {
		return false
	}
	f.ownedEquipment[id] = true
	return true
}

func (f *Farm) OwnsEquipment(id string) bool { return f.ownedEquipment[id] }

func (f *Farm) OwnedEquipment() []string { return sortedStrings(f.ownedEquipment) }

// CombinedEquipmentEffects folds the effects of every owned item. The fold is
// commutative, so acquisition order never changes the result.
func (f *Farm) CombinedEquipmentEffects() EffectSet {
	e := NeutralEffects()
	for _, id := range sortedStrings(f.ownedEquipment) {
		def, ok := f.catalogs.Equipment.ByID[id]
		if !ok {
			continue
		}
		e = e.apply(def.Effects)
	}
	return e
}
