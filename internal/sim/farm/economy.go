package farm

import "math"

func (f *Farm) Money() int { return f.money }

func (f *Farm) Inventory() map[string]int {
	out := make(map[string]int, len(f.inventory))
	for k, v := range f.inventory {
		out[k] = v
	}
	return out
}

func (f *Farm) MarketPrices() map[string]int {
	out := make(map[string]int, len(f.marketPrices))
	for k, v := range f.marketPrices {
		out[k] = v
	}
	return out
}

func (f *Farm) SeedPrices() map[string]int {
	out := make(map[string]int, len(f.catalogs.Crops.IDs))
	for _, id := range f.catalogs.Crops.IDs {
		out[id] = f.catalogs.Crops.ByID[id].SeedPrice
	}
	return out
}

func (f *Farm) storageUsed() int {
	used := 0
	for _, n := range f.inventory {
		used += n
	}
	return used
}

// StorageCapacity is recomputed from equipment and buildings on every call,
// never cached, so newly bought silos apply immediately.
func (f *Farm) StorageCapacity() int {
	return f.tune.BaseStorage + f.CombinedEquipmentEffects().StorageCapacity + f.totalBuildingStorage()
}

// addToInventory stores up to qty units and reports how many fit. This is the
// one operation that may apply partially: when the remaining capacity is
// smaller than qty it fills to capacity and returns full=true.
func (f *Farm) addToInventory(item string, qty int) (added int, full bool) {
	if qty <= 0 {
		return 0, false
	}
	room := f.StorageCapacity() - f.storageUsed()
	if room <= 0 {
		return 0, true
	}
	added = qty
	if added > room {
		added = room
		full = true
	}
	f.inventory[item] += added
	return added, full
}

// buySeeds is a plain ledger debit: planting itself is not seed-gated, so the
// purchase succeeds on sufficient cash alone.
func (f *Farm) buySeeds(cropType string, qty int) bool {
	def, known := f.catalogs.Crops.ByID[cropType]
	if !known || qty <= 0 {
		return false
	}
	cost := def.SeedPrice * qty
	if f.money < cost {
		return false
	}
	f.setMoney(f.money - cost)
	return true
}

// sellCrop removes qty units and credits cash at the current market price.
// Fails without partial effect when the inventory holds fewer than qty.
func (f *Farm) sellCrop(cropType string, qty int) (credit int, ok bool) {
	price, known := f.marketPrices[cropType]
	if !known || qty <= 0 {
		return 0, false
	}
	if f.inventory[cropType] < qty {
		return 0, false
	}
	f.inventory[cropType] -= qty
	if f.inventory[cropType] == 0 {
		delete(f.inventory, cropType)
	}
	credit = price * qty
	f.setMoney(f.money + credit)
	return credit, true
}

func (f *Farm) sellAllOfType(cropType string) (qty, credit int) {
	qty = f.inventory[cropType]
	if qty == 0 {
		return 0, 0
	}
	credit, _ = f.sellCrop(cropType, qty)
	return qty, credit
}

// sellAllCrops liquidates every priced item and returns the per-type quantity
// sold.
func (f *Farm) sellAllCrops() map[string]int {
	sold := map[string]int{}
	for _, item := range sortedMapKeys(f.inventory) {
		if _, priced := f.marketPrices[item]; !priced {
			continue
		}
		if qty, _ := f.sellAllOfType(item); qty > 0 {
			sold[item] = qty
		}
	}
	return sold
}

// advanceEconomy feeds the market accumulator with real update seconds and
// re-rolls prices at each threshold crossing.
func (f *Farm) advanceEconomy(dt float64) bool {
	f.priceTimer += dt
	if f.priceTimer < f.tune.MarketUpdateSeconds {
		return false
	}
	f.priceTimer = 0
	f.updateMarketPrices()
	return true
}

// updateMarketPrices re-randomizes each crop's price around its base:
// round(base * (1 + uniform(-jitter, jitter))), floored at 1.
func (f *Farm) updateMarketPrices() {
	for _, id := range f.catalogs.Crops.IDs {
		base := float64(f.catalogs.Crops.ByID[id].BasePrice)
		jitter := (f.rng.Float64()*2 - 1) * f.tune.MarketJitter
		p := int(math.Round(base * (1 + jitter)))
		if p < 1 {
			p = 1
		}
		f.marketPrices[id] = p
	}
}
