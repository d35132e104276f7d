package farm

import (
	"fmt"
	"math"

	"farmgrid.io/internal/protocol"
)

const defaultSaveSlot = "default"

// applyCommand dispatches one wire command. Every compound action runs its
// checks before any mutation; the only partial effect anywhere is the
// inventory fill on harvest overflow.
func (f *Farm) applyCommand(env CommandEnvelope, nowTick uint64) {
	cmd := env.Cmd
	switch cmd.Type {
	case "TILL":
		f.cmdTill(cmd, nowTick)
	case "PLANT":
		f.cmdPlant(cmd, nowTick)
	case "HARVEST":
		f.cmdHarvest(cmd, nowTick)
	case "BUY_SEEDS":
		f.cmdBuySeeds(cmd, nowTick)
	case "SELL_CROP":
		f.cmdSellCrop(cmd, nowTick)
	case "SELL_ALL_CROP":
		f.cmdSellAllCrop(cmd, nowTick)
	case "SELL_ALL_CROPS":
		f.cmdSellAllCrops(cmd, nowTick)
	case "PURCHASE_LAND":
		f.cmdPurchaseLand(cmd, nowTick)
	case "PLACE_BUILDING":
		f.cmdPlaceBuilding(cmd, nowTick)
	case "PURCHASE_EQUIPMENT":
		f.cmdPurchaseEquipment(cmd, nowTick)
	case "PURCHASE_ATTACHMENT":
		f.cmdPurchaseAttachment(cmd, nowTick)
	case "MOUNT_ATTACHMENT":
		f.cmdMountAttachment(cmd, nowTick)
	case "PURCHASE_ANIMAL":
		f.cmdPurchaseAnimal(cmd, nowTick)
	case "FEED_ANIMALS":
		f.cmdFeedAnimals(cmd, nowTick)
	case "COLLECT_PRODUCTS":
		f.cmdCollectProducts(cmd, nowTick)
	case "SET_TRANSFORM":
		f.cmdSetTransform(cmd, nowTick)
	case "MOVE_VEHICLE":
		f.cmdMoveVehicle(cmd, nowTick)
	case "REFUEL_VEHICLE":
		f.cmdRefuelVehicle(cmd, nowTick)
	case "SET_MONEY":
		f.cmdSetMoney(cmd, nowTick)
	case "SAVE":
		f.cmdSave(cmd, nowTick)
	case "LOAD":
		f.cmdLoad(cmd, nowTick)
	case "HAS_SAVE":
		f.cmdHasSave(cmd, nowTick)
	case "DELETE_SAVE":
		f.cmdDeleteSave(cmd, nowTick)
	default:
		f.result(nowTick, cmd.ID, false, protocol.ErrBadRequest, "unknown command")
	}
}

// onCooldown checks the per-command-type gate; armCooldown sets it after a
// successful action, scaled down by the composed speed multiplier.
func (f *Farm) onCooldown(cmdType string, nowTick uint64) bool {
	return nowTick < f.cooldownUntil[cmdType]
}

func (f *Farm) armCooldown(cmdType string, nowTick uint64, baseSeconds, speedMult float64) {
	if baseSeconds <= 0 {
		return
	}
	if speedMult <= 0 {
		speedMult = 1
	}
	ticks := uint64(math.Ceil(baseSeconds / speedMult * float64(f.cfg.TickRateHz)))
	if ticks < 1 {
		ticks = 1
	}
	f.cooldownUntil[cmdType] = nowTick + ticks
}

// neighborhood lists the cells of an odd square of side area centered on c,
// row-major.
func neighborhood(c CellKey, area int) []CellKey {
	if area < 1 {
		area = 1
	}
	if area%2 == 0 {
		area++
	}
	r := area / 2
	cells := make([]CellKey, 0, area*area)
	for dz := -r; dz <= r; dz++ {
		for dx := -r; dx <= r; dx++ {
			cells = append(cells, CellKey{X: c.X + dx, Z: c.Z + dz})
		}
	}
	return cells
}

func (f *Farm) cmdTill(cmd protocol.CommandReq, nowTick uint64) {
	if cmd.Pos == nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrBadRequest, "missing pos")
		return
	}
	if f.onCooldown("TILL", nowTick) {
		f.result(nowTick, cmd.ID, false, protocol.ErrRateLimit, "till on cooldown")
		return
	}

	area := f.workingAreaFor("plow", "cultivator")
	count := 0
	for _, cell := range neighborhood(cellForPos(*cmd.Pos), area) {
		if !f.IsOnOwnedLand(cellCenter(cell)) {
			continue
		}
		if f.till(cell) {
			count++
		}
	}
	if count == 0 {
		if !f.IsOnOwnedLand(*cmd.Pos) {
			f.result(nowTick, cmd.ID, false, protocol.ErrNoLand, "not on owned land")
		} else {
			f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "nothing to till")
		}
		return
	}

	eq := f.CombinedEquipmentEffects()
	at := f.mountedEffects()
	f.armCooldown("TILL", nowTick, f.tune.Cooldowns.TillSeconds, eq.TillingSpeed*at.TillingSpeed)
	f.resultOK(nowTick, cmd.ID, protocol.Event{"count": count})
}

func (f *Farm) cmdPlant(cmd protocol.CommandReq, nowTick uint64) {
	if cmd.Pos == nil || cmd.CropType == "" {
		f.result(nowTick, cmd.ID, false, protocol.ErrBadRequest, "missing pos/crop_type")
		return
	}
	if _, known := f.catalogs.Crops.ByID[cmd.CropType]; !known {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "unknown crop")
		return
	}
	if f.onCooldown("PLANT", nowTick) {
		f.result(nowTick, cmd.ID, false, protocol.ErrRateLimit, "plant on cooldown")
		return
	}

	area := f.workingAreaFor("seeder")
	count := 0
	for _, cell := range neighborhood(cellForPos(*cmd.Pos), area) {
		if f.plantCrop(cmd.CropType, cellCenter(cell)) {
			count++
		}
	}
	if count == 0 {
		if !f.IsOnOwnedLand(*cmd.Pos) {
			f.result(nowTick, cmd.ID, false, protocol.ErrNoLand, "not on owned land")
		} else {
			f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "no tilled cell free")
		}
		return
	}

	eq := f.CombinedEquipmentEffects()
	at := f.mountedEffects()
	f.armCooldown("PLANT", nowTick, f.tune.Cooldowns.PlantSeconds, eq.PlantingSpeed*at.PlantingSpeed)
	f.resultOK(nowTick, cmd.ID, protocol.Event{"count": count, "crop": cmd.CropType})
}

func (f *Farm) cmdHarvest(cmd protocol.CommandReq, nowTick uint64) {
	if cmd.Pos == nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrBadRequest, "missing pos")
		return
	}
	if f.onCooldown("HARVEST", nowTick) {
		f.result(nowTick, cmd.ID, false, protocol.ErrRateLimit, "harvest on cooldown")
		return
	}
	cell := cellForPos(*cmd.Pos)
	c := f.crops[cell]
	if c == nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "no crop here")
		return
	}
	if c.Stage != 3 {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "crop not mature")
		return
	}
	if f.StorageCapacity()-f.storageUsed() <= 0 {
		f.result(nowTick, cmd.ID, false, protocol.ErrStorageFull, "storage full")
		return
	}

	res := f.harvestCrop(*cmd.Pos)
	if res == nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrInternal, "harvest failed")
		return
	}
	stored, partial := f.addToInventory(res.Type, res.Amount)
	f.armCooldown("HARVEST", nowTick, f.tune.Cooldowns.HarvestSeconds, f.CombinedEquipmentEffects().HarvestSpeed)
	f.resultOK(nowTick, cmd.ID, protocol.Event{
		"crop":    res.Type,
		"amount":  res.Amount,
		"stored":  stored,
		"partial": partial,
	})
}

func (f *Farm) cmdBuySeeds(cmd protocol.CommandReq, nowTick uint64) {
	qty := cmd.Qty
	if qty <= 0 {
		qty = 1
	}
	def, known := f.catalogs.Crops.ByID[cmd.CropType]
	if !known {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "unknown crop")
		return
	}
	if !f.buySeeds(cmd.CropType, qty) {
		f.result(nowTick, cmd.ID, false, protocol.ErrNoFunds, "not enough money")
		return
	}
	f.audit(nowTick, "BUY_SEEDS", cmd.CropType, -def.SeedPrice*qty, "")
	f.resultOK(nowTick, cmd.ID, protocol.Event{"crop": cmd.CropType, "qty": qty})
}

func (f *Farm) cmdSellCrop(cmd protocol.CommandReq, nowTick uint64) {
	qty := cmd.Qty
	if qty <= 0 {
		qty = 1
	}
	if _, known := f.marketPrices[cmd.CropType]; !known {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "unknown crop")
		return
	}
	credit, ok := f.sellCrop(cmd.CropType, qty)
	if !ok {
		f.result(nowTick, cmd.ID, false, protocol.ErrNoResource, "not enough in storage")
		return
	}
	f.audit(nowTick, "SELL_CROP", cmd.CropType, credit, "")
	f.resultOK(nowTick, cmd.ID, protocol.Event{"crop": cmd.CropType, "qty": qty, "credit": credit})
}

func (f *Farm) cmdSellAllCrop(cmd protocol.CommandReq, nowTick uint64) {
	if _, known := f.marketPrices[cmd.CropType]; !known {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "unknown crop")
		return
	}
	qty, credit := f.sellAllOfType(cmd.CropType)
	if qty == 0 {
		f.result(nowTick, cmd.ID, false, protocol.ErrNoResource, "nothing to sell")
		return
	}
	f.audit(nowTick, "SELL_ALL_CROP", cmd.CropType, credit, "")
	f.resultOK(nowTick, cmd.ID, protocol.Event{"crop": cmd.CropType, "qty": qty, "credit": credit})
}

func (f *Farm) cmdSellAllCrops(cmd protocol.CommandReq, nowTick uint64) {
	before := f.money
	sold := f.sellAllCrops()
	credit := f.money - before
	if credit > 0 {
		f.audit(nowTick, "SELL_ALL_CROPS", "", credit, "")
	}
	f.resultOK(nowTick, cmd.ID, protocol.Event{"sold": sold, "credit": credit})
}

func (f *Farm) cmdPurchaseLand(cmd protocol.CommandReq, nowTick uint64) {
	def, known := f.catalogs.Plots.ByID[cmd.PlotID]
	if !known {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "unknown plot")
		return
	}
	if f.ownedPlots[cmd.PlotID] {
		f.result(nowTick, cmd.ID, false, protocol.ErrConflict, "already owned")
		return
	}
	if f.money < def.Price {
		f.result(nowTick, cmd.ID, false, protocol.ErrNoFunds, "not enough money")
		return
	}
	f.setMoney(f.money - def.Price)
	f.landPurchase(cmd.PlotID)
	f.audit(nowTick, "PURCHASE_LAND", cmd.PlotID, -def.Price, "")
	f.resultOK(nowTick, cmd.ID, protocol.Event{"plot": cmd.PlotID})
}

func (f *Farm) cmdPlaceBuilding(cmd protocol.CommandReq, nowTick uint64) {
	if cmd.Pos == nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrBadRequest, "missing pos")
		return
	}
	def, known := f.catalogs.Buildings.ByID[cmd.BuildingID]
	if !known {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "unknown building")
		return
	}
	if !f.IsOnOwnedLand(*cmd.Pos) {
		f.result(nowTick, cmd.ID, false, protocol.ErrNoLand, "not on owned land")
		return
	}
	if f.IsOccupied(*cmd.Pos, def.Dimensions.Width, def.Dimensions.Depth) {
		f.result(nowTick, cmd.ID, false, protocol.ErrBlocked, "overlaps a building")
		return
	}
	if f.money < def.Price {
		f.result(nowTick, cmd.ID, false, protocol.ErrNoFunds, "not enough money")
		return
	}
	f.setMoney(f.money - def.Price)
	b := f.placeBuilding(cmd.BuildingID, *cmd.Pos, cmd.Rotation)
	f.audit(nowTick, "PLACE_BUILDING", b.ID, -def.Price, cmd.BuildingID)
	f.resultOK(nowTick, cmd.ID, protocol.Event{"building": b.ID})
}

func (f *Farm) cmdPurchaseEquipment(cmd protocol.CommandReq, nowTick uint64) {
	def, known := f.catalogs.Equipment.ByID[cmd.ItemID]
	if !known {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "unknown equipment")
		return
	}
	if f.ownedEquipment[cmd.ItemID] {
		f.result(nowTick, cmd.ID, false, protocol.ErrConflict, "already owned")
		return
	}
	if f.money < def.Price {
		f.result(nowTick, cmd.ID, false, protocol.ErrNoFunds, "not enough money")
		return
	}
	f.setMoney(f.money - def.Price)
	f.equipmentPurchase(cmd.ItemID)

	extra := protocol.Event{"item": cmd.ItemID}
	if def.Type == "vehicle" {
		pos := f.playerPos
		if cmd.Pos != nil {
			pos = *cmd.Pos
		}
		if v := f.addVehicle(cmd.ItemID, pos); v != nil {
			extra["vehicle"] = v.ID
		}
	}
	f.audit(nowTick, "PURCHASE_EQUIPMENT", cmd.ItemID, -def.Price, def.Type)
	f.resultOK(nowTick, cmd.ID, extra)
}

func (f *Farm) cmdPurchaseAttachment(cmd protocol.CommandReq, nowTick uint64) {
	id := cmd.ItemID
	if id == "" {
		id = cmd.AttachmentType
	}
	def, known := f.catalogs.Attachments.ByID[id]
	if !known {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "unknown attachment")
		return
	}
	if f.ownedAttachments[id] {
		f.result(nowTick, cmd.ID, false, protocol.ErrConflict, "already owned")
		return
	}
	if f.money < def.Price {
		f.result(nowTick, cmd.ID, false, protocol.ErrNoFunds, "not enough money")
		return
	}
	f.setMoney(f.money - def.Price)
	f.attachmentPurchase(id)
	f.audit(nowTick, "PURCHASE_ATTACHMENT", id, -def.Price, "")
	f.resultOK(nowTick, cmd.ID, protocol.Event{"attachment": id})
}

func (f *Farm) cmdMountAttachment(cmd protocol.CommandReq, nowTick uint64) {
	if _, ok := f.vehicles[cmd.VehicleID]; !ok {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "unknown vehicle")
		return
	}
	if !f.ownedAttachments[cmd.AttachmentType] {
		f.result(nowTick, cmd.ID, false, protocol.ErrNoResource, "attachment not owned")
		return
	}
	prev, ok := f.mountAttachment(cmd.VehicleID, cmd.AttachmentType)
	if !ok {
		f.result(nowTick, cmd.ID, false, protocol.ErrInternal, "mount failed")
		return
	}
	extra := protocol.Event{"vehicle": cmd.VehicleID, "attachment": cmd.AttachmentType}
	if prev != "" {
		extra["evicted"] = prev
	}
	f.resultOK(nowTick, cmd.ID, extra)
}

func (f *Farm) cmdPurchaseAnimal(cmd protocol.CommandReq, nowTick uint64) {
	if cmd.Pos == nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrBadRequest, "missing pos")
		return
	}
	def, known := f.catalogs.Livestock.ByID[cmd.AnimalType]
	if !known {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "unknown animal")
		return
	}
	if !f.IsOnOwnedLand(*cmd.Pos) {
		f.result(nowTick, cmd.ID, false, protocol.ErrNoLand, "not on owned land")
		return
	}
	if f.money < def.Price {
		f.result(nowTick, cmd.ID, false, protocol.ErrNoFunds, "not enough money")
		return
	}
	f.setMoney(f.money - def.Price)
	a := f.addAnimal(cmd.AnimalType, *cmd.Pos)
	f.audit(nowTick, "PURCHASE_ANIMAL", a.ID, -def.Price, cmd.AnimalType)
	f.resultOK(nowTick, cmd.ID, protocol.Event{"animal": a.ID, "kind": cmd.AnimalType})
}

func (f *Farm) cmdFeedAnimals(cmd protocol.CommandReq, nowTick uint64) {
	fed, penalized, cost := f.feedAnimals()
	if cost > 0 {
		f.audit(nowTick, "FEED_ANIMALS", "", -cost, fmt.Sprintf("fed %d", fed))
	}
	f.resultOK(nowTick, cmd.ID, protocol.Event{"fed": fed, "penalized": penalized, "cost": cost})
}

func (f *Farm) cmdCollectProducts(cmd protocol.CommandReq, nowTick uint64) {
	counts, credit := f.collectProducts()
	if credit > 0 {
		f.audit(nowTick, "COLLECT_PRODUCTS", "", credit, "")
	}
	f.resultOK(nowTick, cmd.ID, protocol.Event{"products": counts, "credit": credit})
}

func (f *Farm) cmdSetTransform(cmd protocol.CommandReq, nowTick uint64) {
	if cmd.Pos == nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrBadRequest, "missing pos")
		return
	}
	f.playerPos = *cmd.Pos
	f.playerRot = protocol.Vec3{Y: cmd.Rotation}
	f.resultOK(nowTick, cmd.ID, nil)
}

func (f *Farm) cmdMoveVehicle(cmd protocol.CommandReq, nowTick uint64) {
	if cmd.Pos == nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrBadRequest, "missing pos")
		return
	}
	v, ok := f.vehicles[cmd.VehicleID]
	if !ok {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "unknown vehicle")
		return
	}
	if !f.moveVehicle(cmd.VehicleID, *cmd.Pos, cmd.Rotation) {
		f.result(nowTick, cmd.ID, false, protocol.ErrNoResource, "not enough fuel")
		return
	}
	f.resultOK(nowTick, cmd.ID, protocol.Event{"vehicle": v.ID, "fuel": v.Fuel})
}

func (f *Farm) cmdRefuelVehicle(cmd protocol.CommandReq, nowTick uint64) {
	v, ok := f.vehicles[cmd.VehicleID]
	if !ok {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "unknown vehicle")
		return
	}
	cost := f.refuelCost(v)
	if cost == 0 {
		f.resultOK(nowTick, cmd.ID, protocol.Event{"vehicle": v.ID, "cost": 0})
		return
	}
	if f.money < cost {
		f.result(nowTick, cmd.ID, false, protocol.ErrNoFunds, "not enough money")
		return
	}
	f.setMoney(f.money - cost)
	v.Fuel = v.MaxFuel
	f.audit(nowTick, "REFUEL_VEHICLE", v.ID, -cost, "")
	f.resultOK(nowTick, cmd.ID, protocol.Event{"vehicle": v.ID, "cost": cost})
}

func (f *Farm) cmdSetMoney(cmd protocol.CommandReq, nowTick uint64) {
	before := f.money
	f.setMoney(cmd.Amount)
	f.audit(nowTick, "SET_MONEY", "", f.money-before, "")
	f.resultOK(nowTick, cmd.ID, protocol.Event{"money": f.money})
}

func (f *Farm) saveSlot(cmd protocol.CommandReq) string {
	if cmd.Slot != "" {
		return cmd.Slot
	}
	return defaultSaveSlot
}

func (f *Farm) cmdSave(cmd protocol.CommandReq, nowTick uint64) {
	if f.store == nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrInternal, "no save store")
		return
	}
	slot := f.saveSlot(cmd)
	doc := f.ExportSave()
	if err := f.store.Put(slot, doc); err != nil {
		f.logf("save %q: %v", slot, err)
		f.result(nowTick, cmd.ID, false, protocol.ErrInternal, "save failed")
		return
	}
	f.stats.SavesTotal.Add(1)
	f.audit(nowTick, "SAVE", slot, 0, "")
	f.resultOK(nowTick, cmd.ID, protocol.Event{"slot": slot})
}

func (f *Farm) cmdLoad(cmd protocol.CommandReq, nowTick uint64) {
	if f.store == nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrInternal, "no save store")
		return
	}
	slot := f.saveSlot(cmd)
	doc, err := f.store.Get(slot)
	if err != nil {
		f.logf("load %q: %v", slot, err)
		f.result(nowTick, cmd.ID, false, protocol.ErrInternal, "load failed")
		return
	}
	if doc == nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrInvalidTarget, "no such save")
		return
	}
	if err := f.ImportSave(doc); err != nil {
		f.logf("load %q: %v", slot, err)
		f.result(nowTick, cmd.ID, false, protocol.ErrInternal, "load failed")
		return
	}
	f.stats.LoadsTotal.Add(1)
	f.audit(nowTick, "LOAD", slot, 0, "")
	f.resultOK(nowTick, cmd.ID, protocol.Event{"slot": slot})
}

func (f *Farm) cmdHasSave(cmd protocol.CommandReq, nowTick uint64) {
	if f.store == nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrInternal, "no save store")
		return
	}
	slot := f.saveSlot(cmd)
	exists, err := f.store.Has(slot)
	if err != nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrInternal, "store error")
		return
	}
	f.resultOK(nowTick, cmd.ID, protocol.Event{"slot": slot, "exists": exists})
}

func (f *Farm) cmdDeleteSave(cmd protocol.CommandReq, nowTick uint64) {
	if f.store == nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrInternal, "no save store")
		return
	}
	slot := f.saveSlot(cmd)
	if err := f.store.Delete(slot); err != nil {
		f.result(nowTick, cmd.ID, false, protocol.ErrInternal, "delete failed")
		return
	}
	f.audit(nowTick, "DELETE_SAVE", slot, 0, "")
	f.resultOK(nowTick, cmd.ID, protocol.Event{"slot": slot})
}
