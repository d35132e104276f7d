package farm

// attachmentPurchase flips the owned flag for an attachment type. Cash
// deduction belongs to the command layer.
func (f *Farm) attachmentPurchase(id string) bool {
	if _, known := f.catalogs.Attachments.ByID[id]; !known {
		return false
	}
	if f.ownedAttachments[id] {
		return false
	}
	f.ownedAttachments[id] = true
	return true
}

func (f *Farm) OwnsAttachment(id string) bool { return f.ownedAttachments[id] }

// mountAttachment assigns an owned attachment type to a vehicle. At most one
// type per vehicle; mounting evicts whatever was mounted before. Returns the
// evicted type, if any.
func (f *Farm) mountAttachment(vehicleID, attachType string) (string, bool) {
	if _, ok := f.vehicles[vehicleID]; !ok {
		return "", false
	}
	if !f.ownedAttachments[attachType] {
		return "", false
	}
	prev := f.mounts[vehicleID]
	f.mounts[vehicleID] = attachType
	return prev, true
}

// AttachmentEffects returns the effect set of the attachment mounted on the
// vehicle, or the neutral set if nothing is mounted.
func (f *Farm) AttachmentEffects(vehicleID string) EffectSet {
	e := NeutralEffects()
	t, ok := f.mounts[vehicleID]
	if !ok {
		return e
	}
	def, ok := f.catalogs.Attachments.ByID[t]
	if !ok {
		return e
	}
	return e.apply(def.Effects)
}

// mountedEffects folds the effects of every distinct mounted attachment type.
// Harvest yield and working-area operations read this composed view rather
// than a per-vehicle one; with a single player there is no "active vehicle"
// to key on.
func (f *Farm) mountedEffects() EffectSet {
	e := NeutralEffects()
	seen := map[string]bool{}
	for _, vid := range sortedMapKeys(f.mounts) {
		t := f.mounts[vid]
		if seen[t] {
			continue
		}
		seen[t] = true
		def, ok := f.catalogs.Attachments.ByID[t]
		if !ok {
			continue
		}
		e = e.apply(def.Effects)
	}
	return e
}

// workingAreaFor returns the odd side length of the cell neighborhood an
// operation covers, given the attachment types that widen it.
func (f *Farm) workingAreaFor(kinds ...string) int {
	area := 1
	seen := map[string]bool{}
	for _, vid := range sortedMapKeys(f.mounts) {
		t := f.mounts[vid]
		if seen[t] {
			continue
		}
		seen[t] = true
		def, ok := f.catalogs.Attachments.ByID[t]
		if !ok {
			continue
		}
		match := false
		for _, k := range kinds {
			if def.Type == k {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		if def.Effects.WorkingArea > area {
			area = def.Effects.WorkingArea
		}
	}
	if area%2 == 0 {
		area++
	}
	return area
}
