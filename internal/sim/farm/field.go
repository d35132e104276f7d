package farm

const (
	FieldUntilled  = "untilled"
	FieldTilled    = "tilled"
	FieldPlanted   = "planted"
	FieldGrowing   = "growing"
	FieldMature    = "mature"
	FieldHarvested = "harvested"
	FieldStubble   = "stubble"
)

// FieldStateAt returns the cell's soil state; cells with no record are
// implicitly untilled.
func (f *Farm) FieldStateAt(cell CellKey) string {
	if c, ok := f.fields[cell]; ok {
		return c.State
	}
	return FieldUntilled
}

// till prepares a single cell. Fails if a crop occupies the cell or the state
// is anything other than untilled or stubble.
func (f *Farm) till(cell CellKey) bool {
	if _, occupied := f.crops[cell]; occupied {
		return false
	}
	switch f.FieldStateAt(cell) {
	case FieldUntilled, FieldStubble:
	default:
		return false
	}
	f.fields[cell] = &FieldCell{
		State:         FieldTilled,
		ChangedDay:    f.clock.Day,
		ChangedSeason: f.clock.Season,
	}
	return true
}

func (f *Farm) setFieldState(cell CellKey, state, cropType string) {
	c, ok := f.fields[cell]
	if !ok {
		c = &FieldCell{}
		f.fields[cell] = c
	}
	c.State = state
	c.ChangedDay = f.clock.Day
	c.ChangedSeason = f.clock.Season
	c.CropType = cropType
}

// syncFieldToStage mirrors the paired crop's growth stage into the soil state
// without re-stamping the change day.
func (f *Farm) syncFieldToStage(cell CellKey, stage int) {
	c, ok := f.fields[cell]
	if !ok {
		return
	}
	switch {
	case stage >= 3:
		c.State = FieldMature
	case stage >= 1:
		c.State = FieldGrowing
	default:
		c.State = FieldPlanted
	}
}

// fieldDecay ages harvested and stubble cells. It is a pure function of days
// since the harvested stamp, so skipping many days at once still lands each
// cell in the right state: harvested for the first window, stubble until the
// combined window passes, then back to untilled (record removed). The stamp
// is not rewritten at the stubble transition.
func (f *Farm) fieldDecay() {
	total := f.tune.HarvestedToStubbleDays + f.tune.StubbleToUntilledDays
	for _, k := range f.sortedCellKeys(f.fields) {
		c := f.fields[k]
		if c.State != FieldHarvested && c.State != FieldStubble {
			continue
		}
		age := elapsedDays(c.ChangedDay, c.ChangedSeason, f.clock.Day, f.clock.Season)
		switch {
		case age > total:
			delete(f.fields, k)
		case age > f.tune.HarvestedToStubbleDays && c.State == FieldHarvested:
			c.State = FieldStubble
		}
	}
}
