package farm

import (
	"context"
	"encoding/json"
	"time"

	"farmgrid.io/internal/persistence/save"
	"farmgrid.io/internal/protocol"
)

func (f *Farm) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(f.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingCmds []CommandEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.stop:
			return nil
		case req := <-f.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-f.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-f.inbox:
			pendingCmds = append(pendingCmds, env)
		case req := <-f.snapReq:
			f.handleSnapshotRequest(req)
		case <-ticker.C:
			f.step(pendingJoins, pendingLeaves, pendingCmds)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingCmds = pendingCmds[:0]
		}
	}
}

func (f *Farm) Stop() { close(f.stop) }

// step advances one tick: session churn, then queued commands in receive
// order, then the fixed sweep Clock -> Weather -> price timer -> crop growth
// -> field decay. Crop growth must see the weather multiplier and day values
// advanced earlier in the same tick.
func (f *Farm) step(joins []JoinRequest, leaves []string, cmds []CommandEnvelope) {
	nowTick := f.tick.Load()

	recordedLeaves := make([]string, 0, len(leaves))
	for _, id := range leaves {
		if _, ok := f.clients[id]; ok {
			delete(f.clients, id)
			f.stats.Sessions.Add(-1)
			recordedLeaves = append(recordedLeaves, id)
		}
	}
	recordedJoins := make([]string, 0, len(joins))
	for _, req := range joins {
		resp := f.joinSession(req)
		if req.Resp != nil {
			req.Resp <- resp
		}
		recordedJoins = append(recordedJoins, resp.Welcome.SessionID)
	}

	recorded := make([]RecordedCommand, 0, len(cmds))
	for _, env := range cmds {
		recorded = append(recorded, RecordedCommand{SessionID: env.SessionID, Cmd: env.Cmd})
		f.applyCommand(env, nowTick)
	}

	dt := 1.0 / float64(f.cfg.TickRateHz)

	prevSeason := f.clock.Season
	if days := f.clock.Advance(dt); days > 0 {
		f.stats.DaysElapsed.Add(uint64(days))
		f.livestockDaily()
		f.pushEvent(protocol.Event{
			"t": nowTick, "type": "DAY_START",
			"day": f.clock.Day, "season": f.clock.Season, "year": f.clock.Year,
		})
	}
	if f.clock.Season != prevSeason {
		f.pushEvent(protocol.Event{
			"t": nowTick, "type": "SEASON_CHANGE",
			"season": f.clock.Season, "year": f.clock.Year,
		})
	}

	if f.weather.Advance(dt, f.rng) {
		f.stats.WeatherChanges.Add(1)
		f.pushEvent(protocol.Event{"t": nowTick, "type": "WEATHER_CHANGE", "weather": f.weather.Kind})
	}

	if f.advanceEconomy(dt) {
		f.pushEvent(protocol.Event{"t": nowTick, "type": "MARKET_UPDATE", "prices": f.MarketPrices()})
	}

	f.advanceGrowth()
	f.fieldDecay()
	f.livestockDrift(dt)

	if len(f.clients) > 0 {
		msg := f.buildState(nowTick)
		if b, err := json.Marshal(msg); err == nil {
			for _, cl := range f.clients {
				sendLatest(cl.Out, b)
			}
		}
	}

	if f.tickLogger != nil {
		_ = f.tickLogger.WriteTick(TickLogEntry{
			Tick:     nowTick,
			Joins:    recordedJoins,
			Leaves:   recordedLeaves,
			Commands: recorded,
			Digest:   f.stateDigest(nowTick),
		})
	}

	if f.saveSink != nil && f.tune.AutosaveEveryTicks > 0 && nowTick != 0 &&
		nowTick%uint64(f.tune.AutosaveEveryTicks) == 0 {
		doc := f.ExportSave()
		select {
		case f.saveSink <- *doc:
		default:
			// Drop the autosave if the writer is backed up.
		}
	}

	f.events = f.events[:0]
	f.tick.Add(1)
	f.stats.Ticks.Add(1)
}

// StepOnce advances a single tick with the same ordering as the server loop.
// Intended for deterministic replays and tests.
func (f *Farm) StepOnce(joins []JoinRequest, leaves []string, cmds []CommandEnvelope) (tick uint64, digest string) {
	tick = f.tick.Load()
	f.step(joins, leaves, cmds)
	return tick, f.stateDigest(tick)
}

func (f *Farm) joinSession(req JoinRequest) JoinResponse {
	id := req.SessionID
	if id == "" {
		id = "local"
	}
	if req.Out != nil {
		f.clients[id] = &clientState{Out: req.Out}
		f.stats.Sessions.Add(1)
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       id,
		FarmID:          f.cfg.ID,
		FarmParams: protocol.FarmParams{
			TickRateHz:  f.cfg.TickRateHz,
			TimeScale:   f.clock.TimeScale,
			CellSize:    CellSize,
			BaseStorage: f.tune.BaseStorage,
			SaveVersion: save.Version,
			Seed:        f.cfg.Seed,
		},
		Catalogs: protocol.CatalogDigests{
			Crops:       protocol.DigestRef{Digest: f.catalogs.Crops.Digest, Count: len(f.catalogs.Crops.IDs)},
			Equipment:   protocol.DigestRef{Digest: f.catalogs.Equipment.Digest, Count: len(f.catalogs.Equipment.IDs)},
			Attachments: protocol.DigestRef{Digest: f.catalogs.Attachments.Digest, Count: len(f.catalogs.Attachments.IDs)},
			Buildings:   protocol.DigestRef{Digest: f.catalogs.Buildings.Digest, Count: len(f.catalogs.Buildings.IDs)},
			Livestock:   protocol.DigestRef{Digest: f.catalogs.Livestock.Digest, Count: len(f.catalogs.Livestock.IDs)},
			Plots:       protocol.DigestRef{Digest: f.catalogs.Plots.Digest, Count: len(f.catalogs.Plots.IDs)},
		},
	}
	return JoinResponse{Welcome: welcome, Catalogs: f.catalogMessages()}
}

func (f *Farm) catalogMessages() []protocol.CatalogMsg {
	mk := func(name, digest string, data interface{}) protocol.CatalogMsg {
		return protocol.CatalogMsg{
			Type:            protocol.TypeCatalog,
			ProtocolVersion: protocol.Version,
			Name:            name,
			Digest:          digest,
			Part:            1,
			TotalParts:      1,
			Data:            data,
		}
	}
	return []protocol.CatalogMsg{
		mk("crops", f.catalogs.Crops.Digest, f.catalogs.CropList()),
		mk("equipment", f.catalogs.Equipment.Digest, f.catalogs.EquipmentList()),
		mk("attachments", f.catalogs.Attachments.Digest, f.catalogs.AttachmentList()),
		mk("buildings", f.catalogs.Buildings.Digest, f.catalogs.BuildingList()),
		mk("livestock", f.catalogs.Livestock.Digest, f.catalogs.LivestockList()),
		mk("plots", f.catalogs.Plots.Digest, f.catalogs.PlotList()),
	}
}

func (f *Farm) handleSnapshotRequest(req snapshotRequest) {
	nowTick := f.tick.Load()
	b, err := json.MarshalIndent(f.buildState(nowTick), "", "  ")
	if err != nil {
		b = nil
	}
	req.resp <- b
}

// AdminStateJSON fetches a state snapshot from the loop goroutine. Safe to
// call from HTTP handlers; returns nil when the loop is not serving.
func (f *Farm) AdminStateJSON() []byte {
	req := snapshotRequest{resp: make(chan []byte, 1)}
	select {
	case f.snapReq <- req:
	case <-time.After(2 * time.Second):
		return nil
	}
	select {
	case b := <-req.resp:
		return b
	case <-time.After(2 * time.Second):
		return nil
	}
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}
