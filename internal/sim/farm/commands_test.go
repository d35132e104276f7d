package farm

import (
	"encoding/json"
	"fmt"
	"testing"

	"farmgrid.io/internal/persistence/save"
	"farmgrid.io/internal/protocol"
)

// memStore is the in-memory SaveStore used by command tests.
type memStore struct {
	slots map[string]*save.SaveV1
	fail  bool
}

func newMemStore() *memStore { return &memStore{slots: map[string]*save.SaveV1{}} }

func (s *memStore) Put(slot string, doc *save.SaveV1) error {
	if s.fail {
		return fmt.Errorf("store down")
	}
	cp := *doc
	s.slots[slot] = &cp
	return nil
}

func (s *memStore) Get(slot string) (*save.SaveV1, error) {
	if s.fail {
		return nil, fmt.Errorf("store down")
	}
	doc, ok := s.slots[slot]
	if !ok {
		return nil, nil
	}
	cp := *doc
	return &cp, nil
}

func (s *memStore) Has(slot string) (bool, error) {
	if s.fail {
		return false, fmt.Errorf("store down")
	}
	_, ok := s.slots[slot]
	return ok, nil
}

func (s *memStore) Delete(slot string) error {
	if s.fail {
		return fmt.Errorf("store down")
	}
	delete(s.slots, slot)
	return nil
}

func joinTestClient(t *testing.T, f *Farm) chan []byte {
	t.Helper()
	out := make(chan []byte, 4)
	f.StepOnce([]JoinRequest{{SessionID: "S1", ClientName: "test", Out: out}}, nil, nil)
	drainState(t, out)
	return out
}

func drainState(t *testing.T, out chan []byte) protocol.StateMsg {
	t.Helper()
	var raw []byte
	for {
		select {
		case b := <-out:
			raw = b
			continue
		default:
		}
		break
	}
	if raw == nil {
		t.Fatalf("no state message received")
	}
	var msg protocol.StateMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return msg
}

func runCommand(t *testing.T, f *Farm, out chan []byte, cmd protocol.CommandReq) protocol.Event {
	t.Helper()
	f.StepOnce(nil, nil, []CommandEnvelope{{SessionID: "S1", Cmd: cmd}})
	msg := drainState(t, out)
	for _, e := range msg.Events {
		if e["type"] == "ACTION_RESULT" && e["ref"] == cmd.ID {
			return e
		}
	}
	t.Fatalf("no result for %s in %v", cmd.ID, msg.Events)
	return nil
}

func wantOK(t *testing.T, e protocol.Event) {
	t.Helper()
	if ok, _ := e["ok"].(bool); !ok {
		t.Fatalf("command failed: %v", e)
	}
}

func wantCode(t *testing.T, e protocol.Event, code string) {
	t.Helper()
	if ok, _ := e["ok"].(bool); ok {
		t.Fatalf("command unexpectedly succeeded: %v", e)
	}
	if got, _ := e["code"].(string); got != code {
		t.Fatalf("code = %v, want %s", e["code"], code)
	}
}

func TestCommandLifecycleTillPlantHarvestSell(t *testing.T) {
	f := newTestFarm(t, 11)
	out := joinTestClient(t, f)
	pos := &protocol.Vec3{X: 0, Z: 0}

	wantOK(t, runCommand(t, f, out, protocol.CommandReq{ID: "c1", Type: "TILL", Pos: pos}))
	wantOK(t, runCommand(t, f, out, protocol.CommandReq{ID: "c2", Type: "PLANT", CropType: "wheat", Pos: pos}))

	// Let the wheat mature. Growth is recomputed by the tick after the warp,
	// so run one empty step before harvesting.
	warpTo(f, 7, SeasonSpring)
	drainStateAfterStep(t, f, out)
	res := runCommand(t, f, out, protocol.CommandReq{ID: "c3", Type: "HARVEST", Pos: pos})
	wantOK(t, res)
	amount := int(res["amount"].(float64))
	if amount < 2 || amount > 4 {
		t.Fatalf("harvest amount = %d", amount)
	}
	if int(res["stored"].(float64)) != amount {
		t.Fatalf("stored = %v, want %d", res["stored"], amount)
	}

	before := f.Money()
	sell := runCommand(t, f, out, protocol.CommandReq{ID: "c4", Type: "SELL_ALL_CROP", CropType: "wheat"})
	wantOK(t, sell)
	if f.Money() <= before {
		t.Fatalf("sale did not credit: %d -> %d", before, f.Money())
	}
	if len(f.inventory) != 0 {
		t.Fatalf("inventory after sale: %v", f.inventory)
	}
}

func TestCommandCooldownGatesRepeats(t *testing.T) {
	f := newTestFarm(t, 1)
	out := joinTestClient(t, f)

	wantOK(t, runCommand(t, f, out, protocol.CommandReq{ID: "t1", Type: "TILL", Pos: &protocol.Vec3{X: 0}}))
	// 0.5s at 10Hz arms a five tick gate; the very next tick is still hot.
	e := runCommand(t, f, out, protocol.CommandReq{ID: "t2", Type: "TILL", Pos: &protocol.Vec3{X: 4}})
	wantCode(t, e, protocol.ErrRateLimit)

	// A different command type is not gated.
	wantOK(t, runCommand(t, f, out, protocol.CommandReq{ID: "p1", Type: "PLANT", CropType: "carrot", Pos: &protocol.Vec3{X: 0}}))

	for i := 0; i < 5; i++ {
		f.StepOnce(nil, nil, nil)
	}
	drainState(t, out)
	wantOK(t, runCommand(t, f, out, protocol.CommandReq{ID: "t3", Type: "TILL", Pos: &protocol.Vec3{X: 4}}))
}

func TestCommandFailureCodes(t *testing.T) {
	f := newTestFarm(t, 1)
	out := joinTestClient(t, f)

	wantCode(t, runCommand(t, f, out, protocol.CommandReq{ID: "x1", Type: "WARP_TIME"}), protocol.ErrBadRequest)
	wantCode(t, runCommand(t, f, out, protocol.CommandReq{ID: "x2", Type: "TILL"}), protocol.ErrBadRequest)
	wantCode(t, runCommand(t, f, out, protocol.CommandReq{ID: "x3", Type: "TILL", Pos: &protocol.Vec3{X: 500}}), protocol.ErrNoLand)
	wantCode(t, runCommand(t, f, out, protocol.CommandReq{ID: "x4", Type: "PLANT", CropType: "kudzu", Pos: &protocol.Vec3{}}), protocol.ErrInvalidTarget)
	wantCode(t, runCommand(t, f, out, protocol.CommandReq{ID: "x5", Type: "SELL_CROP", CropType: "wheat", Qty: 3}), protocol.ErrNoResource)
	wantCode(t, runCommand(t, f, out, protocol.CommandReq{ID: "x6", Type: "PURCHASE_LAND", PlotID: "river_flats"}), protocol.ErrNoFunds)
	wantCode(t, runCommand(t, f, out, protocol.CommandReq{ID: "x7", Type: "PURCHASE_LAND", PlotID: "starter"}), protocol.ErrConflict)
	wantCode(t, runCommand(t, f, out, protocol.CommandReq{ID: "x8", Type: "MOUNT_ATTACHMENT", VehicleID: "V9", AttachmentType: "plow"}), protocol.ErrInvalidTarget)
}

func TestCommandPurchasesComposeAcrossSystems(t *testing.T) {
	f := newTestFarm(t, 1)
	out := joinTestClient(t, f)

	wantOK(t, runCommand(t, f, out, protocol.CommandReq{ID: "m1", Type: "SET_MONEY", Amount: 10000}))
	buy := runCommand(t, f, out, protocol.CommandReq{ID: "m2", Type: "PURCHASE_EQUIPMENT", ItemID: "tractor"})
	wantOK(t, buy)
	vid, _ := buy["vehicle"].(string)
	if vid == "" {
		t.Fatalf("vehicle purchase must spawn a vehicle: %v", buy)
	}
	wantOK(t, runCommand(t, f, out, protocol.CommandReq{ID: "m3", Type: "PURCHASE_ATTACHMENT", ItemID: "plow"}))
	mount := runCommand(t, f, out, protocol.CommandReq{ID: "m4", Type: "MOUNT_ATTACHMENT", VehicleID: vid, AttachmentType: "plow"})
	wantOK(t, mount)

	// A plow widens tilling to a 3x3 block.
	till := runCommand(t, f, out, protocol.CommandReq{ID: "m5", Type: "TILL", Pos: &protocol.Vec3{X: 0, Z: 0}})
	wantOK(t, till)
	if got := int(till["count"].(float64)); got != 9 {
		t.Fatalf("tilled %d cells, want 9", got)
	}

	state := drainStateAfterStep(t, f, out)
	if len(state.Vehicles) != 1 || state.Vehicles[0].Attachment != "plow" {
		t.Fatalf("vehicle state = %+v", state.Vehicles)
	}
	if len(state.Fields) != 9 {
		t.Fatalf("field records = %d, want 9", len(state.Fields))
	}
}

func drainStateAfterStep(t *testing.T, f *Farm, out chan []byte) protocol.StateMsg {
	t.Helper()
	f.StepOnce(nil, nil, nil)
	return drainState(t, out)
}

func TestCommandSetMoneyClampsToZero(t *testing.T) {
	f := newTestFarm(t, 1)
	out := joinTestClient(t, f)

	e := runCommand(t, f, out, protocol.CommandReq{ID: "z1", Type: "SET_MONEY", Amount: -250})
	wantOK(t, e)
	if got := int(e["money"].(float64)); got != 0 {
		t.Fatalf("money in result = %d, want 0", got)
	}
	if f.Money() != 0 {
		t.Fatalf("money = %d, want 0", f.Money())
	}
}

func TestCommandSaveLoadRoundTrip(t *testing.T) {
	f := newTestFarm(t, 5)
	f.SetStore(newMemStore())
	out := joinTestClient(t, f)

	wantOK(t, runCommand(t, f, out, protocol.CommandReq{ID: "s1", Type: "TILL", Pos: &protocol.Vec3{X: 2}}))
	wantOK(t, runCommand(t, f, out, protocol.CommandReq{ID: "s2", Type: "SAVE", Slot: "slot_a"}))
	savedMoney := f.Money()

	wantOK(t, runCommand(t, f, out, protocol.CommandReq{ID: "s3", Type: "SET_MONEY", Amount: 9}))
	has := runCommand(t, f, out, protocol.CommandReq{ID: "s4", Type: "HAS_SAVE", Slot: "slot_a"})
	wantOK(t, has)
	if exists, _ := has["exists"].(bool); !exists {
		t.Fatalf("saved slot not reported: %v", has)
	}

	wantOK(t, runCommand(t, f, out, protocol.CommandReq{ID: "s5", Type: "LOAD", Slot: "slot_a"}))
	if f.Money() != savedMoney {
		t.Fatalf("load restored money = %d, want %d", f.Money(), savedMoney)
	}
	if got := f.FieldStateAt(CellKey{X: 1, Z: 0}); got != FieldTilled {
		t.Fatalf("tilled cell not restored, state %q", got)
	}

	wantOK(t, runCommand(t, f, out, protocol.CommandReq{ID: "s6", Type: "DELETE_SAVE", Slot: "slot_a"}))
	has2 := runCommand(t, f, out, protocol.CommandReq{ID: "s7", Type: "HAS_SAVE", Slot: "slot_a"})
	wantOK(t, has2)
	if exists, _ := has2["exists"].(bool); exists {
		t.Fatalf("deleted slot still reported")
	}
	wantCode(t, runCommand(t, f, out, protocol.CommandReq{ID: "s8", Type: "LOAD", Slot: "slot_a"}), protocol.ErrInvalidTarget)
}

func TestCommandSaveWithoutStoreFails(t *testing.T) {
	f := newTestFarm(t, 1)
	out := joinTestClient(t, f)
	wantCode(t, runCommand(t, f, out, protocol.CommandReq{ID: "n1", Type: "SAVE"}), protocol.ErrInternal)
}
