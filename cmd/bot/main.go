package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"

	"farmgrid.io/internal/protocol"
)

// A headless farmhand. Connects like a browser client and works a small
// field: till, plant, harvest when mature, sell when storage fills up.
// Useful for soaking the server and for eyeballing the economy loop.
func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "farmhand", "client name")
		crop     = flag.String("crop", "wheat", "crop to plant")
		maxCells = flag.Int("cells", 12, "number of field cells to work")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		Capabilities:    protocol.HelloCapabilities{MaxQueue: 8},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	b := &bot{conn: conn, logger: logger, crop: *crop, maxCells: *maxCells}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			b.onWelcome(&w)

		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				continue
			}
			b.onState(&st)
		}
	}
}

type bot struct {
	conn     *websocket.Conn
	logger   *log.Logger
	crop     string
	maxCells int

	sessionID string
	cellSize  float64
	gapTicks  uint64
	nextCmd   uint64
	seq       int
}

func (b *bot) onWelcome(w *protocol.WelcomeMsg) {
	b.sessionID = w.SessionID
	b.cellSize = w.FarmParams.CellSize
	// Leave room for the longest action cooldown between commands.
	b.gapTicks = uint64(2 * w.FarmParams.TickRateHz)
	b.logger.Printf("WELCOME session=%s farm=%s tick_rate=%d seed=%d",
		w.SessionID, w.FarmID, w.FarmParams.TickRateHz, w.FarmParams.Seed)
}

func (b *bot) onState(st *protocol.StateMsg) {
	b.reportResults(st)

	if st.Tick%600 == 0 {
		b.logger.Printf("tick=%d %s money=%d storage=%d/%d weather=%s crops=%d",
			st.Tick, st.Time.Formatted, st.Economy.Money,
			st.Economy.StorageUsed, st.Economy.StorageCap, st.Weather.Kind, len(st.Crops))
	}

	if st.Tick < b.nextCmd {
		return
	}
	cmd := b.decide(st)
	if cmd == nil {
		return
	}
	b.seq++
	cmd.ID = fmt.Sprintf("b_%d_%d", st.Tick, b.seq)
	batch := protocol.CmdMsg{
		Type:            protocol.TypeCmd,
		ProtocolVersion: protocol.Version,
		Tick:            st.Tick,
		Commands:        []protocol.CommandReq{*cmd},
	}
	if err := b.conn.WriteJSON(batch); err != nil {
		b.logger.Printf("send %s: %v", cmd.Type, err)
		return
	}
	b.nextCmd = st.Tick + b.gapTicks
}

// decide picks at most one command per pass: harvest beats selling beats
// planting beats tilling, so the work loop drains before it refills.
func (b *bot) decide(st *protocol.StateMsg) *protocol.CommandReq {
	for _, c := range st.Crops {
		if c.Stage >= 3 {
			pos := c.Pos
			return &protocol.CommandReq{Type: "HARVEST", Pos: &pos}
		}
	}

	if st.Economy.StorageCap > 0 && st.Economy.StorageUsed*2 >= st.Economy.StorageCap {
		return &protocol.CommandReq{Type: "SELL_ALL_CROPS"}
	}

	planted := make(map[[2]int]bool, len(st.Crops))
	for _, c := range st.Crops {
		planted[c.Cell] = true
	}
	for _, fc := range st.Fields {
		if fc.State == "tilled" && !planted[fc.Cell] {
			pos := b.cellPos(fc.Cell)
			return &protocol.CommandReq{Type: "PLANT", CropType: b.crop, Pos: &pos}
		}
	}

	if cell, ok := b.nextUntilled(st); ok {
		pos := b.cellPos(cell)
		return &protocol.CommandReq{Type: "TILL", Pos: &pos}
	}
	return nil
}

// nextUntilled walks a row-major grid inside the first owned plot and
// returns the first cell with no soil record, up to the working budget.
func (b *bot) nextUntilled(st *protocol.StateMsg) ([2]int, bool) {
	var plot *protocol.PlotState
	for i := range st.Plots {
		if st.Plots[i].Owned {
			plot = &st.Plots[i]
			break
		}
	}
	if plot == nil || b.cellSize <= 0 {
		return [2]int{}, false
	}

	known := make(map[[2]int]bool, len(st.Fields))
	for _, fc := range st.Fields {
		known[fc.Cell] = true
	}

	minCX := int(plot.MinX/b.cellSize) + 1
	minCZ := int(plot.MinZ/b.cellSize) + 1
	seen := 0
	for cz := minCZ; ; cz++ {
		if float64(cz)*b.cellSize >= plot.MaxZ {
			break
		}
		for cx := minCX; ; cx++ {
			if float64(cx)*b.cellSize >= plot.MaxX {
				break
			}
			if seen >= b.maxCells {
				return [2]int{}, false
			}
			seen++
			cell := [2]int{cx, cz}
			if !known[cell] {
				return cell, true
			}
		}
	}
	return [2]int{}, false
}

func (b *bot) cellPos(cell [2]int) protocol.Vec3 {
	return protocol.Vec3{X: float64(cell[0]) * b.cellSize, Z: float64(cell[1]) * b.cellSize}
}

func (b *bot) reportResults(st *protocol.StateMsg) {
	for _, e := range st.Events {
		if t, _ := e["type"].(string); t != "ACTION_RESULT" {
			continue
		}
		ref, _ := e["ref"].(string)
		if !strings.HasPrefix(ref, "b_") {
			continue
		}
		if ok, _ := e["ok"].(bool); ok {
			continue
		}
		b.logger.Printf("command %s failed: %v %v", ref, e["code"], e["message"])
	}
}
