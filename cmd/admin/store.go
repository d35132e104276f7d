package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"farmgrid.io/internal/persistence/save"
	"farmgrid.io/internal/persistence/savestore"
)

func openStore(dataDir, farmID, dbPath string) *savestore.SQLiteStore {
	path := strings.TrimSpace(dbPath)
	if path == "" {
		if strings.TrimSpace(farmID) == "" {
			fmt.Fprintln(os.Stderr, "missing -farm or -db")
			os.Exit(2)
		}
		path = farmDBPath(dataDir, farmID)
	}
	st, err := savestore.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}
	return st
}

func slotsCmd(args []string) {
	fs := flag.NewFlagSet("slots", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	farmID := fs.String("farm", "", "farm id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	_ = fs.Parse(args)

	st := openStore(*dataDir, *farmID, *dbPath)
	defer st.Close()

	infos, err := st.List()
	if err != nil {
		fmt.Fprintln(os.Stderr, "list:", err)
		os.Exit(1)
	}
	for _, in := range infos {
		printJSON(struct {
			Slot    string `json:"slot"`
			Version string `json:"version"`
			SavedAt string `json:"saved_at"`
		}{in.Slot, in.Version, time.UnixMilli(in.SavedAt).UTC().Format(time.RFC3339)})
	}
}

func showCmd(args []string) {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	farmID := fs.String("farm", "", "farm id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	slot := fs.String("slot", "autosave", "slot name")
	full := fs.Bool("full", false, "print the whole document instead of a summary")
	_ = fs.Parse(args)

	st := openStore(*dataDir, *farmID, *dbPath)
	defer st.Close()

	doc, err := st.Get(*slot)
	if err != nil {
		fmt.Fprintln(os.Stderr, "get:", err)
		os.Exit(1)
	}
	if doc == nil {
		fmt.Fprintln(os.Stderr, "no such slot:", *slot)
		os.Exit(2)
	}

	if *full {
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, "encode:", err)
			os.Exit(1)
		}
		fmt.Println(string(b))
		return
	}
	printJSON(summarize(*slot, doc))
}

type slotSummary struct {
	Slot       string `json:"slot"`
	Version    string `json:"version"`
	SavedAt    string `json:"saved_at"`
	Clock      string `json:"clock"`
	Day        int    `json:"day"`
	Season     string `json:"season"`
	Year       int    `json:"year"`
	Weather    string `json:"weather,omitempty"`
	Money      int    `json:"money"`
	Inventory  int    `json:"inventory_items"`
	Crops      int    `json:"crops"`
	Fields     int    `json:"field_cells"`
	Animals    int    `json:"animals"`
	Vehicles   int    `json:"vehicles"`
	Buildings  int    `json:"buildings"`
	OwnedPlots int    `json:"owned_plots"`
}

func summarize(slot string, doc *save.SaveV1) slotSummary {
	s := slotSummary{
		Slot:      slot,
		Version:   doc.Version,
		SavedAt:   time.UnixMilli(doc.Timestamp).UTC().Format(time.RFC3339),
		Clock:     fmt.Sprintf("%02d:%02d", doc.Time.Hour, doc.Time.Minute),
		Day:       doc.Time.Day,
		Season:    doc.Time.Season,
		Year:      doc.Time.Year,
		Crops:     len(doc.Crops),
		Fields:    len(doc.Fields),
		Animals:   len(doc.Animals),
		Vehicles:  len(doc.Vehicles),
		Buildings: len(doc.Buildings),
	}
	if doc.Weather != nil {
		s.Weather = doc.Weather.Type
	}
	if doc.Economy != nil {
		s.Money = doc.Economy.Money
		for _, n := range doc.Economy.Inventory {
			s.Inventory += n
		}
	}
	if doc.Expansion != nil {
		s.OwnedPlots = len(doc.Expansion.OwnedPlots)
	}
	return s
}

func exportCmd(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	farmID := fs.String("farm", "", "farm id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	slot := fs.String("slot", "autosave", "slot name")
	outPath := fs.String("out", "", "output path (default: <slot>-<timestamp>.save.zst)")
	_ = fs.Parse(args)

	st := openStore(*dataDir, *farmID, *dbPath)
	defer st.Close()

	doc, err := st.Get(*slot)
	if err != nil {
		fmt.Fprintln(os.Stderr, "get:", err)
		os.Exit(1)
	}
	if doc == nil {
		fmt.Fprintln(os.Stderr, "no such slot:", *slot)
		os.Exit(2)
	}

	out := strings.TrimSpace(*outPath)
	if out == "" {
		out = fmt.Sprintf("%s-%d.save.zst", *slot, doc.Timestamp)
	}
	if err := save.WriteFile(out, *slot, doc); err != nil {
		fmt.Fprintln(os.Stderr, "write:", err)
		os.Exit(1)
	}
	fmt.Printf("exported slot=%s to %s\n", *slot, out)
}

func restoreCmd(args []string) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	farmID := fs.String("farm", "", "farm id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	filePath := fs.String("file", "", "path to a .save.zst file (required)")
	slot := fs.String("slot", "", "destination slot (required)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*filePath) == "" {
		fmt.Fprintln(os.Stderr, "missing -file")
		os.Exit(2)
	}
	if strings.TrimSpace(*slot) == "" {
		fmt.Fprintln(os.Stderr, "missing -slot")
		os.Exit(2)
	}

	doc, err := save.ReadFile(*filePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		os.Exit(1)
	}

	st := openStore(*dataDir, *farmID, *dbPath)
	defer st.Close()

	if err := st.Put(*slot, doc); err != nil {
		fmt.Fprintln(os.Stderr, "put:", err)
		os.Exit(1)
	}
	printJSON(summarize(*slot, doc))
	fmt.Printf("restored %s into slot=%s\n", *filePath, *slot)
}

func deleteCmd(args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	farmID := fs.String("farm", "", "farm id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	slot := fs.String("slot", "", "slot name (required)")
	_ = fs.Parse(args)

	if strings.TrimSpace(*slot) == "" {
		fmt.Fprintln(os.Stderr, "missing -slot")
		os.Exit(2)
	}

	st := openStore(*dataDir, *farmID, *dbPath)
	defer st.Close()

	ok, err := st.Has(*slot)
	if err != nil {
		fmt.Fprintln(os.Stderr, "check:", err)
		os.Exit(1)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "no such slot:", *slot)
		os.Exit(2)
	}
	if err := st.Delete(*slot); err != nil {
		fmt.Fprintln(os.Stderr, "delete:", err)
		os.Exit(1)
	}
	fmt.Printf("deleted slot=%s\n", *slot)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
