package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"farmgrid.io/internal/persistence/savestore"
	"farmgrid.io/internal/sim/farm"
)

// auditCmd greps the money/ownership trail the server writes under
// <farm>/audit. Entries stream in chronological order; -limit keeps the
// last N matches. -store queries the indexed copy in saves.db instead of
// scanning the JSONL logs, which is much faster on long-lived farms.
func auditCmd(args []string) {
	fs := flag.NewFlagSet("audit", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	farmID := fs.String("farm", "", "farm id (required)")
	action := fs.String("action", "", "action filter, e.g. PURCHASE_LAND (optional)")
	ref := fs.String("ref", "", "ref filter, e.g. a plot or item id (optional)")
	sinceTick := fs.Uint64("since_tick", 0, "entries at or after tick (optional)")
	toTick := fs.Uint64("to_tick", 0, "entries at or before tick (optional)")
	limit := fs.Int("limit", 50, "print at most the last N matches")
	fromStore := fs.Bool("store", false, "query the saves.db audit index instead of the JSONL logs")
	_ = fs.Parse(args)

	if strings.TrimSpace(*farmID) == "" {
		fmt.Fprintln(os.Stderr, "missing -farm")
		os.Exit(2)
	}

	var recs []farm.AuditEntry
	var err error
	if *fromStore {
		st := openStore(*dataDir, *farmID, "")
		defer st.Close()
		recs, err = st.QueryAudits(savestore.AuditFilter{
			Action:    *action,
			Ref:       *ref,
			SinceTick: *sinceTick,
			ToTick:    *toTick,
			Limit:     *limit,
		})
	} else {
		dir := filepath.Join(*dataDir, "farms", *farmID, "audit")
		recs, err = readAudit(dir, *action, *ref, *sinceTick, *toTick)
		if err == nil && *limit > 0 && len(recs) > *limit {
			recs = recs[len(recs)-*limit:]
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Println("no matching audit entries")
		return
	}
	for _, e := range recs {
		printJSON(e)
	}
}

func readAudit(dir, action, ref string, sinceTick, toTick uint64) ([]farm.AuditEntry, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "audit-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	// Daily window names sort chronologically.
	sort.Strings(names)

	out := make([]farm.AuditEntry, 0, 256)
	for _, name := range names {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		dec, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		sc := bufio.NewScanner(dec)
		sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
		for sc.Scan() {
			var e farm.AuditEntry
			if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
				dec.Close()
				_ = f.Close()
				return nil, fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
			}
			if action != "" && e.Action != action {
				continue
			}
			if ref != "" && e.Ref != ref {
				continue
			}
			if e.Tick < sinceTick {
				continue
			}
			if toTick != 0 && e.Tick > toTick {
				continue
			}
			out = append(out, e)
		}
		if err := sc.Err(); err != nil {
			dec.Close()
			_ = f.Close()
			return nil, err
		}
		dec.Close()
		_ = f.Close()
	}
	return out, nil
}
