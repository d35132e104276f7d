package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

// Operator tooling for a running (or stopped) farm: inspect live state over
// the admin HTTP surface, poke at the save store directly, and grep the
// audit trail. Store subcommands are safe on a live farm; the store allows
// one writer and the server only touches the autosave slot.
func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "state":
			stateCmd(os.Args[2:])
			return
		case "save":
			saveCmd(os.Args[2:])
			return
		case "slots":
			slotsCmd(os.Args[2:])
			return
		case "show":
			showCmd(os.Args[2:])
			return
		case "export":
			exportCmd(os.Args[2:])
			return
		case "restore":
			restoreCmd(os.Args[2:])
			return
		case "delete":
			deleteCmd(os.Args[2:])
			return
		case "audit":
			auditCmd(os.Args[2:])
			return
		}
	}
	listCmd(os.Args[1:])
}

func listCmd(args []string) {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	farmID := fs.String("farm", "", "farm id (optional)")
	_ = fs.Parse(args)

	base := filepath.Join(*dataDir, "farms")
	if *farmID != "" {
		base = filepath.Join(base, *farmID)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read:", err)
		fmt.Fprintln(os.Stderr, "usage: admin [state|save|slots|show|export|restore|delete|audit] ...")
		os.Exit(1)
	}
	for _, e := range entries {
		fmt.Println(e.Name())
	}
}

func farmDBPath(dataDir, farmID string) string {
	return filepath.Join(dataDir, "farms", farmID, "saves.db")
}
