package recovery

import (
	"fmt"
	"io"
	"strings"

	db "github.com/huhu99/bumblebloom/pkg/db"
	hash "github.com/huhu99/bumblebloom/pkg/hash"
	repl "github.com/huhu99/bumblebloom/pkg/repl"

	uuid "github.com/google/uuid"
)

// Recovery REPL: journals every mutation as part of applying it.
func RecoveryREPL(d *db.Database, rm *RecoveryManager) *repl.REPL {
	r := repl.NewRepl()
	r.AddCommand("create", func(payload string, replConfig *repl.REPLConfig) error {
		return HandleCreateFilter(d, rm, payload, replConfig.GetWriter())
	}, "Create a filter. usage: create filter <name> [<bits> [<times>]]")
	r.AddCommand("add", func(payload string, replConfig *repl.REPLConfig) error {
		return HandleAdd(d, rm, payload, replConfig.GetAddr())
	}, "Add an item. usage: add <item> into <name>")
	r.AddCommand("clear", func(payload string, replConfig *repl.REPLConfig) error {
		return HandleClear(d, rm, payload, replConfig.GetAddr())
	}, "Unset every bit of a filter. usage: clear <name>")
	r.AddCommand("checkpoint", func(payload string, replConfig *repl.REPLConfig) error {
		return HandleCheckpoint(rm, payload, replConfig.GetWriter())
	}, "Save all filters and snapshot the data folder. usage: checkpoint")
	return r
}

// Handle create filter.
func HandleCreateFilter(d *db.Database, rm *RecoveryManager, payload string, w io.Writer) error {
	name, bitsNum, times, err := db.ParseCreateFilter(payload)
	if err != nil {
		return err
	}
	filter, err := d.CreateFilterJournaled(name, bitsNum, times, func() error {
		return rm.Create(name, bitsNum, times)
	})
	if err != nil {
		return fmt.Errorf("create error: %v", err)
	}
	io.WriteString(w, fmt.Sprintf("filter %s created with %d bits.\n", name, filter.BitsNum()))
	return nil
}

// Handle add.
func HandleAdd(d *db.Database, rm *RecoveryManager, payload string, clientId uuid.UUID) error {
	fields := strings.Fields(payload)
	// Usage: add <item> into <name>
	if len(fields) != 4 || fields[2] != "into" {
		return fmt.Errorf("usage: add <item> into <name>")
	}
	err := d.AddJournaled(fields[3], hash.String(fields[1]), func() error {
		return rm.Add(clientId, fields[3], fields[1])
	})
	if err != nil {
		return fmt.Errorf("add error: %v", err)
	}
	return nil
}

// Handle clear.
func HandleClear(d *db.Database, rm *RecoveryManager, payload string, clientId uuid.UUID) error {
	fields := strings.Fields(payload)
	// Usage: clear <name>
	if len(fields) != 2 {
		return fmt.Errorf("usage: clear <name>")
	}
	err := d.ClearJournaled(fields[1], func() error {
		return rm.Clear(clientId, fields[1])
	})
	if err != nil {
		return fmt.Errorf("clear error: %v", err)
	}
	return nil
}

// Handle checkpoint.
func HandleCheckpoint(rm *RecoveryManager, payload string, w io.Writer) error {
	if len(strings.Fields(payload)) != 1 {
		return fmt.Errorf("usage: checkpoint")
	}
	if err := rm.Checkpoint(); err != nil {
		return fmt.Errorf("checkpoint error: %v", err)
	}
	io.WriteString(w, "checkpoint written.\n")
	return nil
}
