package db

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	config "github.com/huhu99/bumblebloom/pkg/config"
	hash "github.com/huhu99/bumblebloom/pkg/hash"
	repl "github.com/huhu99/bumblebloom/pkg/repl"
)

// Creates a DB Repl of the commands that change filters.
func DatabaseRepl(db *Database) *repl.REPL {
	r := repl.NewRepl()
	r.AddCommand("create", func(payload string, replConfig *repl.REPLConfig) error {
		return HandleCreateFilter(db, payload, replConfig.GetWriter())
	}, "Create a filter. usage: create filter <name> [<bits> [<times>]]")
	r.AddCommand("add", func(payload string, replConfig *repl.REPLConfig) error { return HandleAdd(db, payload) }, "Add an item. usage: add <item> into <name>")
	r.AddCommand("clear", func(payload string, replConfig *repl.REPLConfig) error { return HandleClear(db, payload) }, "Unset every bit of a filter. usage: clear <name>")
	r.AddCommand("save", func(payload string, replConfig *repl.REPLConfig) error { return HandleSave(db, payload) }, "Write every filter to disk. usage: save")
	return r
}

// Creates a read-only Repl for the given database.
func QueryRepl(db *Database) *repl.REPL {
	r := repl.NewRepl()
	r.AddCommand("contains", func(payload string, replConfig *repl.REPLConfig) error {
		return HandleContains(db, payload, replConfig.GetWriter())
	}, "Check whether an item might be present. usage: contains <item> in <name>")
	r.AddCommand("capacity", func(payload string, replConfig *repl.REPLConfig) error {
		return HandleCapacity(db, payload, replConfig.GetWriter())
	}, "Print the number of bits in a filter. usage: capacity <name>")
	r.AddCommand("stat", func(payload string, replConfig *repl.REPLConfig) error {
		return HandleStat(db, payload, replConfig.GetWriter())
	}, "Print a filter's parameters and fill ratio. usage: stat <name>")
	r.AddCommand("list", func(payload string, replConfig *repl.REPLConfig) error {
		return HandleList(db, payload, replConfig.GetWriter())
	}, "List all filters. usage: list")
	return r
}

// Parse a create filter payload. Bits and times default when omitted.
func ParseCreateFilter(payload string) (name string, bitsNum uint, times uint, err error) {
	fields := strings.Fields(payload)
	numFields := len(fields)
	// Usage: create filter <name> [<bits> [<times>]]
	if numFields < 3 || numFields > 5 || fields[1] != "filter" {
		return "", 0, 0, fmt.Errorf("usage: create filter <name> [<bits> [<times>]]")
	}
	bitsNum, times = config.DefaultBitsNum, config.DefaultTimes
	if numFields > 3 {
		n, err := strconv.ParseUint(fields[3], 10, 0)
		if err != nil {
			return "", 0, 0, fmt.Errorf("create error: %v", err)
		}
		bitsNum = uint(n)
	}
	if numFields > 4 {
		n, err := strconv.ParseUint(fields[4], 10, 0)
		if err != nil {
			return "", 0, 0, fmt.Errorf("create error: %v", err)
		}
		times = uint(n)
	}
	return fields[2], bitsNum, times, nil
}

// Handle create filter.
func HandleCreateFilter(d *Database, payload string, w io.Writer) (err error) {
	name, bitsNum, times, err := ParseCreateFilter(payload)
	if err != nil {
		return err
	}
	filter, err := d.CreateFilter(name, bitsNum, times)
	if err != nil {
		return fmt.Errorf("create error: %v", err)
	}
	io.WriteString(w, fmt.Sprintf("filter %s created with %d bits.\n", name, filter.BitsNum()))
	return nil
}

// Handle add.
func HandleAdd(d *Database, payload string) (err error) {
	fields := strings.Fields(payload)
	// Usage: add <item> into <name>
	if len(fields) != 4 || fields[2] != "into" {
		return fmt.Errorf("usage: add <item> into <name>")
	}
	if err = d.Add(fields[3], hash.String(fields[1])); err != nil {
		return fmt.Errorf("add error: %v", err)
	}
	return nil
}

// Handle contains.
func HandleContains(d *Database, payload string, w io.Writer) (err error) {
	fields := strings.Fields(payload)
	// Usage: contains <item> in <name>
	if len(fields) != 4 || fields[2] != "in" {
		return fmt.Errorf("usage: contains <item> in <name>")
	}
	found, err := d.Contains(fields[3], hash.String(fields[1]))
	if err != nil {
		return fmt.Errorf("contains error: %v", err)
	}
	if found {
		io.WriteString(w, "maybe present\n")
	} else {
		io.WriteString(w, "not present\n")
	}
	return nil
}

// Handle clear.
func HandleClear(d *Database, payload string) (err error) {
	fields := strings.Fields(payload)
	// Usage: clear <name>
	if len(fields) != 2 {
		return fmt.Errorf("usage: clear <name>")
	}
	if err = d.Clear(fields[1]); err != nil {
		return fmt.Errorf("clear error: %v", err)
	}
	return nil
}

// Handle capacity.
func HandleCapacity(d *Database, payload string, w io.Writer) (err error) {
	fields := strings.Fields(payload)
	// Usage: capacity <name>
	if len(fields) != 2 {
		return fmt.Errorf("usage: capacity <name>")
	}
	stats, err := d.Stat(fields[1])
	if err != nil {
		return fmt.Errorf("capacity error: %v", err)
	}
	io.WriteString(w, fmt.Sprintf("%d\n", stats.BitsNum))
	return nil
}

// Handle stat.
func HandleStat(d *Database, payload string, w io.Writer) (err error) {
	fields := strings.Fields(payload)
	// Usage: stat <name>
	if len(fields) != 2 {
		return fmt.Errorf("usage: stat <name>")
	}
	stats, err := d.Stat(fields[1])
	if err != nil {
		return fmt.Errorf("stat error: %v", err)
	}
	io.WriteString(w, fmt.Sprintf("bits=%d times=%d fill=%.4f\n", stats.BitsNum, stats.Times, stats.FillRatio))
	return nil
}

// Handle list.
func HandleList(d *Database, payload string, w io.Writer) (err error) {
	if len(strings.Fields(payload)) != 1 {
		return fmt.Errorf("usage: list")
	}
	for _, name := range d.GetFilterNames() {
		io.WriteString(w, name+"\n")
	}
	return nil
}

// Handle save.
func HandleSave(d *Database, payload string) (err error) {
	if len(strings.Fields(payload)) != 1 {
		return fmt.Errorf("usage: save")
	}
	if err = d.Flush(); err != nil {
		return fmt.Errorf("save error: %v", err)
	}
	return nil
}
