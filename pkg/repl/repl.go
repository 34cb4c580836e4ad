package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"strings"

	uuid "github.com/google/uuid"
)

// REPL struct.
type REPL struct {
	commands map[string]func(string, *REPLConfig) error
	help     map[string]string
}

// REPL Config struct.
type REPLConfig struct {
	writer   io.Writer
	clientId uuid.UUID
}

// Get writer.
func (replConfig *REPLConfig) GetWriter() io.Writer {
	return replConfig.writer
}

// Get address.
func (replConfig *REPLConfig) GetAddr() uuid.UUID {
	return replConfig.clientId
}

// Construct an empty REPL.
func NewRepl() *REPL {
	r := REPL{make(map[string]func(string, *REPLConfig) error), make(map[string]string)}
	return &r
}

// Combines a slice of REPLs.
func CombineRepls(repls []*REPL) (*REPL, error) {
	newRepl := NewRepl()
	for _, repl := range repls {
		for cmd := range repl.commands {
			if _, exist := newRepl.commands[cmd]; exist {
				return nil, errors.New("overlapping triggers")
			}
			newRepl.commands[cmd] = repl.commands[cmd]
			newRepl.help[cmd] = repl.help[cmd]
		}
	}
	return newRepl, nil
}

// Get commands.
func (r *REPL) GetCommands() map[string]func(string, *REPLConfig) error {
	return r.commands
}

// Get help.
func (r *REPL) GetHelp() map[string]string {
	return r.help
}

// Add a command, along with its help string, to the set of commands.
// Triggers starting with "." are reserved for meta commands and are ignored.
func (r *REPL) AddCommand(trigger string, action func(string, *REPLConfig) error, help string) {
	if strings.HasPrefix(trigger, ".") {
		return
	}
	r.commands[trigger] = action
	r.help[trigger] = help
}

// Return all REPL usage information as a string, sorted by command.
func (r *REPL) HelpString() string {
	cmds := make([]string, 0, len(r.help))
	for cmd := range r.help {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)
	var sb strings.Builder
	for _, cmd := range cmds {
		sb.WriteString(cmd + ": " + r.help[cmd] + "\n")
	}
	return sb.String()
}

// Run the REPL on a connection, or on stdin and stdout if there is none.
func (r *REPL) Run(c net.Conn, clientId uuid.UUID, prompt string) {
	if c == nil {
		r.RunWith(os.Stdin, os.Stdout, clientId, prompt)
		return
	}
	r.RunWith(c, c, clientId, prompt)
}

// RunWith runs the REPL loop until reader is exhausted or "EOF" is read.
func (r *REPL) RunWith(reader io.Reader, writer io.Writer, clientId uuid.UUID, prompt string) {
	scanner := bufio.NewScanner(reader)
	replConfig := &REPLConfig{writer: writer, clientId: clientId}
	io.WriteString(writer, prompt)
	for scanner.Scan() {
		payload := scanner.Text()
		if payload == "EOF" {
			break
		}
		fields := strings.Fields(payload)
		if len(fields) == 0 {
			io.WriteString(writer, prompt)
			continue
		}
		trigger := cleanInput(fields[0])
		// Check for a meta-command.
		if trigger == ".help" {
			io.WriteString(writer, r.HelpString())
			io.WriteString(writer, prompt)
			continue
		}
		// Else, check user commands.
		if command, exists := r.commands[trigger]; exists {
			err := command(payload, replConfig)
			if err != nil {
				io.WriteString(writer, fmt.Sprintf("%v\n", err))
			}
		} else {
			io.WriteString(writer, "command not found\n")
		}
		io.WriteString(writer, prompt)
	}
	// Print an additional line if we encountered an EOF character.
	io.WriteString(writer, "\n")
}

// cleanInput preprocesses input to the repl.
func cleanInput(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
