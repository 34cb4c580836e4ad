package repl

import (
	"bytes"
	"strings"
	"testing"

	uuid "github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func echoRepl() *REPL {
	r := NewRepl()
	r.AddCommand("echo", func(payload string, replConfig *REPLConfig) error {
		replConfig.GetWriter().Write([]byte(strings.TrimPrefix(payload, "echo ") + "\n"))
		return nil
	}, "Echo a line. usage: echo <text>")
	return r
}

func TestRun(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader("echo hi\nECHO there\nnope\n\n.help\nEOF\necho never\n")
	echoRepl().RunWith(in, &out, uuid.New(), "> ")
	got := out.String()
	require.Contains(t, got, "hi\n")
	require.Contains(t, got, "ECHO there\n")
	require.Contains(t, got, "command not found\n")
	require.Contains(t, got, "echo: Echo a line. usage: echo <text>\n")
	require.NotContains(t, got, "never")
}

func TestCombineRepls(t *testing.T) {
	other := NewRepl()
	other.AddCommand("ping", func(string, *REPLConfig) error { return nil }, "pong")
	other.AddCommand(".meta", func(string, *REPLConfig) error { return nil }, "ignored")
	combined, err := CombineRepls([]*REPL{echoRepl(), other})
	require.NoError(t, err)
	require.Len(t, combined.GetCommands(), 2)
	require.Equal(t, "echo: Echo a line. usage: echo <text>\nping: pong\n", combined.HelpString())

	_, err = CombineRepls([]*REPL{echoRepl(), echoRepl()})
	require.Error(t, err)
}
