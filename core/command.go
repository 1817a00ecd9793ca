package core

import (
	"errors"
	"sync"

	"pstat/protocol"
)

// CommandHandler handles one command with its parsed fields
type CommandHandler func(args *protocol.Fields) error

// Command binds a command byte to its field schema and handler
type Command struct {
	Code    byte
	Name    string
	Schema  protocol.Schema
	Handler CommandHandler
}

// ErrUnknownCommand is returned for a command byte with no registered handler
var ErrUnknownCommand = errors.New("unknown command")

// CommandTable maps command bytes to handlers. Device variants register the
// subset they support.
type CommandTable struct {
	mu       sync.RWMutex
	commands map[byte]*Command
}

// NewCommandTable creates an empty command table
func NewCommandTable() *CommandTable {
	return &CommandTable{commands: make(map[byte]*Command)}
}

// Register adds or replaces a command
func (t *CommandTable) Register(cmd *Command) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commands[cmd.Code] = cmd
}

// Unregister removes a command
func (t *CommandTable) Unregister(code byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.commands, code)
}

// Lookup retrieves a command by byte
func (t *CommandTable) Lookup(code byte) (*Command, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cmd, ok := t.commands[code]
	return cmd, ok
}

// Count returns the number of registered commands
func (t *CommandTable) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.commands)
}

// Dispatch parses a framed command line and calls its handler
func (t *CommandTable) Dispatch(line []byte) error {
	if len(line) == 0 {
		return nil
	}
	cmd, ok := t.Lookup(line[0])
	if !ok {
		return ErrUnknownCommand
	}
	args, err := protocol.ParseFields(line[1:], cmd.Schema)
	if err != nil {
		return err
	}
	return cmd.Handler(&args)
}

// Describe lists the registered commands in byte order, one per line,
// e.g. "S sweep start:4 end:4 period:5 sweep:LC polarity:ZS".
func (t *CommandTable) Describe() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	dict := ""
	for c := 0; c < 256; c++ {
		cmd, ok := t.commands[byte(c)]
		if !ok {
			continue
		}
		dict += string(rune(cmd.Code)) + " " + cmd.Name
		for _, f := range cmd.Schema.Fields {
			dict += " " + f.Name + ":"
			if f.Kind == protocol.FieldNumber {
				dict += itoa(f.Width)
			} else {
				dict += f.Allowed
			}
		}
		if cmd.Schema.Repeat {
			dict += " ..."
		}
		dict += "\n"
	}
	return dict
}
