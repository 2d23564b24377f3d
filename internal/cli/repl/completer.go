package repl

import (
	"sort"
	"strings"
)

// DefaultCommands are the commands of the built-in evaluator.
var DefaultCommands = []string{"ping", "echo", "set", "get", "del", "keys", "incr", "info", "sleep"}

// Completer matches command names by prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer over names, or DefaultCommands if none
// are given.
func NewCompleter(names ...string) *Completer {
	if len(names) == 0 {
		names = DefaultCommands
	}
	commands := append([]string(nil), names...)
	sort.Strings(commands)
	return &Completer{commands: commands}
}

// Complete returns the commands starting with prefix, case-insensitively.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.ToLower(prefix)
	var suggestions []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			suggestions = append(suggestions, cmd)
		}
	}
	return suggestions
}
