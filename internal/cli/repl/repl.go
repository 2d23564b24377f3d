package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultPrompt is printed before each input line.
const DefaultPrompt = "warmd> "

// SendFunc delivers one request line and returns the response.
type SendFunc func(ctx context.Context, line string) (string, error)

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     io.Reader
	output    io.Writer
	prompt    string
	send      SendFunc
	completer *Completer
	history   *History
}

// Option configures a REPL.
type Option func(*REPL)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *REPL) {
		r.input = in
		r.output = out
	}
}

// WithPrompt sets the prompt.
func WithPrompt(p string) Option {
	return func(r *REPL) { r.prompt = p }
}

// WithHistory sets the history store.
func WithHistory(h *History) Option {
	return func(r *REPL) { r.history = h }
}

// WithCommands sets the command names offered by \help.
func WithCommands(names ...string) Option {
	return func(r *REPL) { r.completer = NewCompleter(names...) }
}

// New creates a REPL that forwards lines to send.
func New(send SendFunc, opts ...Option) *REPL {
	r := &REPL{
		input:     os.Stdin,
		output:    os.Stdout,
		prompt:    DefaultPrompt,
		send:      send,
		completer: NewCompleter(),
		history:   NewHistory(""),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run reads lines until EOF, exit/quit or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	reader := bufio.NewReader(r.input)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		fmt.Fprint(r.output, r.prompt)

		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		if line == "exit" || line == "quit" || line == `\quit` || line == `\q` {
			return nil
		}
		if strings.HasPrefix(line, `\`) {
			r.builtin(line)
			continue
		}

		resp, sendErr := r.send(ctx, line)
		if sendErr != nil {
			fmt.Fprintf(r.output, "error: %v\n", sendErr)
		} else {
			fmt.Fprintln(r.output, resp)
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func (r *REPL) builtin(line string) {
	name, arg, _ := strings.Cut(line[1:], " ")
	switch name {
	case "help", "h", "?":
		matches := r.completer.Complete(strings.TrimSpace(arg))
		if len(matches) == 0 {
			fmt.Fprintln(r.output, "no matching commands")
			return
		}
		fmt.Fprintln(r.output, strings.Join(matches, "  "))
	case "history":
		for i, entry := range r.history.Entries() {
			fmt.Fprintf(r.output, "%4d  %s\n", i+1, entry)
		}
	default:
		fmt.Fprintf(r.output, "unknown shell command %q (try \\help)\n", line)
	}
}
