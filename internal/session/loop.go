package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Loop commands.
const (
	CommandHistory = "/gecmis"
	CommandQuit    = "/cikis"
)

// Sink displays the accumulated history after each exchange.
type Sink interface {
	Render(history []Message) error
}

// Rewinder is a Sink that can forget what it has shown, so the next Render
// draws the whole transcript again.
type Rewinder interface {
	Rewind()
}

// Loop reads one question per line from in and answers it through s, fully
// processing each line before reading the next. It returns nil on EOF or
// CommandQuit.
func Loop(ctx context.Context, in io.Reader, s *Session, sink Sink) error {
	if err := sink.Render(s.History()); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case CommandQuit:
			return nil
		case CommandHistory:
			if r, ok := sink.(Rewinder); ok {
				r.Rewind()
			}
		default:
			s.Ask(ctx, line)
		}

		if err := sink.Render(s.History()); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}
	return scanner.Err()
}

// TerminalSink prints messages not shown yet, followed by a prompt.
type TerminalSink struct {
	w      io.Writer
	prompt string
	shown  int
}

// NewTerminalSink creates a sink writing to w. An empty prompt prints none.
func NewTerminalSink(w io.Writer, prompt string) *TerminalSink {
	return &TerminalSink{w: w, prompt: prompt}
}

// Render implements Sink.
func (t *TerminalSink) Render(history []Message) error {
	if t.shown > len(history) {
		t.shown = 0
	}
	for _, msg := range history[t.shown:] {
		if _, err := fmt.Fprintf(t.w, "%s: %s\n", speaker(msg.Role), msg.Text); err != nil {
			return err
		}
	}
	t.shown = len(history)

	if t.prompt != "" {
		if _, err := io.WriteString(t.w, t.prompt); err != nil {
			return err
		}
	}
	return nil
}

// Rewind implements Rewinder.
func (t *TerminalSink) Rewind() {
	t.shown = 0
}

func speaker(r Role) string {
	if r == RoleUser {
		return "Siz"
	}
	return "Asistan"
}
