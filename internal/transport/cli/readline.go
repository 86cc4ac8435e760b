package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/vitalbot/internal/service/ui"
	"github.com/sandevgo/vitalbot/pkg/conv"
)

// lineReader is the part of *readline.Instance the chat loop uses.
type lineReader interface {
	Readline() (string, error)
}

// ReadLine is a terminal chat. It serves as both input and output of a
// turn.Controller run.
type ReadLine struct {
	rl        lineReader
	out       io.Writer
	close     func() error
	assistant string
}

func NewReadLine(runtimePath, assistantName string) (*ReadLine, error) {
	if err := os.MkdirAll(runtimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "you> ",
		HistoryFile:     filepath.Join(runtimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{
		rl:        rl,
		out:       rl.Stdout(),
		close:     rl.Close,
		assistant: assistantName,
	}, nil
}

// Next blocks for the next non-blank line. Ctrl+C on an empty line, Ctrl+D
// and "exit" all end the conversation with io.EOF.
func (r *ReadLine) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		line, err := r.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				return "", io.EOF
			}
			continue
		}
		if err != nil {
			return "", err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "/exit":
			return "", io.EOF
		}
		return line, nil
	}
}

func (r *ReadLine) Send(ctx context.Context, text string) error {
	body := conv.MarkdownToText([]byte(text))
	_, err := fmt.Fprintf(r.out, "%s\n%s\n\n", ui.AssistantStyle.Render(r.assistant+">"), ui.ReplyStyle.Render(body))
	return err
}

// Notice prints a dimmed status line.
func (r *ReadLine) Notice(text string) {
	fmt.Fprintln(r.out, ui.NoticeStyle.Render(text))
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.close != nil {
		return r.close()
	}
	return nil
}
