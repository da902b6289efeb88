package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// fallbackEditor is used when neither VISUAL nor EDITOR is set.
const fallbackEditor = "vi"

// ErrEditorFailed reports an editor that exited with an error.
var ErrEditorFailed = errors.New("editor exited with an error")

// Editor is an external text editor command, e.g. "code --wait".
type Editor struct {
	Command string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// DefaultEditor reads $VISUAL, then $EDITOR, attached to the terminal.
func DefaultEditor() Editor {
	cmd := os.Getenv("VISUAL")
	if cmd == "" {
		cmd = os.Getenv("EDITOR")
	}
	if cmd == "" {
		cmd = fallbackEditor
	}
	return Editor{Command: cmd, Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Edit opens markdown in the editor and returns what was saved.
func (e Editor) Edit(ctx context.Context, markdown string) (string, error) {
	args := strings.Fields(e.Command)
	if len(args) == 0 {
		return "", errors.New("no editor configured")
	}

	f, err := os.CreateTemp("", "leafdraft-*.md")
	if err != nil {
		return "", fmt.Errorf("failed to create edit file: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(markdown); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write edit file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write edit file: %w", err)
	}

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = e.Stdin, e.Stdout, e.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrEditorFailed, args[0], err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read edited draft: %w", err)
	}
	return string(data), nil
}
