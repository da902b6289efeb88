package export

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// script writes an executable shell script standing in for an editor.
func script(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell editor scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "editor.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func TestEditReturnsSavedText(t *testing.T) {
	ed := Editor{Command: script(t, `printf '# Final Report\n' > "$1"`)}

	got, err := ed.Edit(context.Background(), "# Draft Report\n")
	require.NoError(t, err)
	assert.Equal(t, "# Final Report\n", got)
}

func TestEditPassesExtraArgs(t *testing.T) {
	// the file is always the last argument
	ed := Editor{Command: script(t, `printf '%s' "$1" > "$2"`) + " --wait"}

	got, err := ed.Edit(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "--wait", got)
}

func TestEditUnchanged(t *testing.T) {
	ed := Editor{Command: script(t, `exit 0`)}

	got, err := ed.Edit(context.Background(), "keep me")
	require.NoError(t, err)
	assert.Equal(t, "keep me", got)
}

func TestEditFailure(t *testing.T) {
	ed := Editor{Command: script(t, `exit 3`)}

	_, err := ed.Edit(context.Background(), "x")
	assert.ErrorIs(t, err, ErrEditorFailed)

	_, err = Editor{Command: "  "}.Edit(context.Background(), "x")
	assert.ErrorContains(t, err, "no editor configured")
}

func TestDefaultEditor(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "nano")
	assert.Equal(t, "nano", DefaultEditor().Command)

	t.Setenv("VISUAL", "code --wait")
	assert.Equal(t, "code --wait", DefaultEditor().Command)

	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
	assert.Equal(t, fallbackEditor, DefaultEditor().Command)
}
