package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"treemk/internal/cli"
)

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run([]string{"-h"}, strings.NewReader(""), out, &bytes.Buffer{})

	require.NoError(t, err, "help must not be an error")
	require.Contains(t, out.String(), "Usage:")
	require.Contains(t, out.String(), "generate")
}

func TestRun_NoArgsPrintsHelp(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}

	err := run(nil, strings.NewReader(""), out, &bytes.Buffer{})

	require.NoError(t, err)
	require.Contains(t, out.String(), "Usage:")
}

func TestRun_UnknownFlagExitCode(t *testing.T) {
	t.Parallel()

	err := run([]string{"generate", "--this-is-not-a-valid-flag"}, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})

	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, exitErr.Message, "unknown flag")
}

func TestRun_Generate(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	out := &bytes.Buffer{}

	err := run([]string{"generate", "-i", "-", "-q", base}, strings.NewReader("project/\n  README.md\n"), out, &bytes.Buffer{})

	require.NoError(t, err)
	require.FileExists(t, filepath.Join(base, "project", "README.md"))
	require.Empty(t, out.String(), "-q suppresses the report")
}
