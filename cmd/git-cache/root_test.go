package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_MissingCacheRoot(t *testing.T) {
	t.Setenv(cacheRootEnv, "")

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--url", "https://host/repo.git", "--ref", "main", "--dir", t.TempDir()})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), cacheRootEnv)
}

func TestRootCommand_RequiredFlags(t *testing.T) {
	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--url", "https://host/repo.git"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestStatsCommand_EmptyCache(t *testing.T) {
	t.Setenv(cacheRootEnv, t.TempDir())

	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"stats"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Metadata repositories:")
	assert.Contains(t, out.String(), "Checkouts:")
}
