package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tnicklin/thimble-bot/config"
)

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"statustracker", "movietracker", "force", "check-db", "root", "env"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "s", cmd.Flags().Lookup("statustracker").Shorthand)
	assert.Equal(t, "m", cmd.Flags().Lookup("movietracker").Shorthand)
}

func TestRootCmd_ExampleEnv(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env", config.ExampleEnv, "--root", t.TempDir()})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "There is no need for one more example config!\n", out.String())
}

func TestRootCmd_ExistingConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config", "staging"), 0o755))

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--env", "staging", "--root", root})

	assert.Error(t, cmd.Execute())
}

func TestRootCmd_RejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extra"})

	assert.Error(t, cmd.Execute())
}
