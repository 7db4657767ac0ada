// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmdRejectsInvalidEndpoint(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"not-an-endpoint"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid resolver endpoint")
}

func TestRootCmdValidatesFlags(t *testing.T) {
	t.Run("workers out of range", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--workers", "64", "127.0.0.1:53"})
		err := cmd.Execute()
		require.Error(t, err)
		assert.ErrorContains(t, err, "--workers")
	})

	t.Run("timeout too small", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetArgs([]string{"--timeout", "1ms", "127.0.0.1:53"})
		err := cmd.Execute()
		require.Error(t, err)
		assert.ErrorContains(t, err, "--timeout")
	})
}

func TestMainMapsErrorsToExitCodes(t *testing.T) {
	// Override osExit and run main with a bad endpoint: parsing fails
	// before any probe runs, so we expect the configuration exit code.
	var code int
	osExit = func(c int) { code = c }
	defer func() { osExit = os.Exit }()

	savedArgs := os.Args
	defer func() { os.Args = savedArgs }()
	os.Args = []string{"dnsconform", "not-an-endpoint"}
	main()
	assert.Equal(t, 2, code)
}
