// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	saltHex   = "736f6d6573616c74" // "somesalt"
	smallKey  = "F0865295AA62419A87230C558F9328778BB1F742F38720A71CC7FED76D97D37F"
	sha512Key = "E49AF70DDA4DE3F597A62A228BFB428A5E379B591B7711FE51DFB23BED89E19D"
)

func invoke(t *testing.T, stdin *os.File, args ...string) (int, string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(args, stdin, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunDerivesKey(t *testing.T) {
	code, stdout, stderr := invoke(t, nil, "0", "1", "1", "16", "2", "32", saltHex, "password")
	require.Zero(t, code, stderr)
	assert.Equal(t, smallKey, stdout)
	assert.Empty(t, stderr)
}

func TestRunThreadCountDoesNotMatter(t *testing.T) {
	for _, threads := range []string{"1", "3", "16"} {
		code, stdout, stderr := invoke(t, nil, "0", "1", "1", "16", threads, "32", strings.ToUpper(saltHex), "password")
		require.Zero(t, code, stderr)
		assert.Equal(t, smallKey, stdout, "threads=%s", threads)
	}
}

func TestRunMultiplierAndKeySize(t *testing.T) {
	code, stdout, stderr := invoke(t, nil, "0", "2", "2", "0x10", "4", "16", saltHex, "password")
	require.Zero(t, code, stderr)
	assert.Equal(t, "17FD6A306680A3B8C14BB88B6C7D9A70", stdout)
}

func TestRunHashFlag(t *testing.T) {
	code, stdout, stderr := invoke(t, nil, "--hash", "sha512", "0", "1", "1", "16", "2", "32", saltHex, "password")
	require.Zero(t, code, stderr)
	assert.Equal(t, sha512Key, stdout)
}

func TestRunConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystretch.ini")
	require.NoError(t, os.WriteFile(path, []byte("[Application Options]\nhash = sha512\n"), 0o600))

	code, stdout, stderr := invoke(t, nil, "--config", path, "0", "1", "1", "16", "2", "32", saltHex, "password")
	require.Zero(t, code, stderr)
	assert.Equal(t, sha512Key, stdout)

	// The command line wins over the file
	code, stdout, stderr = invoke(t, nil, "--config", path, "--hash", "sha256", "0", "1", "1", "16", "2", "32", saltHex, "password")
	require.Zero(t, code, stderr)
	assert.Equal(t, smallKey, stdout)

	code, _, stderr = invoke(t, nil, "--config", filepath.Join(t.TempDir(), "missing.ini"), "0", "1", "1", "16", "2", "32", saltHex, "password")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Invalid config file")
}

func TestRunPasswordPrompt(t *testing.T) {
	stdin, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer stdin.Close()

	_, err = stdin.WriteString("password\n")
	require.NoError(t, err)
	_, err = stdin.Seek(0, 0)
	require.NoError(t, err)

	code, stdout, stderr := invoke(t, stdin, "0", "1", "1", "16", "2", "32", saltHex, "-")
	require.Zero(t, code, stderr)
	assert.Equal(t, smallKey, stdout)
	assert.Contains(t, stderr, "Password: ")
}

func TestRunVerbose(t *testing.T) {
	code, stdout, stderr := invoke(t, nil, "-v", "0", "1", "1", "16", "2", "32", saltHex, "password")
	require.Zero(t, code, stderr)
	assert.Equal(t, smallKey, stdout)
	assert.Contains(t, stderr, "Deriving key")
	assert.Contains(t, stderr, "Key derived")
	assert.NotContains(t, stderr, "password ")
}

func TestRunHelp(t *testing.T) {
	code, stdout, _ := invoke(t, nil, "--help")
	assert.Zero(t, code)
	assert.Contains(t, stdout, "initial-hashing-factor")
	assert.Contains(t, stdout, "--hash")
}

func TestRunUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no arguments", nil, "required"},
		{"too many arguments", []string{"0", "1", "1", "16", "2", "32", saltHex, "password", "extra"}, "Incorrect number of arguments"},
		{"bad integer", []string{"0", "1", "lots", "16", "2", "32", saltHex, "password"}, "Invalid integer for parameter 3"},
		{"zero multiplier", []string{"0", "0", "1", "16", "2", "32", saltHex, "password"}, "cpu work multiplier"},
		{"page not power of two", []string{"0", "1", "1", "3", "2", "32", saltHex, "password"}, "not a power of two"},
		{"page too large", []string{"0", "1", "1", "1048576", "2", "32", saltHex, "password"}, "Invalid page size"},
		{"zero memory", []string{"0", "1", "0", "16", "2", "32", saltHex, "password"}, "fewer than two"},
		{"too many threads", []string{"0", "1", "1", "16", "17", "32", saltHex, "password"}, "Invalid number of threads"},
		{"zero threads", []string{"0", "1", "1", "16", "0", "32", saltHex, "password"}, "thread count"},
		{"key not power of two", []string{"0", "1", "1", "16", "2", "24", saltHex, "password"}, "key size"},
		{"odd salt", []string{"0", "1", "1", "16", "2", "32", "abc", "password"}, "even number of digits"},
		{"bad salt", []string{"0", "1", "1", "16", "2", "32", "zz00zz00", "password"}, "Invalid hex salt"},
		{"short salt", []string{"0", "1", "1", "16", "2", "32", "0102", "password"}, "salt size"},
		{"empty password", []string{"0", "1", "1", "16", "2", "32", saltHex, ""}, "empty password"},
		{"unknown hash", []string{"--hash", "md5", "0", "1", "1", "16", "2", "32", saltHex, "password"}, "Unknown hash"},
	}
	for _, tc := range tests {
		code, stdout, stderr := invoke(t, nil, tc.args...)
		assert.Equal(t, 1, code, tc.name)
		assert.Empty(t, stdout, tc.name)
		assert.Contains(t, stderr, tc.want, tc.name)
		assert.Contains(t, stderr, "Usage: keystretch", tc.name)
	}
}
