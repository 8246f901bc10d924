// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cli holds the plumbing shared by the command line front ends:
// argument and config file loading, hex salts, password prompting and
// diagnostics.
package cli

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/dark-bio/keystretch-go/pbkdf"
	"github.com/fatih/color"
	"github.com/howeyc/gopass"
	"github.com/jessevdk/go-flags"
)

var (
	Red    = color.New(color.FgHiRed).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
	Prompt = color.New(color.FgHiYellow).SprintFunc()
)

// UsageError is an invalid invocation. Front ends print it followed by their
// usage text.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

// Usagef formats a UsageError.
func Usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// Parse loads args into data. If config is non-nil and the command line sets
// it, the named INI file is loaded first and the command line is parsed again
// on top, so flags given explicitly take precedence over the file. Returns
// the arguments left over after the positionals.
//
// A help request is returned as a *flags.Error of type flags.ErrHelp holding
// the help text; every other failure is a *UsageError.
func Parse(name string, data any, config *string, args []string) ([]string, error) {
	// Pre-parse to find the config file. Errors surface in the final parse.
	if config != nil {
		pre := newParser(name, data, flags.IgnoreUnknown)
		_, _ = pre.ParseArgs(args)
	}
	parser := newParser(name, data, flags.HelpFlag|flags.PassDoubleDash)

	if config != nil && *config != "" {
		if err := flags.NewIniParser(parser).ParseFile(*config); err != nil {
			return nil, Usagef("Invalid config file %s: %v", *config, err)
		}
	}
	rest, err := parser.ParseArgs(args)
	if err != nil {
		if IsHelp(err) {
			return nil, err
		}
		return nil, &UsageError{Msg: err.Error()}
	}
	return rest, nil
}

func newParser(name string, data any, opts flags.Options) *flags.Parser {
	parser := flags.NewNamedParser(name, opts)
	if _, err := parser.AddGroup("Application Options", "", data); err != nil {
		panic("cli: " + err.Error()) // malformed struct tags
	}
	return parser
}

// IsHelp reports whether err is a help request from Parse.
func IsHelp(err error) bool {
	var ferr *flags.Error
	return errors.As(err, &ferr) && ferr.Type == flags.ErrHelp
}

// ParseUint parses positional argument index as an unsigned integer of the
// given bit size. Decimal, 0x hex and 0 octal forms are accepted.
func ParseUint(arg string, index, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(arg, 0, bitSize)
	if err != nil {
		return 0, Usagef("Invalid integer for parameter %d", index)
	}
	return v, nil
}

// ParseHexSalt decodes a hex salt of either case.
func ParseHexSalt(arg string) ([]byte, error) {
	if len(arg)%2 != 0 {
		return nil, Usagef("hex salt string must have an even number of digits")
	}
	salt, err := hex.DecodeString(arg)
	if err != nil {
		return nil, Usagef("Invalid hex salt: %v", err)
	}
	return salt, nil
}

// ParseHash resolves a hash name, defaulting to SHA-256 when empty.
func ParseHash(name string) (pbkdf.Hash, error) {
	if name == "" {
		return pbkdf.SHA256, nil
	}
	h, ok := pbkdf.ParseHash(name)
	if !ok {
		return 0, Usagef("Unknown hash %q", name)
	}
	return h, nil
}

// ReadPassword returns arg as the password, unless it is "-", in which case
// the password is read from in without echo after prompting on out.
func ReadPassword(arg string, in gopass.FdReader, out io.Writer) ([]byte, error) {
	if arg != "-" {
		return []byte(arg), nil
	}
	password, err := gopass.GetPasswdPrompt(Prompt("Password: "), false, in, out)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return password, nil
}

// NewLogger returns a text logger on w, at debug level when verbose and
// warnings only otherwise.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
