// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command keystretch derives a key from a password and a hex salt and prints
// it as upper-case hex.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dark-bio/keystretch-go/internal/cli"
	"github.com/dark-bio/keystretch-go/keystretch"
	"github.com/howeyc/gopass"
)

const usageText = `
Usage: keystretch [OPTIONS] <initial hashing factor> <hashing multiplier> <memory size> <page size> <num threads> +
        <derived key size> <salt in hex> <password>
    Initial hashing factor is 4096 + N*1024 rounds of PBKDF2
    Hashing multiplier is an integer >= 1 and multiplies the number of times memory is hashed
    Memory size in MiB
    Page size in KiB
    Derived key size in bytes
    A password of - is read from the terminal
    Run with --help for the options
`

type config struct {
	Hash    string `long:"hash" description:"PBKDF2 hash: sha256, sha512, sha3-256 or blake2b-512"`
	Verbose bool   `short:"v" long:"verbose" description:"Log parameters and progress to stderr"`
	Config  string `long:"config" description:"INI file with default option values" no-ini:"true"`

	Args struct {
		Factor     string `positional-arg-name:"initial-hashing-factor"`
		Multiplier string `positional-arg-name:"hashing-multiplier"`
		Memory     string `positional-arg-name:"memory-MiB"`
		Page       string `positional-arg-name:"page-KiB"`
		Threads    string `positional-arg-name:"threads"`
		KeySize    string `positional-arg-name:"key-size"`
		Salt       string `positional-arg-name:"hex-salt"`
		Password   string `positional-arg-name:"password"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin gopass.FdReader, stdout, stderr io.Writer) int {
	var conf config

	rest, err := cli.Parse("keystretch", &conf, &conf.Config, args)
	if err != nil {
		if cli.IsHelp(err) {
			fmt.Fprintln(stdout, err)
			return 0
		}
		return usage(stderr, err)
	}
	if len(rest) != 0 {
		return usage(stderr, cli.Usagef("Incorrect number of arguments"))
	}
	params, salt, err := readParams(&conf)
	if err != nil {
		return usage(stderr, err)
	}
	password, err := cli.ReadPassword(conf.Args.Password, stdin, stderr)
	if err != nil {
		fmt.Fprintln(stderr, cli.Red(err))
		return 1
	}
	defer clear(password)

	if err := params.Validate(password, salt); err != nil {
		return usage(stderr, err)
	}
	logger := cli.NewLogger(stderr, conf.Verbose)

	key, err := keystretch.Key(password, salt, params, keystretch.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(stderr, cli.Red("Key stretching failed: ", err))
		return 1
	}
	fmt.Fprintf(stdout, "%X", key)
	clear(key)
	return 0
}

// readParams converts the positional arguments into derivation parameters.
// Ranges are left to Params.Validate.
func readParams(conf *config) (*keystretch.Params, []byte, error) {
	factor, err := cli.ParseUint(conf.Args.Factor, 1, 32)
	if err != nil {
		return nil, nil, err
	}
	multiplier, err := cli.ParseUint(conf.Args.Multiplier, 2, 32)
	if err != nil {
		return nil, nil, err
	}
	memory, err := cli.ParseUint(conf.Args.Memory, 3, 32)
	if err != nil {
		return nil, nil, err
	}
	page, err := cli.ParseUint(conf.Args.Page, 4, 32)
	if err != nil {
		return nil, nil, err
	}
	if page > keystretch.MaxPageSize>>10 {
		return nil, nil, cli.Usagef("Invalid page size")
	}
	threads, err := cli.ParseUint(conf.Args.Threads, 5, 32)
	if err != nil {
		return nil, nil, err
	}
	if threads > keystretch.MaxThreads {
		return nil, nil, cli.Usagef("Invalid number of threads")
	}
	keySize, err := cli.ParseUint(conf.Args.KeySize, 6, 32)
	if err != nil {
		return nil, nil, err
	}
	salt, err := cli.ParseHexSalt(conf.Args.Salt)
	if err != nil {
		return nil, nil, err
	}
	hash, err := cli.ParseHash(conf.Hash)
	if err != nil {
		return nil, nil, err
	}
	return &keystretch.Params{
		InitialHashingFactor: uint32(factor),
		CPUWorkMultiplier:    uint32(multiplier),
		MemorySize:           memory << 20,
		PageSize:             uint32(page) << 10,
		Threads:              uint8(threads),
		KeySize:              uint32(keySize),
		ClearPassword:        true,
		FreeMemory:           true,
		Hash:                 hash,
	}, salt, nil
}

func usage(w io.Writer, err error) int {
	fmt.Fprintf(w, "%s\n%s", cli.Red(err), usageText)
	return 1
}
