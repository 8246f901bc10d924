// keystretch-go: memory-hard key stretching
// Copyright 2026 Dark Bio AG. All rights reserved.
//
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command phs derives a key through the password hashing competition entry
// point and prints it as upper-case hex.
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
Usage: phs <outlen> <password> <salt in hex> <t_cost> <m_cost>
    t_cost multiplies the number of times memory is hashed
    m_cost is the memory size in MiB
    A password of - is read from the terminal
`

type config struct {
	Args struct {
		OutLen   string `positional-arg-name:"outlen"`
		Password string `positional-arg-name:"password"`
		Salt     string `positional-arg-name:"hex-salt"`
		TCost    string `positional-arg-name:"t_cost"`
		MCost    string `positional-arg-name:"m_cost"`
	} `positional-args:"yes" required:"yes"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin gopass.FdReader, stdout, stderr io.Writer) int {
	var conf config

	rest, err := cli.Parse("phs", &conf, nil, args)
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
	outLen, err := cli.ParseUint(conf.Args.OutLen, 1, 32)
	if err != nil {
		return usage(stderr, err)
	}
	salt, err := cli.ParseHexSalt(conf.Args.Salt)
	if err != nil {
		return usage(stderr, err)
	}
	tCost, err := cli.ParseUint(conf.Args.TCost, 4, 32)
	if err != nil {
		return usage(stderr, err)
	}
	mCost, err := cli.ParseUint(conf.Args.MCost, 5, 32)
	if err != nil {
		return usage(stderr, err)
	}
	password, err := cli.ReadPassword(conf.Args.Password, stdin, stderr)
	if err != nil {
		fmt.Fprintln(stderr, cli.Red(err))
		return 1
	}
	defer clear(password)

	params := keystretch.PHSParams(int(outLen), uint32(tCost), uint32(mCost))
	if err := params.Validate(password, salt); err != nil {
		return usage(stderr, err)
	}
	out := make([]byte, outLen)
	if keystretch.PHS(out, password, salt, uint32(tCost), uint32(mCost)) != 0 {
		fmt.Fprintln(stderr, cli.Red("Key stretching failed."))
		return 1
	}
	fmt.Fprintf(stdout, "%X\n", out)
	clear(out)
	return 0
}

func usage(w io.Writer, err error) int {
	fmt.Fprintf(w, "%s\n%s", cli.Red(err), usageText)
	return 1
}
