// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Main package for the mongodb-restore tool.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spmiller/mongodb-restore/common/util"
	"github.com/spmiller/mongodb-restore/restore"
)

var (
	VersionStr = "built-without-version-string"
	GitCommit  = "build-without-git-commit"
)

// handleSignals terminates the process on an interrupt or termination
// signal. The pipeline itself has no cancellation path, so a signal
// exits the process outright.
func handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	fmt.Fprintf(os.Stderr, "%v: %v\n", util.ErrTerminated, sig)
	os.Exit(util.ExitKill)
}

func main() {
	go handleSignals()

	opts, err := restore.ParseOptions(os.Args[1:], VersionStr, GitCommit)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		fmt.Fprintln(os.Stderr, "try 'mongodb-restore --help' for more information")
		os.Exit(util.ExitBadOptions)
	}

	if opts.PrintHelp(false) {
		return
	}
	if opts.PrintVersion() {
		return
	}

	restorer, err := restore.New(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(util.ExitBadOptions)
	}
	defer restorer.Close()

	if err = restorer.Restore(); err != nil {
		if restore.IsConfigError(err) {
			os.Exit(util.ExitBadOptions)
		}
		os.Exit(util.ExitError)
	}
}
