// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package options implements the command-line options shared by the
// restore tooling: connection target, authentication, verbosity, and
// raw transport passthrough.
package options

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	flags "github.com/jessevdk/go-flags"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const IncompatibleArgsErrorFormat = "illegal argument combination: cannot specify %s and --uri"

// ToolOptions encompasses all of the options reused across tools: "help",
// "version", verbosity settings, connection settings, etc.
type ToolOptions struct {

	// The name of the tool
	AppName string

	// The version of the tool
	VersionStr string

	// The git commit reference of the tool
	GitCommit string

	// Sub-option types
	*URI
	*General
	*Verbosity
	*Connection
	*Auth

	// WriteConcern, if specified, sets the client default
	WriteConcern *writeconcern.WriteConcern

	// for caching the parser
	parser *flags.Parser
}

// General holds generic options
type General struct {
	Help    bool `long:"help" description:"print usage"`
	Version bool `long:"version" description:"print the tool version and exit"`
}

// Verbosity holds verbosity-related options
type Verbosity struct {
	SetVerbosity func(string) `short:"v" long:"verbose" value-name:"<level>" description:"more detailed log output (include multiple times for more verbosity, e.g. -vvvvv, or specify a numeric value, e.g. --verbose=N)" optional:"true" optional-value:""`
	Quiet        bool         `long:"quiet" description:"hide all log output"`
	VLevel       int          `no-flag:"true"`
}

func (v Verbosity) Level() int {
	return v.VLevel
}

func (v Verbosity) IsQuiet() bool {
	return v.Quiet
}

type URI struct {
	ConnectionString string `long:"uri" value-name:"mongodb-uri" description:"mongodb uri connection string"`
}

// Connection holds connection-related options
type Connection struct {
	Host string `short:"h" long:"host" value-name:"<hostname>" description:"mongodb host to connect to (setname/host1,host2 for replica sets)"`
	Port string `long:"port" value-name:"<port>" description:"server port (can also use --host hostname:port)"`

	Timeout       int `long:"dialTimeout" default:"3" hidden:"true" description:"dial timeout in seconds"`
	SocketTimeout int `long:"socketTimeout" default:"0" hidden:"true" description:"socket timeout in seconds (0 for no timeout)"`
}

// Auth holds auth-related options
type Auth struct {
	Username  string `short:"u" value-name:"<username>" long:"username" description:"username for authentication"`
	Password  string `short:"p" value-name:"<password>" long:"password" description:"password for authentication"`
	Source    string `long:"authenticationDatabase" value-name:"<database-name>" description:"database that holds the user's credentials"`
	Mechanism string `long:"authenticationMechanism" value-name:"<mechanism>" description:"authentication mechanism to use"`
}

func (auth *Auth) IsSet() bool {
	return *auth != Auth{}
}

// EnabledOptions is used for checking which option groups a tool wants
type EnabledOptions struct {
	Auth       bool
	Connection bool
	URI        bool
}

func parseVal(val string) int {
	idx := strings.Index(val, "=")
	ret, err := strconv.Atoi(val[idx+1:])
	if err != nil {
		panic(fmt.Errorf("value was not a valid integer: %v", err))
	}
	return ret
}

// New returns a new instance of tool options with the given option
// groups registered.
func New(appName, versionStr, gitCommit, usageStr string, enabled EnabledOptions) *ToolOptions {
	opts := &ToolOptions{
		AppName:    appName,
		VersionStr: versionStr,
		GitCommit:  gitCommit,

		General:    &General{},
		Verbosity:  &Verbosity{},
		Connection: &Connection{},
		URI:        &URI{},
		Auth:       &Auth{},
		parser: flags.NewNamedParser(
			fmt.Sprintf("%v %v", appName, usageStr), flags.None),
	}

	// Called when -v or --verbose is parsed
	opts.SetVerbosity = func(val string) {
		if i, err := strconv.Atoi(val); err == nil {
			opts.VLevel = opts.VLevel + i // -v=N or --verbose=N
		} else if matched, _ := regexp.MatchString(`^v+$`, val); matched {
			opts.VLevel = opts.VLevel + len(val) + 1 // Handles the -vvv cases
		} else if matched, _ := regexp.MatchString(`^v+=[0-9]$`, val); matched {
			opts.VLevel = parseVal(val) // I.e. -vv=3
		} else if val == "" {
			opts.VLevel = opts.VLevel + 1 // Increment for every occurrence of flag
		} else {
			fmt.Fprintln(os.Stderr, "Invalid verbosity value given")
			os.Exit(-1)
		}
	}

	if _, err := opts.parser.AddGroup("general options", "", opts.General); err != nil {
		panic(fmt.Errorf("couldn't register general options: %v", err))
	}
	if _, err := opts.parser.AddGroup("verbosity options", "", opts.Verbosity); err != nil {
		panic(fmt.Errorf("couldn't register verbosity options: %v", err))
	}

	if enabled.Connection {
		if _, err := opts.parser.AddGroup("connection options", "", opts.Connection); err != nil {
			panic(fmt.Errorf("couldn't register connection options: %v", err))
		}
	}
	if enabled.Auth {
		if _, err := opts.parser.AddGroup("authentication options", "", opts.Auth); err != nil {
			panic(fmt.Errorf("couldn't register auth options"))
		}
	}
	if enabled.URI {
		if _, err := opts.parser.AddGroup("uri options", "", opts.URI); err != nil {
			panic(fmt.Errorf("couldn't register URI options"))
		}
	}
	return opts
}

// ExtraOptions is the interface for option groups that specific tools
// register on top of the common ones.
type ExtraOptions interface {
	// Name specifying what type of options these are
	Name() string
}

// AddOptions registers an additional option group to this instance
func (opts *ToolOptions) AddOptions(extraOpts ExtraOptions) {
	_, err := opts.parser.AddGroup(extraOpts.Name()+" options", "", extraOpts)
	if err != nil {
		panic(fmt.Errorf("error setting command line options for %v: %v",
			extraOpts.Name(), err))
	}
}

// ParseArgs parses the command line args into the registered groups and
// returns any remaining positional arguments.
func (opts *ToolOptions) ParseArgs(args []string) ([]string, error) {
	args, err := opts.parser.ParseArgs(args)
	if err != nil {
		return []string{}, err
	}
	if opts.URI.ConnectionString != "" && opts.Host != "" {
		return []string{}, fmt.Errorf(IncompatibleArgsErrorFormat, "--host")
	}
	if opts.URI.ConnectionString != "" && opts.Port != "" {
		return []string{}, fmt.Errorf(IncompatibleArgsErrorFormat, "--port")
	}
	opts.NormalizeHostPortURI()
	return args, nil
}

// NormalizeHostPortURI builds a connection string from the --host/--port
// flags when no --uri was given, so that everything downstream can treat
// the URI as the single source of connection truth.
func (opts *ToolOptions) NormalizeHostPortURI() {
	if opts.URI.ConnectionString != "" {
		return
	}
	if opts.Host == "" && opts.Port == "" {
		// no connection flags at all; leave the URI unset so other
		// configuration sources can fill it in
		return
	}
	host := opts.Host
	if host == "" {
		host = "localhost"
	}
	if opts.Port != "" && !strings.Contains(host, ":") {
		host = host + ":" + opts.Port
	}
	opts.URI.ConnectionString = "mongodb://" + host
}

// PrintHelp prints the usage message for the tool to stdout.  Returns
// whether or not the help flag is specified.
func (opts *ToolOptions) PrintHelp(force bool) bool {
	if opts.Help || force {
		opts.parser.WriteHelp(os.Stdout)
	}
	return opts.Help
}

// PrintVersion prints the tool version to stdout.  Returns whether or
// not the version flag is specified.
func (opts *ToolOptions) PrintVersion() bool {
	if opts.Version {
		fmt.Printf("%v version: %v\n", opts.AppName, opts.VersionStr)
		fmt.Printf("git version: %v\n", opts.GitCommit)
		fmt.Printf("Go version: %v\n", runtime.Version())
		fmt.Printf("   os: %v\n", runtime.GOOS)
		fmt.Printf("   arch: %v\n", runtime.GOARCH)
		fmt.Printf("   compiler: %v\n", runtime.Compiler)
	}
	return opts.Version
}

// GetAuthenticationDatabase returns the database that should be used
// for looking up the user's credentials.
func (opts *ToolOptions) GetAuthenticationDatabase() string {
	if opts.Auth.Source != "" {
		return opts.Auth.Source
	}
	return "admin"
}
