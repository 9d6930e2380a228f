// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spmiller/mongodb-restore/common/db"
	"github.com/spmiller/mongodb-restore/common/options"
)

// Usage describes basic usage of the mongodb-restore tool.
var Usage = `<options> <directory>

Restore the contents of a database dump into a running MongoDB deployment.

Specify a dump directory as a positional argument or with --dir; pass --archive
to read an archive stream instead.

See http://docs.mongodb.org/database-tools/mongorestore/ for more information.`

// InputOptions defines the set of options describing the dump being
// read.
type InputOptions struct {
	Directory  string `long:"dir" value-name:"<directory-name>" description:"input directory, use '-' for standard input"`
	Archive    string `long:"archive" value-name:"<file-or-uri>" optional:"true" optional-value:"-" description:"restore dump from the specified archive file, an s3:// URI, or standard input if no argument is supplied"`
	Gzip       bool   `long:"gzip" description:"decompress gzipped input"`
	Decoder    string `long:"decoder" value-name:"<tag>" default:"" description:"decoder used for document files: 'json' (default) or 'bson'"`
	Metadata   bool   `long:"metadata" description:"replay index definitions from the dump's .metadata directory"`
	ConfigPath string `long:"config" value-name:"<filename>" description:"path to a YAML configuration file supplying defaults for restore options"`
}

// Name returns a human-readable group name for input options.
func (*InputOptions) Name() string {
	return "input"
}

// OutputOptions defines the set of options for how the restore writes
// to the server.
type OutputOptions struct {
	DropDatabase    bool   `long:"dropDatabase" description:"drop the entire target database before restoring"`
	DropCollections string `long:"dropCollections" value-name:"<names>" optional:"true" optional-value:"all" description:"drop the named collections (comma separated) before restoring, or all non-system collections if no argument is supplied"`
	WriteConcern    string `long:"writeConcern" value-name:"<write-concern>" description:"write concern options e.g. --writeConcern majority, --writeConcern '{w: 3, j: true}'"`
	LogFile         string `long:"logFile" value-name:"<filename>" description:"append log output to the specified file in addition to standard error"`
}

// Name returns a human-readable group name for output options.
func (*OutputOptions) Name() string {
	return "restore"
}

// Options contains all the possible options for the restore tool.
type Options struct {
	*options.ToolOptions
	*InputOptions
	*OutputOptions
	TargetDirectory string
}

// configFile mirrors the flag surface for YAML configuration files.
// Pointer fields distinguish "absent" from zero values.
type configFile struct {
	URI             string `yaml:"uri"`
	Dir             string `yaml:"dir"`
	Archive         string `yaml:"archive"`
	Gzip            *bool  `yaml:"gzip"`
	Decoder         string `yaml:"decoder"`
	Metadata        *bool  `yaml:"metadata"`
	DropDatabase    *bool  `yaml:"drop_database"`
	DropCollections string `yaml:"drop_collections"`
	WriteConcern    string `yaml:"write_concern"`
	LogFile         string `yaml:"log_file"`
}

// ParseOptions reads command line arguments and converts them into
// options usable by the restore tool.
func ParseOptions(rawArgs []string, versionStr, gitCommit string) (Options, error) {
	toolOpts := options.New("mongodb-restore", versionStr, gitCommit, Usage,
		options.EnabledOptions{Auth: true, Connection: true, URI: true})

	inputOpts := &InputOptions{}
	toolOpts.AddOptions(inputOpts)
	outputOpts := &OutputOptions{}
	toolOpts.AddOptions(outputOpts)

	extraArgs, err := toolOpts.ParseArgs(rawArgs)
	if err != nil {
		return Options{}, err
	}

	opts := Options{toolOpts, inputOpts, outputOpts, ""}

	if inputOpts.ConfigPath != "" {
		if err := applyConfigFile(&opts, inputOpts.ConfigPath); err != nil {
			return Options{}, err
		}
	}

	targetDir, err := getTargetDirFromArgs(extraArgs, inputOpts.Directory)
	if err != nil {
		return Options{}, err
	}
	opts.TargetDirectory = targetDir

	wc, err := db.NewMongoWriteConcern(outputOpts.WriteConcern)
	if err != nil {
		return Options{}, fmt.Errorf("error parsing --writeConcern: %v", err)
	}
	opts.ToolOptions.WriteConcern = wc

	return opts, nil
}

// applyConfigFile loads a YAML configuration file and applies its
// values wherever the corresponding flag was not set on the command
// line.
func applyConfigFile(opts *Options, path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error opening config file %s: %v", path, err)
	}

	var config configFile
	if err := yaml.Unmarshal(contents, &config); err != nil {
		return fmt.Errorf("error parsing config file %s: %v", path, err)
	}

	if opts.ConnectionString == "" && config.URI != "" {
		opts.ConnectionString = config.URI
	}
	if opts.InputOptions.Directory == "" && config.Dir != "" {
		opts.InputOptions.Directory = config.Dir
	}
	if opts.Archive == "" && config.Archive != "" {
		opts.Archive = config.Archive
	}
	if !opts.Gzip && config.Gzip != nil {
		opts.Gzip = *config.Gzip
	}
	if opts.Decoder == "" && config.Decoder != "" {
		opts.Decoder = config.Decoder
	}
	if !opts.Metadata && config.Metadata != nil {
		opts.Metadata = *config.Metadata
	}
	if !opts.DropDatabase && config.DropDatabase != nil {
		opts.DropDatabase = *config.DropDatabase
	}
	if opts.DropCollections == "" && config.DropCollections != "" {
		opts.DropCollections = config.DropCollections
	}
	if opts.OutputOptions.WriteConcern == "" && config.WriteConcern != "" {
		opts.OutputOptions.WriteConcern = config.WriteConcern
	}
	if opts.LogFile == "" && config.LogFile != "" {
		opts.LogFile = config.LogFile
	}
	return nil
}

// getTargetDirFromArgs handles the logic and error cases of figuring out
// the target restore directory.
func getTargetDirFromArgs(extraArgs []string, dirFlag string) (string, error) {
	// This logic is in a switch statement so that the rules are understandable.
	// We start by handling error cases, and then handle the different ways the target
	// directory can be legally set.
	switch {
	case len(extraArgs) > 1:
		// error on cases when there are too many positional arguments
		return "", fmt.Errorf("too many positional arguments: %v", extraArgs)

	case dirFlag != "" && len(extraArgs) > 0:
		// error when positional arguments and --dir are used
		return "", fmt.Errorf(
			"cannot use both --dir and a positional argument to set the target directory")

	case len(extraArgs) == 1:
		// a nice, simple case where one argument is given, so we use it
		return extraArgs[0], nil

	case dirFlag != "":
		// if we have no extra args and a --dir flag, use the --dir flag
		return dirFlag, nil

	default:
		return "", nil
	}
}
