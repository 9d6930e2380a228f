// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package restore reads database dumps, either directory trees or
// archive streams, and writes their contents into a running MongoDB
// deployment.
package restore

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/spmiller/mongodb-restore/common/db"
	"github.com/spmiller/mongodb-restore/common/log"
	"github.com/spmiller/mongodb-restore/common/options"
)

// MongoRestore is a container for the user-specified options and
// internal state used to run a single restore session.
type MongoRestore struct {
	ToolOptions   *options.ToolOptions
	InputOptions  *InputOptions
	OutputOptions *OutputOptions

	SessionProvider *db.SessionProvider

	TargetDirectory string

	// InputReader is the stream read when --archive is given "-".
	// Defaults to standard input.
	InputReader io.Reader

	// OnComplete, if set, is invoked exactly once with the session's
	// final error after all resources have been released.
	OnComplete func(error)

	// CustomDecoder overrides the decoder selected by --decoder.
	CustomDecoder Decoder

	log      *log.ToolLogger
	logFile  *os.File
	targetDB string
	decoder  Decoder
	source   Source
	archive  io.ReadCloser
	id       uuid.UUID
}

// New initializes an instance of MongoRestore according to the provided
// options.
func New(opts Options) (*MongoRestore, error) {
	restore := &MongoRestore{
		ToolOptions:     opts.ToolOptions,
		InputOptions:    opts.InputOptions,
		OutputOptions:   opts.OutputOptions,
		TargetDirectory: opts.TargetDirectory,
		InputReader:     os.Stdin,
		log:             log.NewToolLogger(opts.Verbosity),
	}

	if opts.LogFile != "" {
		logFile, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, newConfigErrorf("error opening log file %s: %v", opts.LogFile, err)
		}
		restore.logFile = logFile
		restore.log.SetWriter(io.MultiWriter(os.Stderr, logFile))
	}
	return restore, nil
}

// Close releases the session's resources. It is safe to call more than
// once.
func (restore *MongoRestore) Close() {
	if restore.archive != nil {
		restore.archive.Close()
		restore.archive = nil
	}
	if restore.SessionProvider != nil {
		restore.log.Logv(log.Info, "releasing the server connection")
		restore.SessionProvider.Close()
		restore.SessionProvider = nil
	}
	if restore.logFile != nil {
		restore.logFile.Close()
		restore.logFile = nil
	}
}

// ParseAndValidateOptions resolves the target database, the document
// decoder, and the dump source from the user-specified options. All
// misconfiguration is reported here, before any server connection is
// made.
func (restore *MongoRestore) ParseAndValidateOptions() error {
	restore.log.Logv(log.DebugHigh, "checking options")

	if restore.ToolOptions.ConnectionString == "" {
		return newConfigErrorf("a --uri connection string is required")
	}
	cs, err := connstring.ParseAndValidate(restore.ToolOptions.ConnectionString)
	if err != nil {
		return newConfigErrorf("error parsing uri: %v", err)
	}
	if cs.Database == "" {
		return newConfigErrorf("the connection string must include the database to restore into")
	}
	restore.targetDB = cs.Database

	if restore.OutputOptions.DropDatabase && restore.OutputOptions.DropCollections != "" {
		return newConfigErrorf("--dropDatabase and --dropCollections are incompatible")
	}

	if restore.CustomDecoder != nil {
		restore.decoder = restore.CustomDecoder
	} else {
		restore.decoder, err = NewDecoder(restore.InputOptions.Decoder)
		if err != nil {
			return err
		}
	}

	switch {
	case restore.InputOptions.Archive != "":
		if restore.TargetDirectory != "" {
			return newConfigErrorf("--archive cannot be used with a target directory")
		}
		restore.archive, err = restore.getArchiveReader()
		if err != nil {
			return err
		}
		restore.source = NewArchiveSource(restore.archive, restore.log)

	case restore.TargetDirectory != "":
		fsSource, err := NewFilesystemSource(restore.TargetDirectory, restore.log)
		if err != nil {
			return err
		}
		if fsSource.Database() != restore.targetDB {
			restore.log.Logvf(log.Info, "restoring dump of database %v into database %v",
				fsSource.Database(), restore.targetDB)
		}
		restore.source = fsSource

	default:
		return newConfigErrorf("a target directory or --archive must be specified")
	}

	return nil
}

// Restore runs the restore session and reports its result through both
// the returned error and the OnComplete callback.
func (restore *MongoRestore) Restore() error {
	err := restore.restore()
	if err != nil {
		restore.log.Logvf(log.Always, "restore failed: %v", err)
	}
	restore.Close()
	if restore.OnComplete != nil {
		restore.OnComplete(err)
	}
	return err
}

func (restore *MongoRestore) restore() error {
	restore.id = uuid.New()

	if err := restore.ParseAndValidateOptions(); err != nil {
		return err
	}
	restore.log.Logvf(log.Always, "starting restore %v into database %v", restore.id, restore.targetDB)

	var err error
	restore.SessionProvider, err = db.NewSessionProvider(*restore.ToolOptions)
	if err != nil {
		if db.IsConnectionError(err) {
			return fmt.Errorf("error connecting to server: %v", err)
		}
		return fmt.Errorf("can't create session: %v", err)
	}
	restore.log.Logv(log.Info, "connected to the target server")
	session := newDatabaseSession(restore.SessionProvider, restore.targetDB)

	dropper := NewCollectionDropper(session, restore.log)
	switch {
	case restore.OutputOptions.DropDatabase:
		dropper.DropDatabase()
	case restore.OutputOptions.DropCollections == "all":
		if err := dropper.DropAllCollections(); err != nil {
			return err
		}
	case restore.OutputOptions.DropCollections != "":
		dropper.DropCollections(strings.Split(restore.OutputOptions.DropCollections, ","))
	}

	writer := NewBatchedWriter(session, restore.log)
	dispatcher := NewEntryDispatcher(writer, restore.decoder, restore.InputOptions.Metadata, restore.log)

	if err := restore.source.Run(dispatcher); err != nil {
		return err
	}

	result := writer.Result()
	result.log(restore.log)
	restore.log.Logvf(log.Always, "finished restore %v", restore.id)
	return nil
}
