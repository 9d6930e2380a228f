// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/spmiller/mongodb-restore/common/log"
)

// EntryConsumer is the interface that one needs to implement to consume
// dump entries from a Source. Entries are delivered strictly one at a
// time: the next entry is not produced until the previous call returns.
// End is invoked exactly once, after the last entry, before the
// source's Run returns.
//
// Paths are slash-separated and rooted at the dump's database
// directory, e.g. "mydb/users/doc1.json".
type EntryConsumer interface {
	DirectoryEntry(path string) error
	FileEntry(path string, contents io.Reader) error
	End() error
}

// A Source iterates the entries of one dump.
type Source interface {
	Run(consumer EntryConsumer) error
}

// FilesystemSource reads a dump from a directory tree. The dump root
// must contain exactly one top-level directory, named for the logical
// database; beneath it, one directory per collection containing one
// file per document, plus the reserved metadata directory.
type FilesystemSource struct {
	root     string
	database string
	log      *log.ToolLogger
}

// NewFilesystemSource inspects the dump root and returns a source for
// it. Layout problems are configuration errors, reported before any
// connection to the database is made.
func NewFilesystemSource(root string, logger *log.ToolLogger) (*FilesystemSource, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, newConfigErrorf("dump root '%v' invalid: %v", root, err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry.Name())
		}
	}
	if len(dirs) != 1 {
		return nil, newConfigErrorf(
			"dump root '%v' must contain exactly one database directory, found %v",
			root, len(dirs))
	}

	return &FilesystemSource{root: root, database: dirs[0], log: logger}, nil
}

// Database returns the name of the dump's single top-level directory.
func (fss *FilesystemSource) Database() string {
	return fss.database
}

// Run announces every collection directory before reading any file, so
// collection creation is always requested before documents are
// buffered for it.
func (fss *FilesystemSource) Run(consumer EntryConsumer) error {
	dbDir := filepath.Join(fss.root, fss.database)
	entries, err := os.ReadDir(dbDir)
	if err != nil {
		return fmt.Errorf("error reading database directory %v: %v", dbDir, err)
	}

	var collections []string
	for _, entry := range entries {
		if !entry.IsDir() {
			fss.log.Logvf(log.DebugHigh, "skipping stray file %v at the database level", entry.Name())
			continue
		}
		collections = append(collections, entry.Name())
		err = consumer.DirectoryEntry(path.Join(fss.database, entry.Name()))
		if err != nil {
			return err
		}
	}

	for _, collection := range collections {
		files, err := os.ReadDir(filepath.Join(dbDir, collection))
		if err != nil {
			return fmt.Errorf("error reading collection directory %v: %v", collection, err)
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			if err = fss.runFile(consumer, dbDir, collection, file.Name()); err != nil {
				return err
			}
		}
	}

	return consumer.End()
}

func (fss *FilesystemSource) runFile(consumer EntryConsumer, dbDir, collection, name string) error {
	f, err := os.Open(filepath.Join(dbDir, collection, name))
	if err != nil {
		return fmt.Errorf("error opening dump file %v: %v", name, err)
	}
	defer f.Close()
	return consumer.FileEntry(path.Join(fss.database, collection, name), f)
}
