// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"fmt"
	"strings"

	"gopkg.in/tomb.v2"

	"github.com/spmiller/mongodb-restore/common/log"
)

// systemCollectionPrefix marks reserved collections that are never
// dropped in drop-all mode.
const systemCollectionPrefix = "system."

// DropSession is the subset of database operations the dropper
// performs against the target database.
type DropSession interface {
	DropDatabase() error
	ListCollectionNames() ([]string, error)
	DropCollection(name string) error
}

// CollectionDropper clears target data before the dispatch pipeline
// begins. Individual drop failures are logged and do not block the
// other drops or the import; only a collection-listing failure is
// fatal, since without the listing nothing can be dropped safely.
type CollectionDropper struct {
	session DropSession
	log     *log.ToolLogger
}

func NewCollectionDropper(session DropSession, logger *log.ToolLogger) *CollectionDropper {
	return &CollectionDropper{session: session, log: logger}
}

// DropDatabase issues a single request dropping the entire target
// database.
func (dropper *CollectionDropper) DropDatabase() {
	dropper.log.Logv(log.Always, "dropping target database before restoring")
	if err := dropper.session.DropDatabase(); err != nil {
		dropper.log.Logvf(log.Always, "error dropping database: %v", err)
	}
}

// DropCollections issues drop requests for all named collections
// concurrently and returns once every attempt, successful or not, has
// completed. This is the one deliberately concurrent step of the
// pipeline; the import never starts before the barrier is passed.
func (dropper *CollectionDropper) DropCollections(names []string) {
	if len(names) == 0 {
		return
	}
	var t tomb.Tomb
	t.Go(func() error {
		for _, name := range names {
			name := name
			t.Go(func() error {
				dropper.log.Logvf(log.Info, "dropping collection %v before restoring", name)
				if err := dropper.session.DropCollection(name); err != nil {
					dropper.log.Logvf(log.Always, "error dropping collection %v: %v", name, err)
				}
				return nil
			})
		}
		return nil
	})
	t.Wait()
}

// DropAllCollections lists the target database's collections, filters
// out the reserved system ones, and drops the rest as DropCollections
// does. A listing failure aborts before any drop is attempted.
func (dropper *CollectionDropper) DropAllCollections() error {
	names, err := dropper.session.ListCollectionNames()
	if err != nil {
		return fmt.Errorf("error listing collections: %v", err)
	}
	var selected []string
	for _, name := range names {
		if strings.HasPrefix(name, systemCollectionPrefix) {
			dropper.log.Logvf(log.Info, "cannot drop system collection %v, skipping", name)
			continue
		}
		selected = append(selected, name)
	}
	dropper.DropCollections(selected)
	return nil
}
