// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"fmt"
	"sort"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCollectionDropper(t *testing.T) {
	Convey("With a dropper over a recording session", t, func() {
		session := &fakeSession{}
		dropper := NewCollectionDropper(session, testLogger())

		Convey("DropDatabase issues a single database drop", func() {
			dropper.DropDatabase()
			So(session.droppedDB, ShouldBeTrue)
			So(session.dropped, ShouldBeEmpty)
		})

		Convey("DropCollections drops every named collection before returning", func() {
			dropper.DropCollections([]string{"users", "orders", "events"})
			sort.Strings(session.dropped)
			So(session.dropped, ShouldResemble, []string{"events", "orders", "users"})
		})

		Convey("DropCollections with no names does nothing", func() {
			dropper.DropCollections(nil)
			So(session.dropped, ShouldBeEmpty)
		})

		Convey("one failing drop does not block the others", func() {
			session.dropErr = map[string]error{"orders": fmt.Errorf("unauthorized")}
			dropper.DropCollections([]string{"users", "orders", "events"})
			So(len(session.dropped), ShouldEqual, 3)
		})
	})
}

func TestDropAllCollections(t *testing.T) {
	Convey("With a database holding user and system collections", t, func() {
		session := &fakeSession{
			listNames: []string{"users", "system.views", "orders", "system.profile"},
		}
		dropper := NewCollectionDropper(session, testLogger())

		Convey("only non-system collections are dropped", func() {
			So(dropper.DropAllCollections(), ShouldBeNil)
			sort.Strings(session.dropped)
			So(session.dropped, ShouldResemble, []string{"orders", "users"})
		})
	})

	Convey("A listing failure aborts before any drop", t, func() {
		session := &fakeSession{listErr: fmt.Errorf("not primary")}
		dropper := NewCollectionDropper(session, testLogger())
		err := dropper.DropAllCollections()
		So(err, ShouldNotBeNil)
		So(session.dropped, ShouldBeEmpty)
	})

	Convey("An empty database drops nothing and succeeds", t, func() {
		session := &fakeSession{}
		dropper := NewCollectionDropper(session, testLogger())
		So(dropper.DropAllCollections(), ShouldBeNil)
		So(session.dropped, ShouldBeEmpty)
	})
}
