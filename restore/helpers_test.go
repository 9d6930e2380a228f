// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"io"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/spmiller/mongodb-restore/common/log"
)

type testVerbosity int

func (v testVerbosity) Level() int    { return int(v) }
func (v testVerbosity) IsQuiet() bool { return false }

func testLogger() *log.ToolLogger {
	logger := log.NewToolLogger(nil)
	logger.SetWriter(io.Discard)
	return logger
}

type insertCall struct {
	collection string
	docs       []bson.D
}

type indexCall struct {
	collection string
	indexes    []IndexDocument
}

// fakeSession records every call made against it. The optional hook
// fields inject failures; the mutex matters only for the concurrent
// drop tests.
type fakeSession struct {
	mu sync.Mutex

	created    []string
	inserts    []insertCall
	indexCalls []indexCall
	dropped    []string
	droppedDB  bool

	createErr error
	insertFn  func(collection string, docs []bson.D) (int, error)
	indexErr  error
	dropErr   map[string]error
	listNames []string
	listErr   error
}

func (fs *fakeSession) CreateCollection(name string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.created = append(fs.created, name)
	return fs.createErr
}

func (fs *fakeSession) InsertMany(collection string, docs []bson.D) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	copied := make([]bson.D, len(docs))
	copy(copied, docs)
	fs.inserts = append(fs.inserts, insertCall{collection: collection, docs: copied})
	if fs.insertFn != nil {
		return fs.insertFn(collection, docs)
	}
	return len(docs), nil
}

func (fs *fakeSession) CreateIndexes(collection string, indexes []IndexDocument) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.indexCalls = append(fs.indexCalls, indexCall{collection: collection, indexes: indexes})
	return fs.indexErr
}

func (fs *fakeSession) DropDatabase() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.droppedDB = true
	return nil
}

func (fs *fakeSession) ListCollectionNames() ([]string, error) {
	return fs.listNames, fs.listErr
}

func (fs *fakeSession) DropCollection(name string) error {
	fs.mu.Lock()
	fs.dropped = append(fs.dropped, name)
	err := fs.dropErr[name]
	fs.mu.Unlock()
	return err
}

func (fs *fakeSession) insertedDocs(collection string) []bson.D {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	var docs []bson.D
	for _, call := range fs.inserts {
		if call.collection == collection {
			docs = append(docs, call.docs...)
		}
	}
	return docs
}

// recordingConsumer captures the entry stream a source produces.
type recordingConsumer struct {
	dirs  []string
	files map[string]string
	order []string
	ended int
}

func newRecordingConsumer() *recordingConsumer {
	return &recordingConsumer{files: map[string]string{}}
}

func (rc *recordingConsumer) DirectoryEntry(path string) error {
	rc.dirs = append(rc.dirs, path)
	rc.order = append(rc.order, "dir:"+path)
	return nil
}

func (rc *recordingConsumer) FileEntry(path string, contents io.Reader) error {
	data, err := io.ReadAll(contents)
	if err != nil {
		return err
	}
	rc.files[path] = string(data)
	rc.order = append(rc.order, "file:"+path)
	return nil
}

func (rc *recordingConsumer) End() error {
	rc.ended++
	return nil
}
