// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/spmiller/mongodb-restore/common/log"
	"github.com/spmiller/mongodb-restore/common/util"
)

// insertThreshold is the pending-buffer length past which a
// collection's buffer is flushed in one batched insert. A buffer of
// exactly insertThreshold documents does not flush; one more does.
const insertThreshold = 50

// WriterSession is the subset of database operations the batched
// writer performs against the target database.
type WriterSession interface {
	CreateCollection(name string) error
	InsertMany(collection string, docs []bson.D) (int, error)
	CreateIndexes(collection string, indexes []IndexDocument) error
}

// Result encapsulates the outcome of a restore attempt.
type Result struct {
	Successes int64
	Failures  int64
}

// log pretty-prints the result.
func (result *Result) log(logger *log.ToolLogger) {
	logger.Logvf(log.Always, "restored %v %v, %v %v",
		result.Successes, util.Pluralize(int(result.Successes), "document", "documents"),
		result.Failures, util.Pluralize(int(result.Failures), "failure", "failures"))
}

// BatchedWriter buffers pending decoded documents per collection and
// writes them out in bounded batches. Database-level failures (create,
// insert, index creation) are logged and swallowed, never escalated:
// the contract to the caller is best-effort completion of the whole
// restore, not all-or-nothing correctness.
//
// The writer is driven by the single sequential dispatcher, so the
// pending map needs no synchronization.
type BatchedWriter struct {
	session WriterSession
	log     *log.ToolLogger
	pending map[string][]bson.D
	result  Result
}

func NewBatchedWriter(session WriterSession, logger *log.ToolLogger) *BatchedWriter {
	return &BatchedWriter{
		session: session,
		log:     logger,
		pending: map[string][]bson.D{},
	}
}

// CreateCollection issues a create request for the named collection.
// A "collection already exists" class of failure is routine when
// restoring into a non-empty database and is logged like any other
// database error.
func (bw *BatchedWriter) CreateCollection(name string) {
	bw.log.Logvf(log.Info, "creating collection %v", name)
	if err := bw.session.CreateCollection(name); err != nil {
		bw.log.Logvf(log.Always, "error creating collection %v: %v", name, err)
	}
}

// AddDocument appends one decoded document to the collection's pending
// buffer, flushing the whole buffer when its length exceeds the
// threshold.
func (bw *BatchedWriter) AddDocument(collection string, doc bson.D) {
	bw.pending[collection] = append(bw.pending[collection], doc)
	if len(bw.pending[collection]) > insertThreshold {
		bw.flush(collection)
	}
}

// flush performs one batched insert of every pending document in the
// collection and clears its buffer.
func (bw *BatchedWriter) flush(collection string) {
	docs := bw.pending[collection]
	bw.pending[collection] = nil
	if len(docs) == 0 {
		return
	}

	inserted, err := bw.session.InsertMany(collection, docs)
	bw.result.Successes += int64(inserted)
	if err != nil {
		bw.result.Failures += int64(len(docs) - inserted)
		bw.log.Logvf(log.Always, "error inserting documents into %v: %v", collection, err)
		return
	}
	bw.log.Logvf(log.DebugLow, "inserted %v %v into %v", len(docs),
		util.Pluralize(len(docs), "document", "documents"), collection)
}

// Drain flushes every non-empty pending buffer, one collection at a
// time. It works through an explicit queue of collection names rather
// than recursing, so a dump with many collections cannot exhaust the
// stack, and terminates immediately when nothing is pending.
func (bw *BatchedWriter) Drain() {
	queue := make([]string, 0, len(bw.pending))
	for collection := range bw.pending {
		queue = append(queue, collection)
	}
	for len(queue) > 0 {
		collection := queue[0]
		queue = queue[1:]
		bw.flush(collection)
		delete(bw.pending, collection)
	}
}

// AddIndexes consumes the metadata records last-in-first-out, issuing
// one create-indexes request per record. Within a record the index
// order is preserved. Must only be called after Drain.
func (bw *BatchedWriter) AddIndexes(records []MetadataRecord) {
	for i := len(records) - 1; i >= 0; i-- {
		record := records[i]
		if len(record.Indexes) == 0 {
			continue
		}
		bw.log.Logvf(log.Info, "restoring %v %v for collection %v",
			len(record.Indexes), util.Pluralize(len(record.Indexes), "index", "indexes"),
			record.Collection)
		if err := bw.session.CreateIndexes(record.Collection, record.Indexes); err != nil {
			bw.log.Logvf(log.Always, "error creating indexes for %v: %v", record.Collection, err)
		}
	}
}

// Result reports the totals accumulated so far.
func (bw *BatchedWriter) Result() Result {
	return bw.result
}
