// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"fmt"
	"io"
	"path"

	"github.com/spmiller/mongodb-restore/common/db"
	"github.com/spmiller/mongodb-restore/common/log"
	"github.com/spmiller/mongodb-restore/common/util"
)

// EntryDispatcher classifies dump entries and forwards them to the
// batched writer: a directory entry is a collection announcement, a
// file entry is a document blob unless it sits under the reserved
// metadata directory, in which case it is a list of index specs for
// the collection the file is named after.
//
// The dispatcher is driven by exactly one Source at a time, so none of
// its state needs synchronization.
type EntryDispatcher struct {
	writer         *BatchedWriter
	decoder        Decoder
	replayMetadata bool
	log            *log.ToolLogger

	// metadata records in arrival order, held until drain completes
	metadata []MetadataRecord
}

func NewEntryDispatcher(writer *BatchedWriter, decoder Decoder, replayMetadata bool, logger *log.ToolLogger) *EntryDispatcher {
	return &EntryDispatcher{
		writer:         writer,
		decoder:        decoder,
		replayMetadata: replayMetadata,
		log:            logger,
	}
}

// DirectoryEntry requests creation of the collection named by the
// path's final segment. The reserved metadata directory is
// acknowledged without action.
func (dispatch *EntryDispatcher) DirectoryEntry(entryPath string) error {
	name := path.Base(entryPath)
	if name == MetadataDirName {
		dispatch.log.Logv(log.DebugLow, "found metadata pseudo-collection directory")
		return nil
	}
	dispatch.writer.CreateCollection(name)
	return nil
}

// FileEntry buffers and decodes one blob. The collection it belongs to
// is named by the path's parent segment.
func (dispatch *EntryDispatcher) FileEntry(entryPath string, contents io.Reader) error {
	collection := path.Base(path.Dir(entryPath))

	if collection == MetadataDirName {
		if !dispatch.replayMetadata {
			// with metadata replay off the blob is never even read
			return nil
		}
		data, err := io.ReadAll(contents)
		if err != nil {
			return fmt.Errorf("error reading metadata %v: %v", entryPath, err)
		}
		indexes, err := IndexSpecsFromJSON(data)
		if err != nil {
			return &formatError{Path: entryPath, Err: err}
		}
		target := path.Base(entryPath)
		dispatch.log.Logvf(log.DebugLow, "read %v index %v for collection %v",
			len(indexes), util.Pluralize(len(indexes), "spec", "specs"), target)
		dispatch.metadata = append(dispatch.metadata, MetadataRecord{
			Collection: target,
			Indexes:    indexes,
		})
		return nil
	}

	data, err := io.ReadAll(contents)
	if err != nil {
		return fmt.Errorf("error reading dump file %v: %v", entryPath, err)
	}
	if len(data) > db.MaxBSONSize {
		return &formatError{Path: entryPath,
			Err: fmt.Errorf("document exceeds the maximum BSON size of %v bytes", db.MaxBSONSize)}
	}
	doc, err := dispatch.decoder.Decode(data)
	if err != nil {
		return &formatError{Path: entryPath, Err: err}
	}
	dispatch.writer.AddDocument(collection, doc)
	return nil
}

// End is invoked once the source is exhausted. It drains every pending
// buffer, then, when metadata replay is enabled, replays the
// accumulated index specifications.
func (dispatch *EntryDispatcher) End() error {
	dispatch.writer.Drain()
	if dispatch.replayMetadata {
		dispatch.writer.AddIndexes(dispatch.metadata)
	}
	return nil
}
