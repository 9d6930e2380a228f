// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"bytes"

	"go.mongodb.org/mongo-driver/bson"
)

// MetadataDirName is the reserved pseudo-collection directory holding
// one index-specification file per collection. It is never created as a
// real collection and never receives documents.
const MetadataDirName = ".metadata"

// Metadata holds information about a collection's indexes.
type Metadata struct {
	Indexes []IndexDocument `bson:"indexes"`
}

// IndexDocument holds information about a collection's index.
type IndexDocument struct {
	Options                 bson.M `bson:",inline"`
	Key                     bson.D `bson:"key"`
	PartialFilterExpression bson.D `bson:"partialFilterExpression,omitempty"`
}

// MetadataRecord pairs a collection name with the index specifications
// read for it from the metadata pseudo-collection.
type MetadataRecord struct {
	Collection string
	Indexes    []IndexDocument
}

// IndexSpecsFromJSON takes a slice of JSON bytes and unmarshals them
// into usable index specifications. The blob may be a bare extended
// JSON array of index specs, or a metadata document carrying an
// "indexes" field.
func IndexSpecsFromJSON(jsonBytes []byte) ([]IndexDocument, error) {
	trimmed := bytes.TrimSpace(jsonBytes)
	if len(trimmed) == 0 {
		// skip metadata parsing if the file is empty
		return nil, nil
	}

	if trimmed[0] == '[' {
		wrapped := make([]byte, 0, len(trimmed)+len(`{"indexes":}`))
		wrapped = append(wrapped, `{"indexes":`...)
		wrapped = append(wrapped, trimmed...)
		wrapped = append(wrapped, '}')
		trimmed = wrapped
	}

	meta := &Metadata{}
	if err := bson.UnmarshalExtJSON(trimmed, true, meta); err != nil {
		return nil, err
	}
	return meta.Indexes, nil
}
