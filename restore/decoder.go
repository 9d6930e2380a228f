// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Decoder tags accepted by the --decoder flag.
const (
	JSONDecoderTag = "json"
	BSONDecoderTag = "bson"
)

// A Decoder turns the bytes of one dump file into a document. The
// decoder for a session is resolved exactly once, at session start;
// there is no per-entry type inspection.
type Decoder interface {
	Decode(data []byte) (bson.D, error)
}

// DecoderFunc adapts a caller-supplied function to the Decoder
// interface, for library users that dump documents in their own format.
type DecoderFunc func(data []byte) (bson.D, error)

func (f DecoderFunc) Decode(data []byte) (bson.D, error) {
	return f(data)
}

// jsonDecoder decodes MongoDB extended JSON documents.
type jsonDecoder struct{}

func (jsonDecoder) Decode(data []byte) (bson.D, error) {
	doc := bson.D{}
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// bsonDecoder decodes a single raw BSON document.
type bsonDecoder struct{}

func (bsonDecoder) Decode(data []byte) (bson.D, error) {
	doc := bson.D{}
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// NewDecoder resolves a decoder tag into a Decoder. An empty tag
// selects the JSON decoder.
func NewDecoder(tag string) (Decoder, error) {
	switch tag {
	case "", JSONDecoderTag:
		return jsonDecoder{}, nil
	case BSONDecoderTag:
		return bsonDecoder{}, nil
	}
	return nil, newConfigErrorf("unknown decoder type %q", tag)
}
