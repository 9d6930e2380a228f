// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/bson"
)

func TestNewDecoder(t *testing.T) {
	Convey("Resolving decoder tags", t, func() {
		Convey("the empty tag selects the JSON decoder", func() {
			decoder, err := NewDecoder("")
			So(err, ShouldBeNil)
			So(decoder, ShouldHaveSameTypeAs, jsonDecoder{})
		})

		Convey("'json' and 'bson' select their decoders", func() {
			decoder, err := NewDecoder(JSONDecoderTag)
			So(err, ShouldBeNil)
			So(decoder, ShouldHaveSameTypeAs, jsonDecoder{})

			decoder, err = NewDecoder(BSONDecoderTag)
			So(err, ShouldBeNil)
			So(decoder, ShouldHaveSameTypeAs, bsonDecoder{})
		})

		Convey("an unknown tag is a configuration error", func() {
			_, err := NewDecoder("xml")
			So(IsConfigError(err), ShouldBeTrue)
		})
	})
}

func TestJSONDecoder(t *testing.T) {
	Convey("With the extended JSON decoder", t, func() {
		decoder := jsonDecoder{}

		Convey("plain documents decode with field order preserved", func() {
			doc, err := decoder.Decode([]byte(`{"b": 2, "a": 1}`))
			So(err, ShouldBeNil)
			So(doc, ShouldResemble, bson.D{{Key: "b", Value: int32(2)}, {Key: "a", Value: int32(1)}})
		})

		Convey("extended JSON type wrappers are honored", func() {
			doc, err := decoder.Decode([]byte(`{"n": {"$numberLong": "9000000000"}}`))
			So(err, ShouldBeNil)
			So(doc, ShouldResemble, bson.D{{Key: "n", Value: int64(9000000000)}})
		})

		Convey("malformed input reports an error", func() {
			_, err := decoder.Decode([]byte(`{"a": `))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestBSONDecoder(t *testing.T) {
	Convey("With the raw BSON decoder", t, func() {
		decoder := bsonDecoder{}

		Convey("a marshaled document round-trips", func() {
			raw, err := bson.Marshal(bson.D{{Key: "_id", Value: int32(7)}, {Key: "name", Value: "ann"}})
			So(err, ShouldBeNil)
			doc, err := decoder.Decode(raw)
			So(err, ShouldBeNil)
			So(doc, ShouldResemble, bson.D{{Key: "_id", Value: int32(7)}, {Key: "name", Value: "ann"}})
		})

		Convey("garbage bytes report an error", func() {
			_, err := decoder.Decode([]byte{0x02, 0x00})
			So(err, ShouldNotBeNil)
		})
	})
}

func TestDecoderFunc(t *testing.T) {
	Convey("A DecoderFunc adapts a plain function to the interface", t, func() {
		var decoder Decoder = DecoderFunc(func(data []byte) (bson.D, error) {
			return bson.D{{Key: "len", Value: len(data)}}, nil
		})
		doc, err := decoder.Decode([]byte("abc"))
		So(err, ShouldBeNil)
		So(doc, ShouldResemble, bson.D{{Key: "len", Value: 3}})
	})
}
