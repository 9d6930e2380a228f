// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type tarEntry struct {
	name     string
	dir      bool
	contents string
}

func buildTar(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	for _, entry := range entries {
		hdr := &tar.Header{Name: entry.name, Mode: 0644}
		if entry.dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Mode = 0755
		} else {
			hdr.Typeflag = tar.TypeReg
			hdr.Size = int64(len(entry.contents))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if !entry.dir {
			if _, err := tw.Write([]byte(entry.contents)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestArchiveSourceRun(t *testing.T) {
	Convey("With a tar stream carrying a dump tree", t, func() {
		raw := buildTar(t, []tarEntry{
			{name: "mydb/", dir: true},
			{name: "mydb/users/", dir: true},
			{name: "mydb/users/doc1.json", contents: `{"_id": 1}`},
			{name: "mydb/.metadata/", dir: true},
			{name: "mydb/.metadata/users", contents: `[]`},
		})
		source := NewArchiveSource(bytes.NewReader(raw), testLogger())

		consumer := newRecordingConsumer()
		So(source.Run(consumer), ShouldBeNil)

		Convey("the database root directory is not forwarded", func() {
			So(consumer.dirs, ShouldResemble, []string{"mydb/users", "mydb/.metadata"})
		})

		Convey("file entries stream their contents", func() {
			So(consumer.files["mydb/users/doc1.json"], ShouldEqual, `{"_id": 1}`)
			So(consumer.files["mydb/.metadata/users"], ShouldEqual, `[]`)
		})

		Convey("End is called exactly once", func() {
			So(consumer.ended, ShouldEqual, 1)
		})
	})

	Convey("Stray files above the collection level are skipped", t, func() {
		raw := buildTar(t, []tarEntry{
			{name: "README", contents: "top-level notes"},
			{name: "mydb/", dir: true},
			{name: "mydb/README", contents: "not a document"},
			{name: "mydb/users/", dir: true},
			{name: "mydb/users/doc1.json", contents: `{"_id": 1}`},
		})
		consumer := newRecordingConsumer()
		source := NewArchiveSource(bytes.NewReader(raw), testLogger())
		So(source.Run(consumer), ShouldBeNil)
		So(consumer.dirs, ShouldResemble, []string{"mydb/users"})
		So(len(consumer.files), ShouldEqual, 1)
		So(consumer.files["mydb/users/doc1.json"], ShouldEqual, `{"_id": 1}`)
	})

	Convey("Unrecognized entry types are discarded", t, func() {
		buf := &bytes.Buffer{}
		tw := tar.NewWriter(buf)
		So(tw.WriteHeader(&tar.Header{
			Name:     "mydb/users/link",
			Typeflag: tar.TypeSymlink,
			Linkname: "doc1.json",
		}), ShouldBeNil)
		So(tw.Close(), ShouldBeNil)

		consumer := newRecordingConsumer()
		source := NewArchiveSource(buf, testLogger())
		So(source.Run(consumer), ShouldBeNil)
		So(consumer.files, ShouldBeEmpty)
		So(consumer.dirs, ShouldBeEmpty)
	})

	Convey("A truncated tar stream reports corruption", t, func() {
		raw := buildTar(t, []tarEntry{
			{name: "mydb/users/doc1.json", contents: `{"_id": 1}`},
		})
		source := NewArchiveSource(bytes.NewReader(raw[:len(raw)-700]), testLogger())
		err := source.Run(newRecordingConsumer())
		So(err, ShouldNotBeNil)
	})
}

func TestArchivePipeline(t *testing.T) {
	Convey("With a tar dump driven through the dispatch pipeline", t, func() {
		raw := buildTar(t, []tarEntry{
			{name: "mydb/", dir: true},
			{name: "mydb/users/", dir: true},
			{name: "mydb/users/doc1.json", contents: `{"_id": 1, "name": "ann"}`},
			{name: "mydb/users/doc2.json", contents: `{"_id": 2, "name": "ben"}`},
			{name: "mydb/.metadata/", dir: true},
			{name: "mydb/.metadata/users", contents: `[{"name": "name_1", "key": {"name": 1}}]`},
		})

		session := &fakeSession{}
		writer := NewBatchedWriter(session, testLogger())
		decoder, _ := NewDecoder("")
		dispatch := NewEntryDispatcher(writer, decoder, true, testLogger())

		source := NewArchiveSource(bytes.NewReader(raw), testLogger())
		So(source.Run(dispatch), ShouldBeNil)

		So(session.created, ShouldResemble, []string{"users"})
		So(len(session.insertedDocs("users")), ShouldEqual, 2)
		So(len(session.indexCalls), ShouldEqual, 1)
		So(session.indexCalls[0].collection, ShouldEqual, "users")
		So(writer.Result().Successes, ShouldEqual, 2)
	})
}

func TestGetArchiveReader(t *testing.T) {
	newRestorer := func(archive string, gz bool) *MongoRestore {
		return &MongoRestore{
			InputOptions: &InputOptions{Archive: archive, Gzip: gz},
			InputReader:  bytes.NewReader(nil),
			log:          testLogger(),
		}
	}

	Convey("Opening the archive byte stream", t, func() {
		Convey("'-' selects the session's input reader", func() {
			restore := newRestorer("-", false)
			restore.InputReader = bytes.NewReader([]byte("stream"))
			rc, err := restore.getArchiveReader()
			So(err, ShouldBeNil)
			defer rc.Close()
			data, _ := io.ReadAll(rc)
			So(string(data), ShouldEqual, "stream")
		})

		Convey("a file path opens the file", func() {
			dir := t.TempDir()
			file := filepath.Join(dir, "dump.tar")
			So(os.WriteFile(file, []byte("tarball"), 0644), ShouldBeNil)
			rc, err := newRestorer(file, false).getArchiveReader()
			So(err, ShouldBeNil)
			defer rc.Close()
			data, _ := io.ReadAll(rc)
			So(string(data), ShouldEqual, "tarball")
		})

		Convey("a directory path falls back to its default archive file", func() {
			dir := t.TempDir()
			So(os.WriteFile(filepath.Join(dir, "archive"), []byte("inner"), 0644), ShouldBeNil)
			rc, err := newRestorer(dir, false).getArchiveReader()
			So(err, ShouldBeNil)
			defer rc.Close()
			data, _ := io.ReadAll(rc)
			So(string(data), ShouldEqual, "inner")
		})

		Convey("--gzip wraps the stream in a decompressor", func() {
			dir := t.TempDir()
			buf := &bytes.Buffer{}
			gzw := gzip.NewWriter(buf)
			_, err := gzw.Write([]byte("compressed payload"))
			So(err, ShouldBeNil)
			So(gzw.Close(), ShouldBeNil)
			file := filepath.Join(dir, "dump.tar.gz")
			So(os.WriteFile(file, buf.Bytes(), 0644), ShouldBeNil)

			rc, err := newRestorer(file, true).getArchiveReader()
			So(err, ShouldBeNil)
			defer rc.Close()
			data, _ := io.ReadAll(rc)
			So(string(data), ShouldEqual, "compressed payload")
		})

		Convey("a missing path is a configuration error", func() {
			_, err := newRestorer(filepath.Join(t.TempDir(), "nope"), false).getArchiveReader()
			So(IsConfigError(err), ShouldBeTrue)
		})
	})
}
