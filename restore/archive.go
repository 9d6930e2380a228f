// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spmiller/mongodb-restore/common/log"
	"github.com/spmiller/mongodb-restore/common/util"
)

// ArchiveSource reads a dump from a tar byte-stream carrying the same
// directory-tree image a filesystem dump has. Entry ordering inside the
// archive is trusted as-is; unlike the filesystem source it does not
// independently announce directories before files.
type ArchiveSource struct {
	in  io.Reader
	log *log.ToolLogger
}

func NewArchiveSource(in io.Reader, logger *log.ToolLogger) *ArchiveSource {
	return &ArchiveSource{in: in, log: logger}
}

// Run forwards directory and file entries to the consumer in archive
// order. Unrecognized entry types (links, devices, ...) are silently
// discarded. tar.Reader skips any unconsumed portion of an entry's
// body when the next entry is requested, so a consumer that never
// reads a blob costs nothing.
func (as *ArchiveSource) Run(consumer EntryConsumer) error {
	tr := tar.NewReader(as.in)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("corruption found in archive: %v", err)
		}

		name := path.Clean(hdr.Name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if !strings.Contains(name, "/") {
				// the database root directory is not a collection
				as.log.Logvf(log.DebugLow, "dump of database %v", name)
				continue
			}
			err = consumer.DirectoryEntry(name)
		case tar.TypeReg:
			if strings.Count(name, "/") < 2 {
				// a file at the database level is not a document
				as.log.Logvf(log.DebugHigh, "skipping stray file %v at the database level", name)
				continue
			}
			err = consumer.FileEntry(name, tr)
		default:
			as.log.Logvf(log.DebugHigh, "discarding archive entry %v of type %v", name, hdr.Typeflag)
			continue
		}
		if err != nil {
			return err
		}
	}
	return consumer.End()
}

// getArchiveReader opens the byte stream named by --archive: "-" for
// the session's input reader (stdin by default), an s3:// object, a
// file, or a directory holding the default "archive" file.
func (restore *MongoRestore) getArchiveReader() (rc io.ReadCloser, err error) {
	archivePath := restore.InputOptions.Archive
	switch {
	case archivePath == "-":
		rc = io.NopCloser(restore.InputReader)
	case strings.HasPrefix(archivePath, "s3://"):
		rc, err = openS3Object(context.Background(), archivePath)
		if err != nil {
			return nil, err
		}
	default:
		targetStat, err := os.Stat(archivePath)
		if err != nil {
			return nil, newConfigErrorf("archive '%v' invalid: %v", archivePath, err)
		}
		if targetStat.IsDir() {
			defaultArchiveFilePath := filepath.Join(archivePath, "archive")
			if restore.InputOptions.Gzip {
				defaultArchiveFilePath = defaultArchiveFilePath + ".gz"
			}
			rc, err = os.Open(defaultArchiveFilePath)
			if err != nil {
				return nil, newConfigErrorf("archive '%v' invalid: %v", defaultArchiveFilePath, err)
			}
		} else {
			rc, err = os.Open(archivePath)
			if err != nil {
				return nil, newConfigErrorf("archive '%v' invalid: %v", archivePath, err)
			}
		}
	}
	if restore.InputOptions.Gzip {
		gzrc, err := gzip.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("error reading compressed archive: %v", err)
		}
		return &util.WrappedReadCloser{ReadCloser: gzrc, Inner: rc}, nil
	}
	return rc, nil
}
