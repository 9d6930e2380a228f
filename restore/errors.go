// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"errors"
	"fmt"
)

// A configError reports an invalid configuration. It is always raised
// before any connection to the target database is made.
type configError struct {
	msg string
}

// Error is part of the error interface. It formats a configError for
// human readability.
func (ce *configError) Error() string {
	return ce.msg
}

// newConfigErrorf creates a configError with a formatted message
func newConfigErrorf(format string, a ...interface{}) error {
	return &configError{msg: fmt.Sprintf(format, a...)}
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	var ce *configError
	return errors.As(err, &ce)
}

// A formatError reports a malformed document or metadata blob found in
// the dump. Decode failures are unrecovered faults: they abort the
// session rather than being skipped, unlike per-document database
// errors which are logged and swallowed.
type formatError struct {
	Path string
	Err  error
}

// Error is part of the error interface.
func (fe *formatError) Error() string {
	return fmt.Sprintf("malformed dump entry %v: %v", fe.Path, fe.Err)
}

func (fe *formatError) Unwrap() error {
	return fe.Err
}

// IsFormatError reports whether err arose from decoding a dump blob.
func IsFormatError(err error) bool {
	var fe *formatError
	return errors.As(err, &fe)
}
