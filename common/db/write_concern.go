// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package db

import (
	"encoding/json"
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// write concern fields
const (
	j         = "j"
	w         = "w"
	majString = "majority"
)

// NewMongoWriteConcern takes a string (from the command line writeConcern
// option) and returns a WriteConcern. An empty string constructs the
// default 'majority' write concern.
func NewMongoWriteConcern(writeConcern string) (*writeconcern.WriteConcern, error) {
	// Default case
	if writeConcern == "" {
		return writeconcern.Majority(), nil
	}

	// Try to unmarshal as JSON document
	jsonWriteConcern := map[string]interface{}{}
	err := json.Unmarshal([]byte(writeConcern), &jsonWriteConcern)
	if err == nil {
		return parseJSONWriteConcern(jsonWriteConcern)
	}

	// If JSON parsing fails, try to parse it as a plain string instead.  This
	// allows a default to the old behavior wherein the entire argument passed
	// in is assigned to the 'w' field - thus allowing users to pass a write
	// concern that looks like: "majority", 0, "4", etc.
	return parseModeString(writeConcern)
}

// parseJSONWriteConcern converts a JSON map representing a write concern
// object into a WriteConcern
func parseJSONWriteConcern(jsonWriteConcern map[string]interface{}) (*writeconcern.WriteConcern, error) {
	wc := &writeconcern.WriteConcern{}

	// Construct new options from 'w', if it exists; otherwise default to 'majority'
	if wVal, ok := jsonWriteConcern[w]; ok {
		switch wValue := wVal.(type) {
		case float64:
			if wValue < 0 {
				return nil, fmt.Errorf("invalid '%v' argument: %v", w, wValue)
			}
			wc.W = int(wValue)
		case string:
			wc.W = wValue
		default:
			return nil, fmt.Errorf("invalid '%v' argument: %v", w, wVal)
		}
	} else {
		wc.W = majString
	}

	if jVal, ok := jsonWriteConcern[j]; ok {
		jBool, isBool := jVal.(bool)
		if !isBool {
			return nil, fmt.Errorf("invalid '%v' argument: %v", j, jVal)
		}
		wc.Journal = &jBool
	}

	return wc, nil
}

// parseModeString converts a plain mode string ("majority", "0", "4",
// a tag set name) into a WriteConcern
func parseModeString(writeConcern string) (*writeconcern.WriteConcern, error) {
	if n, err := strconv.Atoi(writeConcern); err == nil {
		if n < 0 {
			return nil, fmt.Errorf("invalid '%v' argument: %v", w, n)
		}
		return &writeconcern.WriteConcern{W: n}, nil
	}
	if writeConcern == majString {
		return writeconcern.Majority(), nil
	}
	return &writeconcern.WriteConcern{W: writeConcern}, nil
}
