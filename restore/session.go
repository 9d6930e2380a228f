// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package restore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/spmiller/mongodb-restore/common/db"
)

// databaseSession implements WriterSession and DropSession against the
// target database over the shared session provider.
type databaseSession struct {
	provider *db.SessionProvider
	database string
}

func newDatabaseSession(provider *db.SessionProvider, database string) *databaseSession {
	return &databaseSession{provider: provider, database: database}
}

// CreateCollection creates the named collection with the create
// command.
func (ds *databaseSession) CreateCollection(name string) error {
	session, err := ds.provider.GetSession()
	if err != nil {
		return fmt.Errorf("error establishing connection: %v", err)
	}

	command := bson.D{{Key: "create", Value: name}}
	singleRes := ds.db(session).RunCommand(context.Background(), command)
	if err := singleRes.Err(); err != nil {
		return fmt.Errorf("error running create command: %v", err)
	}
	return nil
}

// InsertMany performs one unordered batched insert and returns the
// number of documents the server accepted; a partial write reports
// both a count and an error.
func (ds *databaseSession) InsertMany(collection string, docs []bson.D) (int, error) {
	session, err := ds.provider.GetSession()
	if err != nil {
		return 0, fmt.Errorf("error establishing connection: %v", err)
	}

	asInterface := make([]interface{}, len(docs))
	for i, doc := range docs {
		asInterface[i] = doc
	}

	insertOpts := mopt.InsertMany().SetOrdered(false)
	result, err := ds.db(session).Collection(collection).
		InsertMany(context.Background(), asInterface, insertOpts)
	if result == nil {
		return 0, err
	}
	return len(result.InsertedIDs), err
}

// CreateIndexes attempts to create the given indexes with one
// createIndexes command.
func (ds *databaseSession) CreateIndexes(collection string, indexes []IndexDocument) error {
	// remove the index version, forcing the server default
	for _, index := range indexes {
		delete(index.Options, "v")
	}

	session, err := ds.provider.GetSession()
	if err != nil {
		return fmt.Errorf("error establishing connection: %v", err)
	}

	rawCommand := bson.D{
		{Key: "createIndexes", Value: collection},
		{Key: "indexes", Value: indexes},
	}
	err = ds.db(session).RunCommand(context.Background(), rawCommand).Err()
	if err != nil {
		return fmt.Errorf("createIndex error: %v", err)
	}
	return nil
}

// DropDatabase drops the entire target database.
func (ds *databaseSession) DropDatabase() error {
	session, err := ds.provider.GetSession()
	if err != nil {
		return fmt.Errorf("error establishing connection: %v", err)
	}
	return ds.db(session).Drop(context.Background())
}

// ListCollectionNames returns the names of the target database's
// current collections.
func (ds *databaseSession) ListCollectionNames() ([]string, error) {
	session, err := ds.provider.GetSession()
	if err != nil {
		return nil, fmt.Errorf("error establishing connection: %v", err)
	}
	return ds.db(session).ListCollectionNames(context.Background(), bson.D{})
}

// DropCollection drops the named collection.
func (ds *databaseSession) DropCollection(name string) error {
	session, err := ds.provider.GetSession()
	if err != nil {
		return fmt.Errorf("error establishing connection: %v", err)
	}
	err = ds.db(session).Collection(name).Drop(context.Background())
	if err != nil {
		return fmt.Errorf("error dropping collection: %v", err)
	}
	return nil
}

func (ds *databaseSession) db(session *mongo.Client) *mongo.Database {
	return session.Database(ds.database)
}
