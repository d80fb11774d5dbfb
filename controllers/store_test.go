package controllers

import (
	"context"
	"errors"
	"testing"

	"github.com/oumarfall/qrcodebackend/database"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// fakeCollection implements database.Collection with per-call function
// fields, in the style of the fake repositories used elsewhere for service
// tests. Unset methods behave like an empty collection.
type fakeCollection struct {
	countFn            func(filter interface{}) (int64, error)
	findOneFn          func(filter interface{}) *mongo.SingleResult
	findOneAndUpdateFn func(filter, update interface{}) *mongo.SingleResult
	findFn             func(filter interface{}) (*mongo.Cursor, error)
	insertOneFn        func(document interface{}) (*mongo.InsertOneResult, error)
	updateOneFn        func(filter, update interface{}) (*mongo.UpdateResult, error)
	updateByIDFn       func(id, update interface{}) (*mongo.UpdateResult, error)
	deleteOneFn        func(filter interface{}) (*mongo.DeleteResult, error)
}

// noDocument mimics a lookup miss.
func noDocument() *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func document(doc interface{}) *mongo.SingleResult {
	return mongo.NewSingleResultFromDocument(doc, nil, nil)
}

func (f *fakeCollection) FindOne(_ context.Context, filter interface{}, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	if f.findOneFn == nil {
		return noDocument()
	}
	return f.findOneFn(filter)
}

func (f *fakeCollection) FindOneAndUpdate(_ context.Context, filter interface{}, update interface{}, _ ...options.Lister[options.FindOneAndUpdateOptions]) *mongo.SingleResult {
	if f.findOneAndUpdateFn == nil {
		return noDocument()
	}
	return f.findOneAndUpdateFn(filter, update)
}

func (f *fakeCollection) Find(_ context.Context, filter interface{}, _ ...options.Lister[options.FindOptions]) (*mongo.Cursor, error) {
	if f.findFn == nil {
		return nil, errors.New("find not faked")
	}
	return f.findFn(filter)
}

func (f *fakeCollection) InsertOne(_ context.Context, document interface{}, _ ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error) {
	if f.insertOneFn == nil {
		return &mongo.InsertOneResult{}, nil
	}
	return f.insertOneFn(document)
}

func (f *fakeCollection) UpdateOne(_ context.Context, filter interface{}, update interface{}, _ ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	if f.updateOneFn == nil {
		return &mongo.UpdateResult{}, nil
	}
	return f.updateOneFn(filter, update)
}

func (f *fakeCollection) UpdateByID(_ context.Context, id interface{}, update interface{}, _ ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error) {
	if f.updateByIDFn == nil {
		return &mongo.UpdateResult{MatchedCount: 1}, nil
	}
	return f.updateByIDFn(id, update)
}

func (f *fakeCollection) DeleteOne(_ context.Context, filter interface{}, _ ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error) {
	if f.deleteOneFn == nil {
		return &mongo.DeleteResult{}, nil
	}
	return f.deleteOneFn(filter)
}

func (f *fakeCollection) CountDocuments(_ context.Context, filter interface{}, _ ...options.Lister[options.CountOptions]) (int64, error) {
	if f.countFn == nil {
		return 0, nil
	}
	return f.countFn(filter)
}

// useFakeCollections swaps the store accessor for the test's lifetime.
// Tests using it mutate package state, so they must not run in parallel.
func useFakeCollections(t *testing.T, cols map[string]database.Collection) {
	t.Helper()
	orig := database.OpenCollection
	database.OpenCollection = func(name string) database.Collection {
		if c, ok := cols[name]; ok {
			return c
		}
		return &fakeCollection{}
	}
	t.Cleanup(func() { database.OpenCollection = orig })
}
