package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/splinter-platform/splinter/internal/errs"
)

// TrieStateStore is the alternate per-service Merkle trie state backend
// (§6 "Persisted state layout" extended, resolving Open-Question-adjacent
// territory: the distilled spec names "file-backed or SQL-backed"; this
// platform additionally offers a Mongo-backed option; model.PersistenceMongo
// names it as a circuit persistence type, but no code selects a backend
// from that field or constructs a TrieStateStore). Only node storage is exposed here — the
// trie algorithm itself is out of scope (distilled spec Non-goal).
//
// Grounded on the teacher's MongoDB type (storage/mongo.go): same
// connect/ping/collection-per-namespace shape, generalized from one
// YCSB collection per shard to one collection per circuit, and from
// `panic`-on-error to returned *errs.Error values.
type TrieStateStore struct {
	client *mongo.Client
}

// trieNode is one (circuit, node hash) → encoded node entry.
type trieNode struct {
	ID    string `bson:"_id"`
	Value []byte `bson:"value"`
}

// NewTrieStateStore connects to uri and verifies the connection.
func NewTrieStateStore(ctx context.Context, uri string) (*TrieStateStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "connect to mongo", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, errs.Wrap(errs.KindInternal, "ping mongo", err)
	}
	return &TrieStateStore{client: client}, nil
}

func (t *TrieStateStore) collection(circuitID string) *mongo.Collection {
	return t.client.Database(fmt.Sprintf("splinter_%s", circuitID)).Collection("trie_nodes")
}

// PutNode stores the encoded trie node under hash for circuitID.
func (t *TrieStateStore) PutNode(ctx context.Context, circuitID, hash string, value []byte) error {
	_, err := t.collection(circuitID).UpdateByID(ctx, hash,
		bson.M{"$set": bson.M{"value": value}}, options.Update().SetUpsert(true))
	if err != nil {
		return errs.Wrap(errs.KindInternal, "upsert trie node", err)
	}
	return nil
}

// GetNode fetches the encoded trie node for hash, reporting
// KindConstraintNotFound if it is absent.
func (t *TrieStateStore) GetNode(ctx context.Context, circuitID, hash string) ([]byte, error) {
	var doc trieNode
	err := t.collection(circuitID).FindOne(ctx, bson.M{"_id": hash}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errs.Newf(errs.KindConstraintNotFound, "trie node %q not found in circuit %q", hash, circuitID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.KindInternal, "find trie node", err)
	}
	return doc.Value, nil
}

// Close disconnects the client.
func (t *TrieStateStore) Close(ctx context.Context) error {
	return t.client.Disconnect(ctx)
}
