// Package mongostore is the native backend: it forwards the query
// dialect to MongoDB unchanged via query.ToBSON rather than scanning
// and evaluating in-process, per spec.md §4.A's "if yes, the adapter
// forwards the query unchanged."
package mongostore

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/forbearing/jvspatial/query"
	"github.com/forbearing/jvspatial/storage"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func init() {
	storage.Register("mongodb", func(cfg any) (storage.Adapter, error) {
		c, _ := cfg.(Config)
		return Open(context.Background(), c)
	})
}

type Config struct {
	URI      string
	Database string
}

type Backend struct {
	client *mongo.Client
	db     *mongo.Database
}

func Open(ctx context.Context, cfg Config) (*Backend, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "failed to ping mongodb")
	}
	return &Backend{client: client, db: client.Database(cfg.Database)}, nil
}

func (b *Backend) Native() bool { return true }
func (b *Backend) Close() error { return b.client.Disconnect(context.Background()) }

func (b *Backend) col(name string) *mongo.Collection { return b.db.Collection(name) }

func filterFor(q query.Expr) bson.M {
	if q == nil {
		return bson.M{}
	}
	return query.ToBSON(q)
}

func (b *Backend) Save(ctx context.Context, collection string, doc query.Doc) (query.Doc, error) {
	id, _ := doc["id"].(string)
	if id == "" {
		id = newID()
		doc["id"] = id
	}
	_, err := b.col(collection).ReplaceOne(ctx, bson.M{"id": id}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return nil, errors.Wrap(err, "failed to save document")
	}
	return doc, nil
}

func (b *Backend) Get(ctx context.Context, collection, id string) (query.Doc, error) {
	var doc query.Doc
	err := b.col(collection).FindOne(ctx, bson.M{"id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get document")
	}
	return doc, nil
}

func (b *Backend) Delete(ctx context.Context, collection, id string) (bool, error) {
	res, err := b.col(collection).DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, errors.Wrap(err, "failed to delete document")
	}
	return res.DeletedCount > 0, nil
}

func (b *Backend) Find(ctx context.Context, collection string, q query.Expr, opts storage.FindOptions) ([]query.Doc, error) {
	findOpts := options.Find()
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}
	if len(opts.Sort) > 0 {
		sortDoc := bson.D{}
		for _, s := range opts.Sort {
			sortDoc = append(sortDoc, bson.E{Key: s.Name, Value: s.Direction})
		}
		findOpts.SetSort(sortDoc)
	}
	cur, err := b.col(collection).Find(ctx, filterFor(q), findOpts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find documents")
	}
	defer cur.Close(ctx)
	var out []query.Doc
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode documents")
	}
	return out, nil
}

func (b *Backend) FindOne(ctx context.Context, collection string, q query.Expr) (query.Doc, error) {
	var doc query.Doc
	err := b.col(collection).FindOne(ctx, filterFor(q)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find document")
	}
	return doc, nil
}

func (b *Backend) Count(ctx context.Context, collection string, q query.Expr) (int64, error) {
	n, err := b.col(collection).CountDocuments(ctx, filterFor(q))
	return n, errors.Wrap(err, "failed to count documents")
}

func (b *Backend) Distinct(ctx context.Context, collection, field string, q query.Expr) ([]any, error) {
	res, err := b.col(collection).Distinct(ctx, field, filterFor(q))
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute distinct values")
	}
	return res, nil
}

func toMongoUpdate(u storage.Update) bson.M {
	out := bson.M{}
	if len(u.Set) > 0 {
		out["$set"] = bson.M(u.Set)
	}
	if len(u.Unset) > 0 {
		unset := bson.M{}
		for _, f := range u.Unset {
			unset[f] = ""
		}
		out["$unset"] = unset
	}
	if len(u.Inc) > 0 {
		out["$inc"] = bson.M(u.Inc)
	}
	if len(u.Mul) > 0 {
		out["$mul"] = bson.M(u.Mul)
	}
	if len(u.Push) > 0 {
		out["$push"] = bson.M(u.Push)
	}
	if len(u.Pull) > 0 {
		out["$pull"] = bson.M(u.Pull)
	}
	return out
}

func (b *Backend) UpdateOne(ctx context.Context, collection string, q query.Expr, update storage.Update, upsert bool) error {
	_, err := b.col(collection).UpdateOne(ctx, filterFor(q), toMongoUpdate(update), options.UpdateOne().SetUpsert(upsert))
	return errors.Wrap(err, "failed to update document")
}

func (b *Backend) UpdateMany(ctx context.Context, collection string, q query.Expr, update storage.Update, upsert bool) (int64, error) {
	res, err := b.col(collection).UpdateMany(ctx, filterFor(q), toMongoUpdate(update), options.UpdateMany().SetUpsert(upsert))
	if err != nil {
		return 0, errors.Wrap(err, "failed to update documents")
	}
	return res.ModifiedCount + res.UpsertedCount, nil
}

func (b *Backend) DeleteOne(ctx context.Context, collection string, q query.Expr) (bool, error) {
	res, err := b.col(collection).DeleteOne(ctx, filterFor(q))
	if err != nil {
		return false, errors.Wrap(err, "failed to delete document")
	}
	return res.DeletedCount > 0, nil
}

func (b *Backend) DeleteMany(ctx context.Context, collection string, q query.Expr) (int64, error) {
	res, err := b.col(collection).DeleteMany(ctx, filterFor(q))
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete documents")
	}
	return res.DeletedCount, nil
}

func (b *Backend) CreateIndex(ctx context.Context, collection string, spec storage.IndexSpec) error {
	keys := bson.D{}
	for _, f := range spec.Fields {
		keys = append(keys, bson.E{Key: f.Name, Value: f.Direction})
	}
	_, err := b.col(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(spec.Unique),
	})
	return errors.Wrap(err, "failed to create index")
}

func (b *Backend) Clean(ctx context.Context, edgeCollection, nodeCollection string) (int64, error) {
	cur, err := b.col(edgeCollection).Find(ctx, bson.M{})
	if err != nil {
		return 0, errors.Wrap(err, "failed to scan edges")
	}
	defer cur.Close(ctx)
	var edges []query.Doc
	if err := cur.All(ctx, &edges); err != nil {
		return 0, errors.Wrap(err, "failed to decode edges")
	}
	var n int64
	for _, e := range edges {
		src, _ := e["source"].(string)
		dst, _ := e["target"].(string)
		srcCount, _ := b.col(nodeCollection).CountDocuments(ctx, bson.M{"id": src})
		dstCount, _ := b.col(nodeCollection).CountDocuments(ctx, bson.M{"id": dst})
		if srcCount == 0 || dstCount == 0 {
			if _, err := b.col(edgeCollection).DeleteOne(ctx, bson.M{"id": e["id"]}); err == nil {
				n++
			}
		}
	}
	return n, nil
}

func newID() string {
	return bson.NewObjectID().Hex()
}
