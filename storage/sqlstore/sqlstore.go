// Package sqlstore is a GORM-backed storage backend storing every
// document as a JSON blob in one shared table (jvspatial_documents)
// keyed by (collection, id), pushing a query.Expr down as a JSON-path
// WHERE clause when query.ToSQL can translate all of it and falling back to
// query.Eval for the rest, per spec.md §4.A's backend split. Grounded
// on the ancestor project's database/postgres and database/sqlite
// connection setup (package-level *gorm.DB, cfg-driven Init/New).
package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/forbearing/jvspatial/query"
	"github.com/forbearing/jvspatial/storage"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func init() {
	storage.Register("sqlite", func(cfg any) (storage.Adapter, error) {
		c, _ := cfg.(Config)
		return Open(c)
	})
	storage.Register("postgres", func(cfg any) (storage.Adapter, error) {
		c, _ := cfg.(Config)
		c.Dialect = query.DialectPostgres
		return Open(c)
	})
}

// Config selects the GORM driver and connection string. Dialect also
// controls which query.ToSQL accessor syntax is emitted.
type Config struct {
	Dialect string // query.DialectSQLite | query.DialectPostgres
	DSN     string
}

// record is the physical row: one JSON document per (collection, id).
type record struct {
	Collection string `gorm:"primaryKey;index:idx_coll_id"`
	ID         string `gorm:"primaryKey;index:idx_coll_id"`
	Doc        string `gorm:"type:text"`
}

func (record) TableName() string { return "jvspatial_documents" }

type Backend struct {
	db      *gorm.DB
	dialect string
}

func Open(cfg Config) (*Backend, error) {
	var dialector gorm.Dialector
	switch cfg.Dialect {
	case query.DialectPostgres:
		dialector = postgres.Open(cfg.DSN)
	default:
		cfg.Dialect = query.DialectSQLite
		dsn := cfg.DSN
		if dsn == "" {
			dsn = "file::memory:?cache=shared"
		}
		dialector = sqlite.Open(dsn)
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlstore")
	}
	if err := db.AutoMigrate(&record{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate sqlstore schema")
	}
	return &Backend{db: db, dialect: cfg.Dialect}, nil
}

// DB exposes the underlying *gorm.DB so callers outside this package
// (the casbin RBAC adapter, in particular) can share the same
// connection pool instead of opening a second one.
func (b *Backend) DB() *gorm.DB { return b.db }

func (b *Backend) Native() bool { return false }
func (b *Backend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (b *Backend) Save(ctx context.Context, collection string, doc query.Doc) (query.Doc, error) {
	id, _ := doc["id"].(string)
	if id == "" {
		id = uuid.NewString()
		doc["id"] = id
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal document")
	}
	row := record{Collection: collection, ID: id, Doc: string(raw)}
	if err := b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"doc"}),
	}).Create(&row).Error; err != nil {
		return nil, errors.Wrap(err, "failed to save document")
	}
	return doc, nil
}

func (b *Backend) Get(ctx context.Context, collection, id string) (query.Doc, error) {
	var row record
	err := b.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get document")
	}
	return decode(row.Doc)
}

func (b *Backend) Delete(ctx context.Context, collection, id string) (bool, error) {
	res := b.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).Delete(&record{})
	return res.RowsAffected > 0, res.Error
}

// scan loads every row in collection, applying a SQL pushdown prefix
// when query.ToSQL can translate q, then always re-checks the full
// expression with query.Eval so partially-pushable queries (an $and
// containing one non-pushable clause) stay correct.
func (b *Backend) scan(ctx context.Context, collection string, q query.Expr) ([]query.Doc, error) {
	tx := b.db.WithContext(ctx).Model(&record{}).Where("collection = ?", collection)
	if q != nil {
		if clauseStr, args, ok := query.ToSQL(q, b.dialect); ok && clauseStr != "" {
			tx = tx.Where(clauseStr, args...)
		}
	}
	var rows []record
	if err := tx.Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to scan documents")
	}
	out := make([]query.Doc, 0, len(rows))
	for _, row := range rows {
		doc, err := decode(row.Doc)
		if err != nil {
			return nil, err
		}
		if q == nil || query.Eval(q, doc) {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (b *Backend) Find(ctx context.Context, collection string, q query.Expr, opts storage.FindOptions) ([]query.Doc, error) {
	docs, err := b.scan(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	sortDocs(docs, opts.Sort)
	if opts.Offset > 0 {
		if opts.Offset >= len(docs) {
			return nil, nil
		}
		docs = docs[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(docs) {
		docs = docs[:opts.Limit]
	}
	return docs, nil
}

func (b *Backend) FindOne(ctx context.Context, collection string, q query.Expr) (query.Doc, error) {
	docs, err := b.Find(ctx, collection, q, storage.FindOptions{Limit: 1})
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

func (b *Backend) Count(ctx context.Context, collection string, q query.Expr) (int64, error) {
	if q == nil {
		var n int64
		err := b.db.WithContext(ctx).Model(&record{}).Where("collection = ?", collection).Count(&n).Error
		return n, err
	}
	docs, err := b.scan(ctx, collection, q)
	return int64(len(docs)), err
}

func (b *Backend) Distinct(ctx context.Context, collection, field string, q query.Expr) ([]any, error) {
	docs, err := b.scan(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	seen := map[any]bool{}
	var out []any
	for _, doc := range docs {
		v, ok := doc[field]
		if !ok || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out, nil
}

func (b *Backend) UpdateOne(ctx context.Context, collection string, q query.Expr, update storage.Update, upsert bool) error {
	docs, err := b.scan(ctx, collection, q)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		if upsert {
			_, err := b.Save(ctx, collection, storage.Apply(query.Doc{}, update))
			return err
		}
		return nil
	}
	unlock := storage.Lock(collection, idOf(docs[0]))
	defer unlock()
	_, err = b.Save(ctx, collection, storage.Apply(docs[0], update))
	return err
}

func (b *Backend) UpdateMany(ctx context.Context, collection string, q query.Expr, update storage.Update, upsert bool) (int64, error) {
	docs, err := b.scan(ctx, collection, q)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 && upsert {
		_, err := b.Save(ctx, collection, storage.Apply(query.Doc{}, update))
		return 1, err
	}
	for _, doc := range docs {
		unlock := storage.Lock(collection, idOf(doc))
		_, err := b.Save(ctx, collection, storage.Apply(doc, update))
		unlock()
		if err != nil {
			return 0, err
		}
	}
	return int64(len(docs)), nil
}

func (b *Backend) DeleteOne(ctx context.Context, collection string, q query.Expr) (bool, error) {
	docs, err := b.scan(ctx, collection, q)
	if err != nil || len(docs) == 0 {
		return false, err
	}
	return b.Delete(ctx, collection, idOf(docs[0]))
}

func (b *Backend) DeleteMany(ctx context.Context, collection string, q query.Expr) (int64, error) {
	docs, err := b.scan(ctx, collection, q)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, doc := range docs {
		ok, err := b.Delete(ctx, collection, idOf(doc))
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

func (b *Backend) CreateIndex(ctx context.Context, collection string, spec storage.IndexSpec) error {
	names := make([]string, len(spec.Fields))
	for i, f := range spec.Fields {
		names[i] = f.Name
	}
	idxName := fmt.Sprintf("idx_%s_%s", collection, strings.Join(names, "_"))
	unique := ""
	if spec.Unique {
		unique = "UNIQUE "
	}
	exprs := make([]string, len(spec.Fields))
	for i, f := range spec.Fields {
		exprs[i] = jsonAccessor(b.dialect, f.Name)
	}
	stmt := fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON jvspatial_documents ((%s)) WHERE collection = '%s'",
		unique, idxName, strings.Join(exprs, ", "), collection)
	return b.db.WithContext(ctx).Exec(stmt).Error
}

func (b *Backend) Clean(ctx context.Context, edgeCollection, nodeCollection string) (int64, error) {
	edges, err := b.scan(ctx, edgeCollection, nil)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, e := range edges {
		src, _ := e["source"].(string)
		dst, _ := e["target"].(string)
		srcDoc, _ := b.Get(ctx, nodeCollection, src)
		dstDoc, _ := b.Get(ctx, nodeCollection, dst)
		if srcDoc == nil || dstDoc == nil {
			if _, err := b.Delete(ctx, edgeCollection, idOf(e)); err == nil {
				n++
			}
		}
	}
	return n, nil
}

func decode(raw string) (query.Doc, error) {
	var doc query.Doc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal document")
	}
	return doc, nil
}

func idOf(doc query.Doc) string {
	id, _ := doc["id"].(string)
	return id
}

func jsonAccessor(dialect, path string) string {
	if dialect == query.DialectPostgres {
		return fmt.Sprintf("doc #>> '{%s}'", strings.ReplaceAll(path, ".", ","))
	}
	return fmt.Sprintf("json_extract(doc, '$.%s')", path)
}

func sortDocs(docs []query.Doc, sortSpec []storage.IndexField) {
	if len(sortSpec) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, s := range sortSpec {
			vi := fmt.Sprint(docs[i][s.Name])
			vj := fmt.Sprint(docs[j][s.Name])
			if vi == vj {
				continue
			}
			if s.Direction < 0 {
				return vi > vj
			}
			return vi < vj
		}
		return false
	})
}
