package authn

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/forbearing/jvspatial/query"
	"github.com/forbearing/jvspatial/storage"
)

// APIKey is an issued key record; only HashedKey is ever persisted —
// the plaintext secret is returned once, at creation time, per
// spec.md §6's "one-time secret response".
type APIKey struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Name       string     `json:"name"`
	HashedKey  string     `json:"hashed_key"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// NewAPIKey generates a random secret and its persisted record,
// returning the plaintext alongside so the caller can hand it back to
// the client exactly once.
func NewAPIKey(userID, name string) (plaintext string, rec *APIKey, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", nil, err
	}
	plaintext = hex.EncodeToString(buf)
	rec = &APIKey{
		ID:        newID(),
		UserID:    userID,
		Name:      name,
		HashedKey: HashAPIKey(plaintext),
		CreatedAt: time.Now(),
	}
	return plaintext, rec, nil
}

// HashAPIKey derives the stored lookup hash for plaintext. SHA-256 is
// used (not bcrypt) because API keys are high-entropy random secrets,
// not low-entropy passwords, and need a hash that supports fast
// equality lookup by value rather than per-candidate comparison.
func HashAPIKey(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func SaveAPIKey(ctx context.Context, a storage.Adapter, rec *APIKey) error {
	_, err := a.Save(ctx, APIKeyCollection, toDoc(rec))
	return err
}

func GetAPIKeyByHash(ctx context.Context, a storage.Adapter, hashedKey string) (*APIKey, error) {
	q, err := query.Parse(map[string]any{"hashed_key": hashedKey})
	if err != nil {
		return nil, err
	}
	doc, err := a.FindOne(ctx, APIKeyCollection, q)
	if err != nil || doc == nil {
		return nil, err
	}
	rec := new(APIKey)
	if err := fromDoc(doc, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func ListAPIKeys(ctx context.Context, a storage.Adapter, userID string) ([]*APIKey, error) {
	q, err := query.Parse(map[string]any{"user_id": userID})
	if err != nil {
		return nil, err
	}
	docs, err := a.Find(ctx, APIKeyCollection, q, storage.FindOptions{})
	if err != nil {
		return nil, err
	}
	out := make([]*APIKey, 0, len(docs))
	for _, doc := range docs {
		rec := new(APIKey)
		if err := fromDoc(doc, rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func DeleteAPIKey(ctx context.Context, a storage.Adapter, id string) (bool, error) {
	return a.Delete(ctx, APIKeyCollection, id)
}

func TouchAPIKey(ctx context.Context, a storage.Adapter, rec *APIKey) error {
	now := time.Now()
	rec.LastUsedAt = &now
	return SaveAPIKey(ctx, a, rec)
}
