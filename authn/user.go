// Package authn implements the user/API-key identity store the
// endpoint dispatcher's authentication pipeline resolves credentials
// against. Unlike the entity package's Node/Edge documents, user and
// api_key records are not graph entities (no structural/context split,
// no edges) per spec.md §7's "user, api_key, session... each document
// carries id", so they're modeled as plain JSON-codec documents over
// the same storage.Adapter, grounded on the ancestor project's
// model.Base-backed user records generalized off GORM onto the
// backend-neutral adapter.
package authn

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/forbearing/jvspatial/query"
	"github.com/forbearing/jvspatial/storage"
)

const (
	UserCollection    = "user"
	APIKeyCollection  = "api_key"
	SessionCollection = "session"
)

// AdminRole has implicit access to every permission check, per
// spec.md §4.F's "admin role has *".
const AdminRole = "admin"

// User is a registered account; PasswordHash is never serialized back
// out to a handler response.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"password_hash"`
	Roles        []string  `json:"roles,omitempty"`
	Permissions  []string  `json:"permissions,omitempty"`
	Disabled     bool      `json:"disabled,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasRole reports whether u carries role or the admin wildcard.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role || r == AdminRole {
			return true
		}
	}
	return false
}

// HasPermission reports whether u carries permission or the admin
// wildcard "*".
func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission || p == "*" {
			return true
		}
	}
	for _, r := range u.Roles {
		if r == AdminRole {
			return true
		}
	}
	return false
}

// SetPassword hashes and stores plaintext via bcrypt.
func (u *User) SetPassword(plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether plaintext matches the stored hash.
func (u *User) CheckPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plaintext)) == nil
}

// CreateUser persists a new user, stamping the admin role onto the
// very first account registered, per spec.md §4.F's bootstrap rule.
func CreateUser(ctx context.Context, a storage.Adapter, u *User) error {
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now

	n, err := a.Count(ctx, UserCollection, nil)
	if err != nil {
		return err
	}
	if n == 0 {
		if !containsStr(u.Roles, AdminRole) {
			u.Roles = append(u.Roles, AdminRole)
		}
	}
	if u.ID == "" {
		u.ID = newID()
	}
	_, err = a.Save(ctx, UserCollection, toDoc(u))
	return err
}

func GetUser(ctx context.Context, a storage.Adapter, id string) (*User, error) {
	doc, err := a.Get(ctx, UserCollection, id)
	if err != nil || doc == nil {
		return nil, err
	}
	u := new(User)
	if err := fromDoc(doc, u); err != nil {
		return nil, err
	}
	return u, nil
}

func GetUserByUsername(ctx context.Context, a storage.Adapter, username string) (*User, error) {
	q, err := query.Parse(map[string]any{"username": username})
	if err != nil {
		return nil, err
	}
	doc, err := a.FindOne(ctx, UserCollection, q)
	if err != nil || doc == nil {
		return nil, err
	}
	u := new(User)
	if err := fromDoc(doc, u); err != nil {
		return nil, err
	}
	return u, nil
}

func SaveUser(ctx context.Context, a storage.Adapter, u *User) error {
	u.UpdatedAt = time.Now()
	_, err := a.Save(ctx, UserCollection, toDoc(u))
	return err
}

func ListUsers(ctx context.Context, a storage.Adapter, opts storage.FindOptions) ([]*User, error) {
	docs, err := a.Find(ctx, UserCollection, nil, opts)
	if err != nil {
		return nil, err
	}
	out := make([]*User, 0, len(docs))
	for _, doc := range docs {
		u := new(User)
		if err := fromDoc(doc, u); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func DeleteUser(ctx context.Context, a storage.Adapter, id string) (bool, error) {
	return a.Delete(ctx, UserCollection, id)
}

func containsStr(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}
