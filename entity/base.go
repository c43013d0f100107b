package entity

import (
	"strings"

	"github.com/google/uuid"
)

// Base carries the id every Node and Edge exposes. Concrete entities
// never embed Base directly; they embed Node or Edge, which embed Base.
type Base struct {
	ID string `json:"id"`
}

func (b *Base) GetID() string   { return b.ID }
func (b *Base) SetID(id string) { b.ID = id }

// NewID formats the <kind>:<ClassName>:<uuid> identifier scheme from
// spec.md §3. kind is "n" or "e".
func NewID(kind, class string) string {
	return kind + ":" + class + ":" + uuid.NewString()
}

// ParseID splits an id of the <kind>:<ClassName>:<uuid> form. ok is
// false if id has fewer than three colon-separated segments; any
// further colons stay in the uuid segment.
func ParseID(id string) (kind, class string, ok bool) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) != 3 {
		return "", "", false
	}
	return parts[0], parts[1], true
}
