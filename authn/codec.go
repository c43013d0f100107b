package authn

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/forbearing/jvspatial/query"
)

// toDoc/fromDoc round-trip a plain struct through its json tags into
// query.Doc, the same wire shape storage.Adapter persists everywhere
// else, without the entity package's structural/context split (auth
// records aren't graph entities).
func toDoc(v any) query.Doc {
	b, _ := json.Marshal(v)
	var doc query.Doc
	_ = json.Unmarshal(b, &doc)
	return doc
}

func fromDoc(doc query.Doc, out any) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func newID() string { return uuid.NewString() }
