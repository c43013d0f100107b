package endpoint

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

type createNodeRequest struct {
	Name   string  `json:"name" validate:"required"`
	Price  float64 `json:"price"`
	Hidden string  `json:"internal_note" endpoint:"endpoint_hidden"`
	Skip   string  `json:"skip" endpoint:"exclude_endpoint"`
}

func TestSynthesizeSchemaSkipsExcluded(t *testing.T) {
	s := synthesizeSchema(reflect.TypeOf(createNodeRequest{}))
	names := map[string]bool{}
	for _, f := range s.Fields {
		names[f.Name] = true
	}
	assert.True(t, names["name"])
	assert.True(t, names["price"])
	assert.False(t, names["skip"], "expected exclude_endpoint field to be dropped")
	assert.True(t, names["internal_note"], "expected endpoint_hidden field to still decode, just unlisted in docs")
}

func TestSchemaDecodeValidates(t *testing.T) {
	s := synthesizeSchema(reflect.TypeOf(createNodeRequest{}))

	_, err := s.Decode(map[string]any{"price": 12.5})
	assert.Error(t, err, "expected validation error for missing required name")

	v, err := s.Decode(map[string]any{"name": "widget", "price": 12.5})
	assert.NoError(t, err)
	got := v.Interface().(*createNodeRequest)
	assert.Equal(t, "widget", got.Name)
	assert.Equal(t, 12.5, got.Price)
}
