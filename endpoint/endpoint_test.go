package endpoint

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func noopHandler(c *gin.Context, body map[string]any) error { return nil }

func TestRegisterAndLookup(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	assert.NoError(t, Register("/ping", Methods("GET"), Func(noopHandler)))

	reg, ok := Lookup("GET", "/ping")
	assert.True(t, ok, "expected /ping to be registered")
	assert.Equal(t, KindFunc, reg.Kind)
}

func TestRegisterDuplicateRejected(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	assert.NoError(t, Register("/dup", Methods("POST"), Func(noopHandler)))
	assert.Error(t, Register("/dup", Methods("POST"), Func(noopHandler)), "expected duplicate registration to fail")
}

func TestAllReturnsDistinctRegistrations(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	assert.NoError(t, Register("/a", Methods("GET", "POST"), Func(noopHandler)))
	assert.NoError(t, Register("/b", Methods("GET"), Func(noopHandler)))

	all := All()
	assert.Len(t, all, 2, "expected 2 distinct registrations (one per path, shared across methods)")
}

func TestLookupMissesUnregisteredPath(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	_, ok := Lookup("GET", "/nowhere")
	assert.False(t, ok, "expected unregistered path to miss lookup")
}
