package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forbearing/jvspatial/storage/memstore"
)

func TestVerifySignature(t *testing.T) {
	secret := []byte("shh")
	body := []byte(`{"event":"ping"}`)

	assert.False(t, VerifySignature(secret, body, ""))

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	good := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, VerifySignature(secret, body, good))
	assert.False(t, VerifySignature(secret, body, good+"a"))
}

func TestIdempotencyStoreAndLookup(t *testing.T) {
	a := memstore.New()
	idem := NewIdempotency(a)
	ctx := context.Background()

	cr, err := idem.Lookup(ctx, "ep1", "key1")
	assert.NoError(t, err)
	assert.Nil(t, cr)

	assert.NoError(t, idem.Store(ctx, "ep1", "key1", 200, []byte(`{"ok":true}`), time.Minute))

	cr, err = idem.Lookup(ctx, "ep1", "key1")
	assert.NoError(t, err)
	if assert.NotNil(t, cr) {
		assert.Equal(t, 200, cr.Status)
		assert.Equal(t, []byte(`{"ok":true}`), cr.Body)
	}
}

func TestIdempotencyLookupExpired(t *testing.T) {
	a := memstore.New()
	idem := NewIdempotency(a)
	ctx := context.Background()

	assert.NoError(t, idem.Store(ctx, "ep1", "key1", 200, []byte(`{}`), -time.Second))

	cr, err := idem.Lookup(ctx, "ep1", "key1")
	assert.NoError(t, err)
	assert.Nil(t, cr, "expected expired entry to be treated as a miss")
}

func TestIdempotencySweepRemovesExpiredOnly(t *testing.T) {
	a := memstore.New()
	idem := NewIdempotency(a)
	ctx := context.Background()

	assert.NoError(t, idem.Store(ctx, "ep1", "expired", 200, []byte(`{}`), -time.Minute))
	assert.NoError(t, idem.Store(ctx, "ep1", "live", 200, []byte(`{}`), time.Hour))

	n, err := idem.Sweep(ctx)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, n)

	doc, err := a.Get(ctx, IdempotencyCollection, idempotencyID("ep1", "live"))
	assert.NoError(t, err)
	assert.NotNil(t, doc)
}

func TestDispatcherSubmitRunsFunc(t *testing.T) {
	d, err := NewDispatcher(2)
	assert.NoError(t, err)
	defer d.Release()

	done := make(chan struct{})
	var errFnCalled bool
	assert.NoError(t, d.Submit(func() error {
		close(done)
		return nil
	}, func(error) { errFnCalled = true }))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected submitted func to run")
	}
	assert.False(t, errFnCalled)
}
