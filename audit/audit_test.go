package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forbearing/jvspatial/config"
	"github.com/forbearing/jvspatial/storage/memstore"
)

func TestRecordDisabledIsNoop(t *testing.T) {
	a := memstore.New()
	Init(&config.Audit{Enable: false}, a)

	err := Record(context.Background(), &Entry{Category: "auth", Message: "login"})
	assert.NoError(t, err)

	n, err := a.Count(context.Background(), Collection, nil)
	assert.NoError(t, err)
	assert.Zero(t, n, "expected no entries written while disabled")
}

func TestRecordSyncAndList(t *testing.T) {
	a := memstore.New()
	Init(&config.Audit{Enable: true, AsyncWrite: false}, a)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []*Entry{
		{Category: "auth", Message: "login", AgentID: "u1", CreatedAt: base},
		{Category: "auth", Message: "logout", AgentID: "u1", CreatedAt: base.Add(time.Hour)},
		{Category: "webhook", Message: "dispatch", AgentID: "u2", CreatedAt: base.Add(2 * time.Hour)},
	}
	for _, e := range entries {
		assert.NoError(t, Record(context.Background(), e))
	}

	got, total, err := List(context.Background(), a, "auth", "", time.Time{}, time.Time{}, 1, 10)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, got, 2)
	assert.Equal(t, "logout", got[0].Message, "expected newest-first order")

	got, total, err = List(context.Background(), a, "", "u2", time.Time{}, time.Time{}, 1, 10)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, total)
	if assert.Len(t, got, 1) {
		assert.Equal(t, "webhook", got[0].Category)
	}
}

func TestRecordAsyncDrains(t *testing.T) {
	a := memstore.New()
	Init(&config.Audit{Enable: true, AsyncWrite: true, BatchSize: 4}, a)

	assert.NoError(t, Record(context.Background(), &Entry{Category: "auth", Message: "login", CreatedAt: time.Now()}))

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		n, _ := a.Count(context.Background(), Collection, nil)
		if n == 1 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("expected async-written entry to appear in storage within 1s")
}
