package chatsheet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Parallel()

	cause := errors.New("no such table: x")
	err := fmt.Errorf("wrapped: %w", &Error{Kind: KindExecution, Op: "query", Err: cause})

	assert.ErrorIs(t, err, ErrExecution)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrTransport)
	assert.Equal(t, KindExecution, KindOf(err))
	assert.Equal(t, Kind(0), KindOf(cause))
	assert.Equal(t, "wrapped: chatsheet: query failed (execution error): no such table: x", err.Error())

	assert.Equal(t, "chatsheet: render error: boom", (&Error{Kind: KindRender, Err: errors.New("boom")}).Error())
}

func TestErrorContext(t *testing.T) {
	t.Parallel()

	err := NewErrorContext("load", "/data/items.csv").
		WithTable("items").
		WithDetails("read").
		Error(ErrEmptyData)

	assert.ErrorIs(t, err, ErrEmptyData)
	assert.Equal(t,
		"chatsheet: load failed, file: /data/items.csv, table: items, details: read: chatsheet: empty data source",
		err.Error())

	assert.EqualError(t, NewErrorContext("open", "").Error(nil), "chatsheet: open failed")
}
