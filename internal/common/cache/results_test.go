package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "procurement-ai/internal/common/errors"
)

func TestKey(t *testing.T) {
	a := Key("parse-rfp", []byte(`{"rawInput":"chairs"}`))
	b := Key("parse-rfp", []byte(`{"rawInput":"chairs"}`))
	c := Key("parse-rfp", []byte(`{"rawInput":"desks"}`))
	d := Key("parse-proposal", []byte(`{"rawInput":"chairs"}`))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.True(t, strings.HasPrefix(a, "transform:result:parse-rfp:"))
	assert.Len(t, strings.TrimPrefix(a, "transform:result:parse-rfp:"), 64)
}

func TestResultCache_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewResultCache(client)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte(`{"a":1}`), time.Minute))
	val, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(val))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResultCache_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewResultCache(client)
	ctx := context.Background()

	mock.ExpectGet("k").SetErr(errors.New("connection reset"))
	_, ok, err := c.Get(ctx, "k")
	assert.False(t, ok)
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeCacheFailed, stdErr.Code)

	mock.ExpectSet("k", []byte("v"), time.Second).SetErr(errors.New("OOM"))
	err = c.Set(ctx, "k", []byte("v"), time.Second)
	require.ErrorAs(t, err, &stdErr)
	assert.Contains(t, stdErr.Details, "op: set")

	assert.NoError(t, mock.ExpectationsWereMet())
}
