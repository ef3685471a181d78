package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMongoPing_NilReceiver(t *testing.T) {
	t.Parallel()

	var m *Mongo
	assert.Error(t, m.Ping(context.Background()))
	assert.Error(t, (&Mongo{}).Ping(context.Background()))
}

func TestRedisPing_NilReceiver(t *testing.T) {
	t.Parallel()

	var r *Redis
	assert.Error(t, r.Ping(context.Background()))
	assert.Error(t, (&Redis{}).Ping(context.Background()))
}
