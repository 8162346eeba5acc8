package testutil

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap/zaptest"

	"github.com/perfgate/perfgate/logging"
	internalredis "github.com/perfgate/perfgate/redis"
)

func CreateTestRedisConfig(t *testing.T) (*miniredis.Miniredis, *internalredis.RedisConfig) {
	mr := miniredis.RunT(t)

	t.Cleanup(func() {
		mr.Close()
	})

	port, _ := strconv.Atoi(mr.Port())
	return mr, &internalredis.RedisConfig{
		Host: mr.Host(),
		Port: port,
	}
}

func CreateTestRedisClient(t *testing.T) (*miniredis.Miniredis, internalredis.Client) {
	mr, config := CreateTestRedisConfig(t)
	client, err := internalredis.NewClient(context.Background(), config)
	if err != nil {
		t.Fatalf("failed to create test redis client: %s", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return mr, client
}

func CreateTestLogger(t *testing.T) *logging.Logger {
	return &logging.Logger{Logger: otelzap.New(zaptest.NewLogger(t))}
}
