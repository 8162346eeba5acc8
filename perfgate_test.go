package perfgate_test

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfgate/perfgate"
	"github.com/perfgate/perfgate/alert"
	"github.com/perfgate/perfgate/config"
	"github.com/perfgate/perfgate/internal/testutil"
)

func TestNew_EndToEnd(t *testing.T) {
	ctx := context.Background()
	outputDir := t.TempDir()

	t.Setenv("WPM_THRESHOLD_SECONDS", "1.0")
	t.Setenv("WPM_LOCAL_OUTPUT_DIR", outputDir)

	cfg, err := config.Parse(config.WithoutDotEnv())
	require.NoError(t, err)

	monitor, err := perfgate.New(ctx, cfg, testutil.CreateTestLogger(t))
	require.NoError(t, err)
	defer monitor.Close()

	measured := alert.Metrics{
		Endpoint:       "/checkout",
		URL:            "/checkout?cart=42",
		Params:         map[string]any{"cart": "42"},
		ElapsedSeconds: 1.7,
		Timestamp:      time.Now(),
		Method:         "POST",
		StatusCode:     200,
	}

	record, state := monitor.Evaluate(ctx, measured, []byte("<html>report</html>"))
	require.Equal(t, alert.StateRecorded, state)
	require.NotNil(t, record)
	assert.True(t, record.Deliveries["local_file"].Success)

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "performance_alert__checkout_"))

	// Identical second evaluation lands inside the dedup window.
	record, state = monitor.Evaluate(ctx, measured, []byte("<html>report</html>"))
	assert.Equal(t, alert.StateDeduped, state)
	assert.Nil(t, record)
}

func TestNew_RedisBackend(t *testing.T) {
	ctx := context.Background()
	_, redisConfig := testutil.CreateTestRedisConfig(t)

	t.Setenv("WPM_ENABLE_LOCAL_FILE", "false")

	cfg, err := config.Parse(config.WithoutDotEnv())
	require.NoError(t, err)
	cfg.DedupBackend = config.DedupBackendRedis
	cfg.Redis = *redisConfig
	require.NoError(t, cfg.Validate())

	monitor, err := perfgate.New(ctx, cfg, testutil.CreateTestLogger(t))
	require.NoError(t, err)
	defer monitor.Close()

	measured := alert.Metrics{Endpoint: "/slow", ElapsedSeconds: 2.0, Timestamp: time.Now()}

	_, state := monitor.Evaluate(ctx, measured, nil)
	assert.Equal(t, alert.StateRecorded, state)

	_, state = monitor.Evaluate(ctx, measured, nil)
	assert.Equal(t, alert.StateDeduped, state)
}

func TestNew_InvalidNotifierConfig(t *testing.T) {
	cfg, err := config.Parse(config.WithoutDotEnv())
	require.NoError(t, err)
	cfg.EnableLocalFile = false
	cfg.EnableMattermost = false

	monitor, err := perfgate.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer monitor.Close()

	// No channels configured: alerts still evaluate, dispatch is a no-op.
	record, state := monitor.Evaluate(context.Background(), alert.Metrics{
		Endpoint:       "/x",
		ElapsedSeconds: 5,
	}, nil)
	assert.Equal(t, alert.StateRecorded, state)
	assert.Empty(t, record.Deliveries)
}
