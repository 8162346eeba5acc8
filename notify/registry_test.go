package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfgate/perfgate/notify"
)

func TestRegistry_Build(t *testing.T) {
	t.Parallel()
	registry := notify.NewRegistry()

	t.Run("builds local file notifier", func(t *testing.T) {
		t.Parallel()
		n, err := registry.Build(notify.ChannelConfig{
			Type:      "local_file",
			LocalFile: &notify.LocalFileConfig{OutputDir: t.TempDir()},
		})
		require.NoError(t, err)
		assert.Equal(t, "local_file", n.Name())
	})

	t.Run("builds mattermost notifier", func(t *testing.T) {
		t.Parallel()
		n, err := registry.Build(notify.ChannelConfig{
			Type: "mattermost",
			Mattermost: &notify.MattermostConfig{
				ServerURL: "https://chat.example.com",
				Token:     "token",
				ChannelID: "channel",
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "mattermost", n.Name())
	})

	t.Run("rejects unknown channel type", func(t *testing.T) {
		t.Parallel()
		_, err := registry.Build(notify.ChannelConfig{Type: "pager"})
		assert.ErrorContains(t, err, "invalid notifier type")
	})

	t.Run("rejects missing channel settings", func(t *testing.T) {
		t.Parallel()
		_, err := registry.Build(notify.ChannelConfig{Type: "local_file"})
		assert.Error(t, err)
	})

	t.Run("supports custom channel types", func(t *testing.T) {
		t.Parallel()
		registry := notify.NewRegistry()
		registry.Register("stub", func(notify.ChannelConfig) (notify.Notifier, error) {
			return succeeding("stub"), nil
		})

		n, err := registry.Build(notify.ChannelConfig{Type: "stub"})
		require.NoError(t, err)
		assert.NoError(t, n.Deliver(context.Background(), testAlert(), nil))
	})
}

func TestRegistry_BuildAll(t *testing.T) {
	t.Parallel()
	registry := notify.NewRegistry()

	notifiers, err := registry.BuildAll([]notify.ChannelConfig{
		{Type: "local_file", LocalFile: &notify.LocalFileConfig{OutputDir: t.TempDir()}},
		{Type: "mattermost", Mattermost: &notify.MattermostConfig{
			ServerURL: "https://chat.example.com",
			Token:     "token",
			ChannelID: "channel",
		}},
	})
	require.NoError(t, err)
	require.Len(t, notifiers, 2)

	_, err = registry.BuildAll([]notify.ChannelConfig{{Type: "pager"}})
	assert.Error(t, err)
}
