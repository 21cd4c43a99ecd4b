package command_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/test"
	"github.com/SafeMPC/flow-wallet-kit/internal/util/command"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithServer(t *testing.T) {
	cfg, _ := test.NewTestConfig(t)
	cfg.Storage.Backend = "badger"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "walletkit")
	cfg.Logger.PrettyPrintConsole = false

	var testError = errors.New("test error")

	resultErr := command.WithServer(t.Context(), cfg, func(ctx context.Context, s *api.Server) error {
		require.NoError(t, s.Store.Set(ctx, "probe", []byte("ok")))

		value, ok, err := s.Store.Get(ctx, "probe")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("ok"), value)

		return testError
	})

	assert.Equal(t, testError, resultErr)
}

func TestWithServerInvalidConfig(t *testing.T) {
	cfg, _ := test.NewTestConfig(t)
	cfg.Storage.Backend = "floppy"

	called := false
	err := command.WithServer(t.Context(), cfg, func(context.Context, *api.Server) error {
		called = true
		return nil
	})

	assert.Error(t, err)
	assert.False(t, called)
}

func TestNewSubcommandGroup(t *testing.T) {
	child := &cobra.Command{Use: "child", Run: func(*cobra.Command, []string) {}}
	group := command.NewSubcommandGroup("group", child)

	assert.Equal(t, "group <subcommand>", group.Use)
	require.Len(t, group.Commands(), 1)
	assert.Equal(t, "child", group.Commands()[0].Name())
}
