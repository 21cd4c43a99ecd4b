package probe

import (
	"net/http"
	"testing"

	"github.com/SafeMPC/flow-wallet-kit/internal/api"
	"github.com/SafeMPC/flow-wallet-kit/internal/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLiveness(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, _ *test.Upstreams) {
		require.NoError(t, runLiveness(t.Context(), s, true))

		_, ok, err := s.Store.Get(t.Context(), livenessProbeKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRunReadiness(t *testing.T) {
	test.WithTestServer(t, func(s *api.Server, up *test.Upstreams) {
		require.NoError(t, runReadiness(t.Context(), s, true))

		up.Access.Server.Close()
		assert.Error(t, runReadiness(t.Context(), s, false))
	})
}

func TestProbeEndpointAnyStatus(t *testing.T) {
	srv := test.NewStaticServer(t, http.StatusInternalServerError, `{}`)
	assert.NoError(t, probeEndpoint(t.Context(), "testnet", "indexer", srv.URL, false))
	assert.Error(t, probeEndpoint(t.Context(), "testnet", "indexer", "::invalid", false))
}
