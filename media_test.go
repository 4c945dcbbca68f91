package linkrecover

import (
	"testing"

	pion "github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-linkrecover/config"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
)

func TestMediaLink_Monitor(t *testing.T) {
	link, err := NewMediaLink(pion.Configuration{})
	require.NoError(t, err)
	defer link.Close()

	e := newEngine(t, WithConfig(quietNetwork(config.NewConfig())), WithPreset(PresetMedia))
	require.NoError(t, e.Monitor(link))

	assert.Equal(t, interfaces.LinkConnecting, e.Snapshot().LinkState)
	assert.False(t, e.IsHealthy())

	// 未连通时拒绝手动恢复
	assert.ErrorIs(t, e.TriggerRecovery(), ErrNotConnected)
}

func TestWrapPeerConnection(t *testing.T) {
	pc, err := pion.NewPeerConnection(pion.Configuration{})
	require.NoError(t, err)

	link := WrapPeerConnection(pc)
	defer link.Close()

	assert.Same(t, pc, link.Raw())
	assert.Equal(t, interfaces.LinkConnecting, link.State())
}
