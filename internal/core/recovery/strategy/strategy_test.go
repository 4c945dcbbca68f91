package strategy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-linkrecover/pkg/interfaces"
	"github.com/dep2p/go-linkrecover/tests/mocks"
)

// ============================================================================
//                              New
// ============================================================================

func TestNew_ByName(t *testing.T) {
	for _, name := range Names() {
		s, err := New(name, nil)
		require.NoError(t, err)
		assert.Equal(t, string(name), s.Name())
		assert.True(t, name.Valid())
	}

	_, err := New("telepathy", nil)
	assert.ErrorIs(t, err, ErrUnknownStrategy)
	assert.False(t, Name("telepathy").Valid())
}

// ============================================================================
//                              ice-restart
// ============================================================================

func TestICERestart_Success(t *testing.T) {
	conn := mocks.NewMockConnection(interfaces.LinkConnected)

	err := ICERestart{}.Recover(context.Background(), conn)
	require.NoError(t, err)

	assert.EqualValues(t, 1, conn.RestartICECalls.Load())
	assert.EqualValues(t, 1, conn.CreateOfferCalls.Load())
	assert.EqualValues(t, 1, conn.SetLocalDescriptionCalls.Load())
	assert.True(t, conn.LastOfferRestartFlag.Load(), "offer 必须携带 ICE 重启标记")
}

func TestICERestart_StepFailures(t *testing.T) {
	t.Run("restart", func(t *testing.T) {
		conn := mocks.NewMockConnection(interfaces.LinkFailed)
		conn.RestartICEFunc = func() error { return errors.New("closed") }

		err := ICERestart{}.Recover(context.Background(), conn)
		assert.EqualError(t, err, "closed")
		assert.Zero(t, conn.CreateOfferCalls.Load())
	})

	t.Run("offer", func(t *testing.T) {
		conn := mocks.NewMockConnection(interfaces.LinkFailed)
		conn.CreateOfferFunc = func(context.Context, bool) (interfaces.SessionDescription, error) {
			return interfaces.SessionDescription{}, errors.New("no transceivers")
		}

		err := ICERestart{}.Recover(context.Background(), conn)
		assert.EqualError(t, err, "no transceivers")
		assert.Zero(t, conn.SetLocalDescriptionCalls.Load())
	})

	t.Run("local description", func(t *testing.T) {
		conn := mocks.NewMockConnection(interfaces.LinkFailed)
		conn.SetLocalDescriptionFunc = func(context.Context, interfaces.SessionDescription) error {
			return errors.New("invalid state")
		}

		err := ICERestart{}.Recover(context.Background(), conn)
		assert.EqualError(t, err, "invalid state")
	})
}

func TestICERestart_Unsupported(t *testing.T) {
	conn, _ := mocks.NewPlainConnection(interfaces.LinkConnected)
	assert.ErrorIs(t, ICERestart{}.Recover(context.Background(), conn), ErrICERestartUnsupported)
	assert.ErrorIs(t, ICERestart{}.Recover(context.Background(), nil), ErrNoConnection)
}

// ============================================================================
//                              reconnect / none
// ============================================================================

func TestReconnect(t *testing.T) {
	ctx := context.Background()

	s := &Reconnect{}
	err := s.Recover(ctx, nil)
	require.ErrorIs(t, err, ErrNoReconnectHandler)
	assert.Equal(t, "No reconnect handler configured", err.Error())

	calls := 0
	s.Handler = func(context.Context) (bool, error) {
		calls++
		return true, nil
	}
	require.NoError(t, s.Recover(ctx, nil))
	assert.Equal(t, 1, calls)

	s.Handler = func(context.Context) (bool, error) { return false, nil }
	assert.ErrorIs(t, s.Recover(ctx, nil), ErrReconnectRejected)

	boom := errors.New("register timeout")
	s.Handler = func(context.Context) (bool, error) { return false, boom }
	assert.ErrorIs(t, s.Recover(ctx, nil), boom)
}

func TestNone(t *testing.T) {
	assert.ErrorIs(t, None{}.Recover(context.Background(), nil), ErrRecoveryDisabled)
}
