package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-linkrecover/internal/core/transport/sipws"
	"github.com/dep2p/go-linkrecover/pkg/interfaces"
)

// newRegistrarServer 对每个 REGISTER 回复 status 的测试服务端
func newRegistrarServer(t *testing.T, status *atomic.Int32) (string, *atomic.Int32) {
	t.Helper()
	var registers atomic.Int32
	upgrader := websocket.Upgrader{Subprotocols: []string{sipws.Subprotocol}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			raw := string(data)
			if !strings.HasPrefix(raw, "REGISTER ") {
				continue
			}
			registers.Add(1)
			req, _ := sipws.ParseResponse([]byte("SIP/2.0 100 X" + raw[strings.Index(raw, "\r\n"):]))
			resp := fmt.Sprintf("SIP/2.0 %d R\r\nVia: %s\r\nCall-ID: %s\r\nCSeq: %s\r\n\r\n",
				status.Load(), req.Headers["via"], req.Headers["call-id"], req.Headers["cseq"])
			_ = conn.WriteMessage(websocket.TextMessage, []byte(resp))
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), &registers
}

func testConfig(url string) Config {
	cfg := NewConfig()
	cfg.URL = url
	cfg.Server = "sip:example.com"
	cfg.AOR = "sip:alice@example.com"
	cfg.RegisterTimeout = 2 * time.Second
	cfg.RedialInterval = 0
	return cfg
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, 600, cfg.RegisterExpires)
	assert.Equal(t, 10*time.Second, cfg.RegisterTimeout)
	assert.Equal(t, 2*time.Second, cfg.RedialInterval)
	assert.Equal(t, 10*time.Second, cfg.DialTimeout)

	t.Log("✅ NewConfig 返回正确的默认值")
}

func TestNewSignaling_RequiresURL(t *testing.T) {
	_, err := NewSignaling(NewConfig(), nil)
	assert.ErrorIs(t, err, ErrNoSignaling)
}

func TestNewSignaling_RequiresAOR(t *testing.T) {
	cfg := NewConfig()
	cfg.URL = "ws://127.0.0.1:1/ws"
	_, err := NewSignaling(cfg, nil)
	assert.Error(t, err)
}

func TestSignaling_StartRegisters(t *testing.T) {
	var status atomic.Int32
	status.Store(200)
	url, registers := newRegistrarServer(t, &status)

	sig, err := NewSignaling(testConfig(url), nil)
	require.NoError(t, err)
	defer sig.Close()

	require.NoError(t, sig.Start(context.Background()))
	assert.Equal(t, interfaces.LinkConnected, sig.Connection().State())
	assert.EqualValues(t, 1, registers.Load())

	t.Log("✅ Start 连接并完成首次注册")
}

func TestSignaling_ReregisterRedialsWhenDown(t *testing.T) {
	var status atomic.Int32
	status.Store(200)
	url, registers := newRegistrarServer(t, &status)

	sig, err := NewSignaling(testConfig(url), nil)
	require.NoError(t, err)
	defer sig.Close()

	// 未连接时 Reregister 先拨号
	ok, err := sig.Reregister(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, sig.Transport().State().IsHealthy())
	assert.EqualValues(t, 1, registers.Load())

	t.Log("✅ Reregister 在传输断开时先重拨")
}

func TestSignaling_ReregisterRejected(t *testing.T) {
	var status atomic.Int32
	status.Store(403)
	url, _ := newRegistrarServer(t, &status)

	sig, err := NewSignaling(testConfig(url), nil)
	require.NoError(t, err)
	defer sig.Close()

	ok, err := sig.Reregister(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, sipws.ErrRegistrationRejected)
}

func TestSignaling_ReregisterAfterClose(t *testing.T) {
	var status atomic.Int32
	status.Store(200)
	url, _ := newRegistrarServer(t, &status)

	sig, err := NewSignaling(testConfig(url), nil)
	require.NoError(t, err)
	require.NoError(t, sig.Close())
	require.NoError(t, sig.Close())

	ok, err := sig.Reregister(context.Background())
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrSignalingClosed)
	assert.Equal(t, interfaces.LinkClosed, sig.Transport().State())
}

func TestModule_ProvidesSignalingAndHandler(t *testing.T) {
	var status atomic.Int32
	status.Store(200)
	url, registers := newRegistrarServer(t, &status)
	cfg := testConfig(url)

	var sig *Signaling
	var handler interfaces.ReconnectHandler

	app := fxtest.New(t,
		fx.Supply(&cfg),
		Module(),
		fx.Populate(&sig, &handler),
	)
	app.RequireStart()

	require.NotNil(t, sig)
	require.NotNil(t, handler)
	assert.EqualValues(t, 1, registers.Load())

	ok, err := handler(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 2, registers.Load())

	app.RequireStop()
	assert.Equal(t, interfaces.LinkClosed, sig.Connection().State())

	t.Log("✅ Module 提供 Signaling 与 ReconnectHandler")
}

func TestModule_StartSurvivesUnreachableServer(t *testing.T) {
	cfg := testConfig("ws://127.0.0.1:1/ws")
	cfg.DialTimeout = 200 * time.Millisecond

	var sig *Signaling
	app := fxtest.New(t,
		fx.Supply(&cfg),
		Module(),
		fx.Populate(&sig),
	)
	app.RequireStart()
	assert.Equal(t, interfaces.LinkDisconnected, sig.Connection().State())
	app.RequireStop()
}

func TestModule_RequiresConfig(t *testing.T) {
	app := fx.New(
		fx.NopLogger,
		Module(),
		fx.Invoke(func(*Signaling) {}),
	)
	assert.ErrorIs(t, app.Err(), ErrNoSignaling)
}
