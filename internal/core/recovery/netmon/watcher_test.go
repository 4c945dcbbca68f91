package netmon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInterfaces 可变的接口列表
type fakeInterfaces struct {
	mu     sync.Mutex
	ifaces []InterfaceInfo
}

func (f *fakeInterfaces) set(ifaces ...InterfaceInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ifaces = ifaces
}

func (f *fakeInterfaces) list() ([]InterfaceInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]InterfaceInfo(nil), f.ifaces...), nil
}

func recvEvents(t *testing.T, ch <-chan NetworkEvent) []NetworkEvent {
	t.Helper()
	var out []NetworkEvent
	select {
	case ev := <-ch:
		out = append(out, ev)
	case <-time.After(time.Second):
		t.Fatal("no network event")
	}
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		case <-time.After(20 * time.Millisecond):
			return out
		}
	}
}

func types(evs []NetworkEvent) []NetworkEventType {
	out := make([]NetworkEventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

func TestPollingWatcher_OnlineOffline(t *testing.T) {
	mock := clock.NewMock()
	fake := &fakeInterfaces{}
	wlan := InterfaceInfo{Name: "wlan0", Type: TypeWiFi, Up: true, Addresses: []string{"192.168.1.5/24"}}

	w := NewPollingWatcher(&WatcherConfig{
		PollInterval: time.Second,
		Clock:        mock,
		Lister:       fake.list,
	})
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()
	assert.True(t, w.IsRunning())

	fake.set(wlan)
	mock.Add(time.Second)
	evs := recvEvents(t, w.Events())
	assert.Equal(t, []NetworkEventType{EventInterfaceUp, EventAddressAdded, EventOnline}, types(evs))

	down := wlan
	down.Up = false
	fake.set(down)
	mock.Add(time.Second)
	evs = recvEvents(t, w.Events())
	assert.Equal(t, []NetworkEventType{EventInterfaceDown, EventOffline}, types(evs))
}

func TestPollingWatcher_TypeChanged(t *testing.T) {
	mock := clock.NewMock()
	fake := &fakeInterfaces{}
	fake.set(InterfaceInfo{Name: "wlan0", Type: TypeWiFi, Up: true, Addresses: []string{"192.168.1.5/24"}})

	w := NewPollingWatcher(&WatcherConfig{PollInterval: time.Second, Clock: mock, Lister: fake.list})
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	fake.set(InterfaceInfo{Name: "rmnet0", Type: TypeCellular, Up: true, Addresses: []string{"10.64.0.2/32"}})
	mock.Add(time.Second)

	evs := recvEvents(t, w.Events())
	last := evs[len(evs)-1]
	assert.Equal(t, EventTypeChanged, last.Type)
	assert.Equal(t, TypeCellular, last.ConnectionType)
	assert.Equal(t, "rmnet0", last.Interface)
}

func TestPollingWatcher_NoChangeNoEvent(t *testing.T) {
	mock := clock.NewMock()
	fake := &fakeInterfaces{}
	fake.set(InterfaceInfo{Name: "eth0", Type: TypeEthernet, Up: true, Addresses: []string{"10.0.0.2/24"}})

	w := NewPollingWatcher(&WatcherConfig{PollInterval: time.Second, Clock: mock, Lister: fake.list})
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	mock.Add(3 * time.Second)
	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %s", ev.Type)
	case <-time.After(30 * time.Millisecond):
	}
}

func TestPollingWatcher_StopIdempotent(t *testing.T) {
	w := NewPollingWatcher(&WatcherConfig{Clock: clock.NewMock(), Lister: (&fakeInterfaces{}).list})
	require.NoError(t, w.Start(context.Background()))
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
}

func TestNewSystemWatcher_Disabled(t *testing.T) {
	w := NewSystemWatcher(&WatcherConfig{Enabled: false})
	_, ok := w.(*NoOpWatcher)
	assert.True(t, ok)
	assert.False(t, w.IsRunning())
}

func TestNetworkEventType_String(t *testing.T) {
	assert.Equal(t, "online", EventOnline.String())
	assert.Equal(t, "offline", EventOffline.String())
	assert.Equal(t, "type_changed", EventTypeChanged.String())
	assert.Equal(t, "unknown", NetworkEventType(99).String())
}
