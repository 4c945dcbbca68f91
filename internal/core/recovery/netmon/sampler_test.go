package netmon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
)

func TestEffectiveTypeFor(t *testing.T) {
	tests := []struct {
		rtt  time.Duration
		want string
	}{
		{0, Effective4G},
		{50 * time.Millisecond, Effective4G},
		{269 * time.Millisecond, Effective4G},
		{270 * time.Millisecond, Effective3G},
		{1399 * time.Millisecond, Effective3G},
		{1400 * time.Millisecond, Effective2G},
		{2 * time.Second, EffectiveSlow2G},
		{10 * time.Second, EffectiveSlow2G},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EffectiveTypeFor(tt.rtt), "rtt=%s", tt.rtt)
	}
}

func TestClassifyInterface(t *testing.T) {
	assert.Equal(t, TypeWiFi, ClassifyInterface("wlan0"))
	assert.Equal(t, TypeWiFi, ClassifyInterface("wlp3s0"))
	assert.Equal(t, TypeWiFi, ClassifyInterface("en0"))
	assert.Equal(t, TypeEthernet, ClassifyInterface("eth0"))
	assert.Equal(t, TypeEthernet, ClassifyInterface("enp0s31f6"))
	assert.Equal(t, TypeCellular, ClassifyInterface("rmnet_data0"))
	assert.Equal(t, TypeCellular, ClassifyInterface("pdp_ip0"))
	assert.Equal(t, TypeUnknown, ClassifyInterface("tun0"))
}

func staticLister(ifaces ...InterfaceInfo) func() ([]InterfaceInfo, error) {
	return func() ([]InterfaceInfo, error) { return ifaces, nil }
}

func TestHostSampler_PrefersEthernet(t *testing.T) {
	s := &HostSampler{
		Lister: staticLister(
			InterfaceInfo{Name: "lo", Loopback: true, Up: true, Addresses: []string{"127.0.0.1/8"}},
			InterfaceInfo{Name: "wlan0", Type: TypeWiFi, Up: true, Addresses: []string{"192.168.1.5/24"}},
			InterfaceInfo{Name: "eth0", Type: TypeEthernet, Up: true, Addresses: []string{"10.0.0.5/24"}},
		),
		Prober: ProberFunc(func(context.Context) (time.Duration, error) { return 300 * time.Millisecond, nil }),
		Clock:  clock.NewMock(),
	}

	info := s.Sample(context.Background(), NetworkEvent{Type: EventNetworkChanged})
	assert.True(t, info.IsOnline)
	assert.Equal(t, TypeEthernet, info.ConnectionType)
	assert.Equal(t, "eth0", info.Interface)
	assert.Equal(t, 300*time.Millisecond, info.RoundTrip)
	assert.Equal(t, Effective3G, info.EffectiveType)
	assert.InDelta(t, 0.7, info.DownlinkMbps, 0.001)
}

func TestHostSampler_Offline(t *testing.T) {
	probed := false
	s := &HostSampler{
		Lister: staticLister(
			InterfaceInfo{Name: "wlan0", Type: TypeWiFi, Up: false, Addresses: []string{"192.168.1.5/24"}},
		),
		Prober: ProberFunc(func(context.Context) (time.Duration, error) { probed = true; return 0, nil }),
		Clock:  clock.NewMock(),
	}

	info := s.Sample(context.Background(), NetworkEvent{})
	assert.False(t, info.IsOnline)
	assert.Equal(t, TypeNone, info.ConnectionType)
	assert.False(t, probed)
}

func TestHostSampler_ProbeErrorIgnored(t *testing.T) {
	s := &HostSampler{
		Lister: staticLister(InterfaceInfo{Name: "wlan0", Type: TypeWiFi, Up: true, Addresses: []string{"a"}}),
		Prober: ProberFunc(func(context.Context) (time.Duration, error) { return 0, errors.New("timeout") }),
		Clock:  clock.NewMock(),
	}

	info := s.Sample(context.Background(), NetworkEvent{Type: EventTypeChanged, ConnectionType: TypeCellular})
	assert.True(t, info.IsOnline)
	assert.Equal(t, TypeCellular, info.ConnectionType)
	assert.Equal(t, Effective4G, info.EffectiveType)
}
