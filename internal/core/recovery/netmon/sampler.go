package netmon

import (
	"context"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-linkrecover/pkg/interfaces"
)

// 连接类型
const (
	TypeWiFi     = "wifi"
	TypeEthernet = "ethernet"
	TypeCellular = "cellular"
	TypeUnknown  = "unknown"
	TypeNone     = "none"
)

// 有效类型
const (
	EffectiveSlow2G = "slow-2g"
	Effective2G     = "2g"
	Effective3G     = "3g"
	Effective4G     = "4g"
)

// ============================================================================
//                              接口枚举
// ============================================================================

// InterfaceInfo 网络接口信息
type InterfaceInfo struct {
	Name      string
	Type      string
	Up        bool
	Loopback  bool
	Addresses []string
}

// ListInterfaces 使用 net.Interfaces() 枚举主机接口
func ListInterfaces() ([]InterfaceInfo, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]InterfaceInfo, 0, len(ifaces))
	for _, iface := range ifaces {
		info := InterfaceInfo{
			Name:     iface.Name,
			Type:     ClassifyInterface(iface.Name),
			Up:       iface.Flags&net.FlagUp != 0,
			Loopback: iface.Flags&net.FlagLoopback != 0,
		}
		if addrs, err := iface.Addrs(); err == nil {
			for _, a := range addrs {
				info.Addresses = append(info.Addresses, a.String())
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// ClassifyInterface 按接口名推断连接类型
func ClassifyInterface(name string) string {
	n := strings.ToLower(name)
	switch {
	case strings.HasPrefix(n, "wl"), strings.HasPrefix(n, "wifi"), strings.HasPrefix(n, "ath"),
		n == "en0" || n == "en1":
		// macOS 上 en0/en1 通常是无线网卡
		return TypeWiFi
	case strings.HasPrefix(n, "rmnet"), strings.HasPrefix(n, "wwan"), strings.HasPrefix(n, "pdp_ip"),
		strings.HasPrefix(n, "ccmni"):
		return TypeCellular
	case strings.HasPrefix(n, "eth"), strings.HasPrefix(n, "en"), strings.HasPrefix(n, "em"):
		return TypeEthernet
	default:
		return TypeUnknown
	}
}

// anyUsable 是否存在已启用且有地址的非 loopback 接口
func anyUsable(ifaces map[string]InterfaceInfo) bool {
	for _, info := range ifaces {
		if usable(info) {
			return true
		}
	}
	return false
}

func usable(info InterfaceInfo) bool {
	return info.Up && !info.Loopback && len(info.Addresses) > 0
}

// primary 选择主接口：以太网 > wifi > 蜂窝 > 其他，同类按名称
func primary(ifaces map[string]InterfaceInfo) InterfaceInfo {
	rank := func(t string) int {
		switch t {
		case TypeEthernet:
			return 0
		case TypeWiFi:
			return 1
		case TypeCellular:
			return 2
		default:
			return 3
		}
	}

	var candidates []InterfaceInfo
	for _, info := range ifaces {
		if usable(info) {
			candidates = append(candidates, info)
		}
	}
	if len(candidates) == 0 {
		return InterfaceInfo{Type: TypeNone}
	}
	sort.Slice(candidates, func(i, j int) bool {
		ri, rj := rank(candidates[i].Type), rank(candidates[j].Type)
		if ri != rj {
			return ri < rj
		}
		return candidates[i].Name < candidates[j].Name
	})
	return candidates[0]
}

// ============================================================================
//                              有效类型
// ============================================================================

// EffectiveTypeFor 按往返时延估计有效类型
//
// rtt <= 0 表示未测量，按 4g 处理。
func EffectiveTypeFor(rtt time.Duration) string {
	switch {
	case rtt >= 2000*time.Millisecond:
		return EffectiveSlow2G
	case rtt >= 1400*time.Millisecond:
		return Effective2G
	case rtt >= 270*time.Millisecond:
		return Effective3G
	default:
		return Effective4G
	}
}

// estimatedDownlink 按有效类型给出的下行带宽估计（Mbps）
func estimatedDownlink(effective string) float64 {
	switch effective {
	case EffectiveSlow2G:
		return 0.05
	case Effective2G:
		return 0.25
	case Effective3G:
		return 0.7
	default:
		return 10
	}
}

// ============================================================================
//                              Sampler
// ============================================================================

// Sampler 在事件发生时刷新 NetworkInfo
type Sampler interface {
	Sample(ctx context.Context, ev NetworkEvent) interfaces.NetworkInfo
}

// SamplerFunc 函数适配器
type SamplerFunc func(ctx context.Context, ev NetworkEvent) interfaces.NetworkInfo

// Sample 实现 Sampler
func (f SamplerFunc) Sample(ctx context.Context, ev NetworkEvent) interfaces.NetworkInfo {
	return f(ctx, ev)
}

// HostSampler 基于主机接口和可选 RTT 探测的默认 Sampler
type HostSampler struct {
	Lister func() ([]InterfaceInfo, error)
	Prober Prober
	Clock  clock.Clock
}

// NewHostSampler 创建默认 Sampler，prober 可为 nil
func NewHostSampler(prober Prober, clk clock.Clock) *HostSampler {
	if clk == nil {
		clk = clock.New()
	}
	return &HostSampler{Lister: ListInterfaces, Prober: prober, Clock: clk}
}

// Sample 实现 Sampler
func (s *HostSampler) Sample(ctx context.Context, ev NetworkEvent) interfaces.NetworkInfo {
	lister := s.Lister
	if lister == nil {
		lister = ListInterfaces
	}

	current := make(map[string]InterfaceInfo)
	if list, err := lister(); err == nil {
		for _, iface := range list {
			if !iface.Loopback {
				current[iface.Name] = iface
			}
		}
	}

	p := primary(current)
	info := interfaces.NetworkInfo{
		ConnectionType: p.Type,
		Interface:      p.Name,
		IsOnline:       anyUsable(current),
		ObservedAt:     s.Clock.Now(),
	}
	if ev.Type == EventTypeChanged && ev.ConnectionType != "" {
		info.ConnectionType = ev.ConnectionType
	}

	if info.IsOnline && s.Prober != nil {
		rtt, err := s.Prober.Probe(ctx)
		if err != nil {
			logger.Debug("RTT 探测失败", "error", err)
		} else {
			info.RoundTrip = rtt
		}
	}
	info.EffectiveType = EffectiveTypeFor(info.RoundTrip)
	info.DownlinkMbps = estimatedDownlink(info.EffectiveType)
	return info
}
