package sipws

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrRegistrationRejected 注册服务器返回了非 2xx 的最终响应
var ErrRegistrationRejected = errors.New("registration rejected")

// ErrMalformedMessage 无法解析的 SIP 消息
var ErrMalformedMessage = errors.New("malformed sip message")

// RegistrarConfig 注册配置
type RegistrarConfig struct {
	// Server 注册服务器 URI，如 sip:example.com
	Server string

	// AOR 注册的地址，如 sip:alice@example.com
	AOR string

	// Expires 注册有效期（秒）
	// 默认值: 600
	Expires int

	// Timeout 等待最终响应的超时
	// 默认值: 10s
	Timeout time.Duration
}

// Response 解析后的 SIP 响应
type Response struct {
	StatusCode int
	Reason     string
	Headers    map[string]string
}

// Branch 返回顶层 Via 的 branch 参数
func (r *Response) Branch() string {
	return viaBranch(r.Headers["via"])
}

// ============================================================================
//                              Registrar
// ============================================================================

// Registrar 通过 Transport 发送 REGISTER
//
// Register 的签名与 ReconnectHandler 一致，可作为信令链路恢复后的重新注册回调。
type Registrar struct {
	mu sync.Mutex

	transport *Transport
	config    RegistrarConfig

	callID  string
	fromTag string
	host    string
	cseq    uint32

	pending map[string]chan *Response
	detach  func()
}

// NewRegistrar 创建注册器并订阅传输消息
func NewRegistrar(t *Transport, config RegistrarConfig) (*Registrar, error) {
	if config.Server == "" || config.AOR == "" {
		return nil, errors.New("registrar server and aor are required")
	}
	if config.Expires <= 0 {
		config.Expires = 600
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	r := &Registrar{
		transport: t,
		config:    config,
		callID:    uuid.NewString(),
		fromTag:   shortToken(),
		host:      shortToken() + ".invalid",
		pending:   make(map[string]chan *Response),
	}
	r.detach = t.OnMessage(r.handleMessage)
	return r, nil
}

// Register 发送一次 REGISTER 并等待匹配的最终响应
//
// 2xx 返回 (true, nil)；其他最终响应返回 ErrRegistrationRejected。
func (r *Registrar) Register(ctx context.Context) (bool, error) {
	branch := "z9hG4bK" + shortToken()
	ch := make(chan *Response, 4)

	r.mu.Lock()
	r.cseq++
	msg := r.buildRegister(branch, r.cseq)
	r.pending[branch] = ch
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.pending, branch)
		r.mu.Unlock()
	}()

	if err := r.transport.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("send REGISTER: %w", err)
	}

	timer := r.transport.config.Clock.Timer(r.config.Timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
			return false, fmt.Errorf("REGISTER timed out after %s", r.config.Timeout)
		case resp := <-ch:
			switch {
			case resp.StatusCode < 200:
				continue
			case resp.StatusCode < 300:
				logger.Info("SIP 注册成功", "aor", r.config.AOR, "status", resp.StatusCode)
				return true, nil
			default:
				logger.Warn("SIP 注册被拒绝", "aor", r.config.AOR,
					"status", resp.StatusCode, "reason", resp.Reason)
				return false, fmt.Errorf("%w: %d %s", ErrRegistrationRejected, resp.StatusCode, resp.Reason)
			}
		}
	}
}

// Close 取消消息订阅
func (r *Registrar) Close() {
	r.detach()
}

func (r *Registrar) buildRegister(branch string, cseq uint32) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "REGISTER %s SIP/2.0\r\n", r.config.Server)
	fmt.Fprintf(&b, "Via: SIP/2.0/WSS %s;branch=%s\r\n", r.host, branch)
	b.WriteString("Max-Forwards: 70\r\n")
	fmt.Fprintf(&b, "From: <%s>;tag=%s\r\n", r.config.AOR, r.fromTag)
	fmt.Fprintf(&b, "To: <%s>\r\n", r.config.AOR)
	fmt.Fprintf(&b, "Call-ID: %s\r\n", r.callID)
	fmt.Fprintf(&b, "CSeq: %d REGISTER\r\n", cseq)
	fmt.Fprintf(&b, "Contact: <sip:%s@%s;transport=ws>;expires=%d\r\n", r.fromTag, r.host, r.config.Expires)
	fmt.Fprintf(&b, "Expires: %d\r\n", r.config.Expires)
	b.WriteString("Content-Length: 0\r\n\r\n")
	return b.Bytes()
}

func (r *Registrar) handleMessage(data []byte) {
	resp, err := ParseResponse(data)
	if err != nil {
		return
	}
	if resp.Headers["call-id"] != r.callID {
		return
	}

	r.mu.Lock()
	ch, ok := r.pending[resp.Branch()]
	r.mu.Unlock()
	if !ok {
		return
	}
	select {
	case ch <- resp:
	default:
	}
}

// ============================================================================
//                              解析
// ============================================================================

// compactHeaders SIP 紧凑头名
var compactHeaders = map[string]string{
	"v": "via",
	"i": "call-id",
	"f": "from",
	"t": "to",
	"m": "contact",
	"l": "content-length",
}

// ParseResponse 解析 SIP 响应的状态行和头部
//
// 头名统一转为小写，同名头只保留第一个。请求消息返回 ErrMalformedMessage。
func ParseResponse(data []byte) (*Response, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	if !sc.Scan() {
		return nil, ErrMalformedMessage
	}

	status := strings.SplitN(strings.TrimSpace(sc.Text()), " ", 3)
	if len(status) < 2 || !strings.HasPrefix(status[0], "SIP/") {
		return nil, ErrMalformedMessage
	}
	code, err := strconv.Atoi(status[1])
	if err != nil || code < 100 || code > 699 {
		return nil, ErrMalformedMessage
	}

	resp := &Response{StatusCode: code, Headers: make(map[string]string)}
	if len(status) == 3 {
		resp.Reason = status[2]
	}

	for sc.Scan() {
		line := sc.Text()
		if line == "" || line == "\r" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if full, ok := compactHeaders[name]; ok {
			name = full
		}
		if _, seen := resp.Headers[name]; !seen {
			resp.Headers[name] = strings.TrimSpace(value)
		}
	}
	return resp, nil
}

func viaBranch(via string) string {
	for _, param := range strings.Split(via, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(param), "=")
		if ok && strings.EqualFold(k, "branch") {
			if i := strings.IndexByte(v, ','); i >= 0 {
				v = v[:i]
			}
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func shortToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
