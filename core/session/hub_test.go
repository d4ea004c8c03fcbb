package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"Bt1Clip/model"
)

func newHubSession(id string, p *model.Project) *Session {
	return &Session{ID: id, project: p, send: make(chan []byte, 4)}
}

// waitFor 轮询等待条件成立，Hub 主循环在独立 goroutine 上消费
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("条件在超时前未满足")
}

func TestHubBroadcastSkipsOrigin(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	p := model.NewProject(1, "测试工程")
	a := newHubSession("a", p)
	b := newHubSession("b", p)
	h.Register(a)
	h.Register(b)
	waitFor(t, func() bool { return h.SessionCount(p.ID) == 2 })

	h.BroadcastState(p.ID, "a", p)
	waitFor(t, func() bool { return len(b.send) == 1 })

	// 快照不回发给发起编辑的会话
	assert.Empty(t, a.send)
}

func TestHubUnregisterAfterStopDoesNotBlock(t *testing.T) {
	h := NewHub()
	go h.Run()

	p := model.NewProject(1, "测试工程")
	s := newHubSession("a", p)
	h.Register(s)
	waitFor(t, func() bool { return h.SessionCount(p.ID) == 1 })

	h.Stop()

	// Hub 停止后会话拆除仍需能完成，读泵的注销不依赖 Hub 存活
	released := make(chan struct{})
	go func() {
		h.Unregister(s)
		h.Register(newHubSession("b", p))
		close(released)
	}()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("Hub 停止后注销会话被阻塞")
	}
}
