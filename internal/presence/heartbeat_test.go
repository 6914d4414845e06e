package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type statusCall struct {
	userID int64
	online bool
}

type stubGateway struct {
	mu    sync.Mutex
	calls []statusCall
	fail  bool
}

func (g *stubGateway) UpdateOnlineStatus(_ context.Context, userID int64, online bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, statusCall{userID, online})
	if g.fail && online {
		return errors.New("gateway down")
	}
	return nil
}

func (g *stubGateway) snapshot() []statusCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]statusCall(nil), g.calls...)
}

type stubContacts struct {
	mu    sync.Mutex
	count int
}

func (c *stubContacts) RefreshContacts(_ context.Context, _ int64) {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
}

func (c *stubContacts) n() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func TestStartFiresImmediatelyAndStopReportsOffline(t *testing.T) {
	gw := &stubGateway{}
	contacts := &stubContacts{}
	h := New(gw, contacts, Options{Interval: time.Hour})

	h.Start(7)
	h.Start(7) // 重复启动忽略
	if !h.Running() {
		t.Fatalf("Running = false after Start")
	}
	h.Stop()
	h.Stop()

	calls := gw.snapshot()
	if len(calls) != 2 {
		t.Fatalf("calls = %+v, want online then offline", calls)
	}
	if calls[0] != (statusCall{7, true}) || calls[1] != (statusCall{7, false}) {
		t.Fatalf("calls = %+v", calls)
	}
	if contacts.n() != 1 {
		t.Fatalf("contact refreshes = %d, want 1", contacts.n())
	}
	if h.Running() {
		t.Fatalf("Running = true after Stop")
	}
}

func TestTicksRepeatOnInterval(t *testing.T) {
	gw := &stubGateway{}
	contacts := &stubContacts{}
	h := New(gw, contacts, Options{Interval: time.Second})

	h.Start(3)
	deadline := time.Now().Add(5 * time.Second)
	for contacts.n() < 2 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	h.Stop()

	if contacts.n() < 2 {
		t.Fatalf("contact refreshes = %d, want at least 2", contacts.n())
	}
	calls := gw.snapshot()
	online := 0
	for _, c := range calls[:len(calls)-1] {
		if !c.online {
			t.Fatalf("offline reported before Stop: %+v", calls)
		}
		online++
	}
	if online < 2 || calls[len(calls)-1].online {
		t.Fatalf("calls = %+v", calls)
	}
}

func TestFailedTickDoesNotStopHeartbeat(t *testing.T) {
	gw := &stubGateway{fail: true}
	h := New(gw, nil, Options{Interval: time.Hour})

	h.Start(5)
	if !h.Running() {
		t.Fatalf("heartbeat stopped after a failed tick")
	}
	h.Stop()

	calls := gw.snapshot()
	if last := calls[len(calls)-1]; last.online {
		t.Fatalf("final report = %+v, want offline", last)
	}
}

func TestRestartAfterStop(t *testing.T) {
	gw := &stubGateway{}
	h := New(gw, nil, Options{Interval: time.Hour})

	h.Start(1)
	h.Stop()
	h.Start(2)
	h.Stop()

	calls := gw.snapshot()
	want := []statusCall{{1, true}, {1, false}, {2, true}, {2, false}}
	if len(calls) != len(want) {
		t.Fatalf("calls = %+v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %+v, want %+v", calls, want)
		}
	}
}

// blockingGateway 让指定用户的在线上报阻塞到 release 关闭
type blockingGateway struct {
	stubGateway
	blockUser int64
	entered   chan struct{}
	release   chan struct{}
}

func (g *blockingGateway) UpdateOnlineStatus(ctx context.Context, userID int64, online bool) error {
	if online && userID == g.blockUser {
		g.entered <- struct{}{}
		<-g.release
	}
	return g.stubGateway.UpdateOnlineStatus(ctx, userID, online)
}

func TestStartWhileStopWaitsForTick(t *testing.T) {
	gw := &blockingGateway{
		blockUser: 1,
		entered:   make(chan struct{}, 1),
		release:   make(chan struct{}),
	}
	h := New(gw, nil, Options{Interval: time.Hour})

	h.Start(1)
	<-gw.entered

	stopped := make(chan struct{})
	go func() {
		h.Stop()
		close(stopped)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for h.Running() {
		if time.Now().After(deadline) {
			t.Fatalf("Stop did not mark the heartbeat stopped")
		}
		time.Sleep(time.Millisecond)
	}

	// 旧会话的 tick 仍在进行，新会话可以立即开始
	h.Start(2)
	select {
	case <-stopped:
		t.Fatalf("Stop returned before the in-flight tick finished")
	case <-time.After(20 * time.Millisecond):
	}
	close(gw.release)
	<-stopped
	h.Stop()

	calls := gw.snapshot()
	has := func(c statusCall) bool {
		for _, got := range calls {
			if got == c {
				return true
			}
		}
		return false
	}
	for _, want := range []statusCall{{1, true}, {1, false}, {2, true}} {
		if !has(want) {
			t.Fatalf("calls = %+v, missing %+v", calls, want)
		}
	}
	if last := calls[len(calls)-1]; last != (statusCall{2, false}) {
		t.Fatalf("final report = %+v, want user 2 offline", last)
	}
}
