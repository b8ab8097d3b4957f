package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockPinger はPingerのモック実装。failures回失敗した後に成功する。
type mockPinger struct {
	failures int
	calls    int
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	m.calls++
	if m.calls <= m.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestConnectBackoff(t *testing.T) {
	tests := []struct {
		failures int
		want     time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{4, 8 * time.Second},
		{10, 8 * time.Second},
	}

	for _, tt := range tests {
		if got := ConnectBackoff(tt.failures); got != tt.want {
			t.Errorf("ConnectBackoff(%d) = %v, want %v", tt.failures, got, tt.want)
		}
	}
}

func TestWaitForConnection_FirstAttemptSucceeds(t *testing.T) {
	p := &mockPinger{}
	if err := WaitForConnection(context.Background(), p, 3); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want 1", p.calls)
	}
}

func TestWaitForConnection_RetriesUntilReady(t *testing.T) {
	p := &mockPinger{failures: 1}
	if err := WaitForConnection(context.Background(), p, 3); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.calls != 2 {
		t.Errorf("calls = %d, want 2", p.calls)
	}
}

func TestWaitForConnection_GivesUp(t *testing.T) {
	p := &mockPinger{failures: 100}
	err := WaitForConnection(context.Background(), p, 1)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want 1", p.calls)
	}
}

func TestWaitForConnection_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &mockPinger{failures: 100}
	err := WaitForConnection(ctx, p, 5)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
