package health

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	pkghttp "github.com/autorent/autorent-platform/pkg/http"
	"github.com/autorent/autorent-platform/pkg/storage"
	"github.com/autorent/autorent-platform/pkg/testing/mocks"
)

func failing(msg string) CheckFunc {
	return func(ctx context.Context) error {
		return errors.New(msg)
	}
}

func TestStatusConstants(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusHealthy, "healthy"},
		{StatusUnhealthy, "unhealthy"},
		{StatusDegraded, "degraded"},
	}

	for _, tt := range tests {
		if string(tt.status) != tt.expected {
			t.Errorf("status = %s, want %s", tt.status, tt.expected)
		}
	}
}

func TestChecker_AddCheck(t *testing.T) {
	checker := NewChecker("1.0.0", 0)

	checker.AddCheck("test", AlwaysHealthy(), false)
	checker.AddCheck("test2", AlwaysHealthy(), true)
	if len(checker.checks) != 2 {
		t.Fatalf("expected 2 checks, got %d", len(checker.checks))
	}

	if checker.checks[0].Critical {
		t.Error("first check should not be critical")
	}
	if !checker.checks[1].Critical {
		t.Error("second check should be critical")
	}
}

func TestChecker_Check(t *testing.T) {
	tests := []struct {
		name    string
		checks  []Check
		want    Status
		healthy bool
	}{
		{"no checks", nil, StatusHealthy, true},
		{"all healthy", []Check{
			{Name: "a", CheckFn: AlwaysHealthy(), Critical: true},
			{Name: "b", CheckFn: AlwaysHealthy()},
		}, StatusHealthy, true},
		{"non-critical failure", []Check{
			{Name: "a", CheckFn: AlwaysHealthy(), Critical: true},
			{Name: "b", CheckFn: failing("down")},
		}, StatusDegraded, true},
		{"critical failure", []Check{
			{Name: "a", CheckFn: failing("down"), Critical: true},
			{Name: "b", CheckFn: failing("down")},
		}, StatusUnhealthy, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker("1.0.0", time.Second)
			for _, c := range tt.checks {
				checker.AddCheck(c.Name, c.CheckFn, c.Critical)
			}

			report := checker.Check(context.Background())

			if report.Status != tt.want {
				t.Errorf("status = %s, want %s", report.Status, tt.want)
			}
			if report.Healthy() != tt.healthy {
				t.Errorf("Healthy() = %v, want %v", report.Healthy(), tt.healthy)
			}
			if (report.Err() == nil) != tt.healthy {
				t.Errorf("Err() = %v", report.Err())
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("results = %d, want %d", len(report.Checks), len(tt.checks))
			}
			if report.Version != "1.0.0" {
				t.Errorf("version = %s", report.Version)
			}
		})
	}
}

func TestChecker_Check_ResultOrderAndMessage(t *testing.T) {
	checker := NewChecker("1.0.0", 0)
	checker.AddCheck("storage", failing("disk on fire"), true)
	checker.AddCheck("car-data", AlwaysHealthy(), false)

	report := checker.Check(context.Background())

	if report.Checks[0].Name != "storage" || report.Checks[1].Name != "car-data" {
		t.Fatalf("results out of registration order: %+v", report.Checks)
	}
	if report.Checks[0].Message != "disk on fire" {
		t.Errorf("message = %s", report.Checks[0].Message)
	}
	if !report.Checks[0].Critical {
		t.Error("critical flag should be reported")
	}
	if report.Checks[1].Message != "" {
		t.Errorf("healthy check should have no message, got %s", report.Checks[1].Message)
	}
	if !strings.Contains(report.Err().Error(), "storage: disk on fire") {
		t.Errorf("Err() = %v", report.Err())
	}
}

func TestChecker_Check_Timeout(t *testing.T) {
	checker := NewChecker("1.0.0", 20*time.Millisecond)
	checker.AddCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, true)

	report := checker.Check(context.Background())

	if report.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", report.Status)
	}
	if report.Checks[0].Latency < 20 {
		t.Errorf("latency = %f, expected at least 20ms", report.Checks[0].Latency)
	}
}

func TestChecker_Check_Timestamp(t *testing.T) {
	checker := NewChecker("1.0.0", 0)
	checker.now = func() time.Time { return time.Date(2025, 5, 14, 9, 30, 0, 0, time.UTC) }

	report := checker.Check(context.Background())

	if report.Timestamp != "2025-05-14T09:30:00Z" {
		t.Errorf("timestamp = %s", report.Timestamp)
	}
}

func TestChecker_ConcurrentCheck(t *testing.T) {
	checker := NewChecker("1.0.0", 0)
	checker.AddCheck("slow", func(ctx context.Context) error {
		time.Sleep(10 * time.Millisecond)
		return nil
	}, false)

	done := make(chan Report)
	for i := 0; i < 5; i++ {
		go func() {
			done <- checker.Check(context.Background())
		}()
		go checker.AddCheck("extra", AlwaysHealthy(), false)
	}

	for i := 0; i < 5; i++ {
		if resp := <-done; resp.Status != StatusHealthy {
			t.Errorf("concurrent check returned %s, want healthy", resp.Status)
		}
	}
}

func TestStoreCheck(t *testing.T) {
	t.Run("healthy on miss", func(t *testing.T) {
		if err := StoreCheck(storage.NewMemoryStore())(context.Background()); err != nil {
			t.Errorf("StoreCheck() error = %v", err)
		}
	})

	t.Run("read failure", func(t *testing.T) {
		kv := mocks.NewKVStore()
		kv.GetErr = errors.New("connection refused")

		err := StoreCheck(kv)(context.Background())
		if err == nil || !strings.Contains(err.Error(), "read: connection refused") {
			t.Errorf("StoreCheck() error = %v", err)
		}
	})
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestPingCheck(t *testing.T) {
	if err := PingCheck(fakePinger{})(context.Background()); err != nil {
		t.Errorf("PingCheck() error = %v", err)
	}
	if err := PingCheck(fakePinger{err: errors.New("503")})(context.Background()); err == nil {
		t.Error("PingCheck() should surface the ping error")
	}
}

type fakeCircuit pkghttp.CircuitState

func (f fakeCircuit) CircuitState() pkghttp.CircuitState { return pkghttp.CircuitState(f) }

func TestCircuitCheck(t *testing.T) {
	tests := []struct {
		state   pkghttp.CircuitState
		wantErr bool
	}{
		{pkghttp.StateClosed, false},
		{pkghttp.StateHalfOpen, false},
		{pkghttp.StateOpen, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			err := CircuitCheck("car-data", fakeCircuit(tt.state))(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("CircuitCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
			var ce *CheckError
			if err != nil && (!errors.As(err, &ce) || ce.Service != "car-data") {
				t.Errorf("error = %v, want CheckError for car-data", err)
			}
		})
	}
}
