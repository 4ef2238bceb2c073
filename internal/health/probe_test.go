package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/cinema-assistant/internal/model"
)

type fakeChecker struct {
	calls int
	err   error
}

func (f *fakeChecker) CheckHealth(ctx context.Context) (model.HealthResponse, error) {
	f.calls++
	return model.HealthResponse{Status: "healthy"}, f.err
}

func TestProbe_Online(t *testing.T) {
	p := &Probe{}
	assert.Equal(t, StatusChecking, p.Status())
	assert.Equal(t, StatusOnline, p.Init(context.Background(), &fakeChecker{}))
	assert.False(t, p.Degraded())
}

func TestProbe_OfflineIsSticky(t *testing.T) {
	p := &Probe{}
	down := &fakeChecker{err: errors.New("dial tcp: refused")}
	assert.Equal(t, StatusOffline, p.Init(context.Background(), down))
	assert.True(t, p.Degraded())

	up := &fakeChecker{}
	assert.Equal(t, StatusOffline, p.Init(context.Background(), up))
	assert.Equal(t, 1, down.calls)
	assert.Zero(t, up.calls, "the probe runs once per process")
}

func TestBanner(t *testing.T) {
	assert.Equal(t, "API is offline. Please ensure your API server is running at http://localhost:8000", Banner("http://localhost:8000"))
}
