// Package health runs the one-time API health check and holds the
// process-wide degraded flag that drives the "API is offline" banner.
package health

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/iliyamo/cinema-assistant/internal/model"
)

// Status of the probe.
type Status string

const (
	StatusChecking Status = "checking"
	StatusOnline   Status = "online"
	StatusOffline  Status = "offline"
)

// Checker is the part of the API client the probe needs.
type Checker interface {
	CheckHealth(ctx context.Context) (model.HealthResponse, error)
}

// Probe checks the API exactly once.  There is no periodic re-check and no
// recovery detection: once offline, the banner stays for the process lifetime.
type Probe struct {
	once   sync.Once
	status atomic.Value // Status
}

// Default is the process-wide probe initialized at startup.
var Default = &Probe{}

// Init runs the check on its first call; later calls return immediately.
func (p *Probe) Init(ctx context.Context, c Checker) Status {
	p.once.Do(func() {
		p.status.Store(StatusChecking)
		if _, err := c.CheckHealth(ctx); err != nil {
			log.Printf("health: API health check failed: %v", err)
			p.status.Store(StatusOffline)
			return
		}
		p.status.Store(StatusOnline)
	})
	return p.Status()
}

// Status returns the probe state; StatusChecking before Init completes.
func (p *Probe) Status() Status {
	if s, ok := p.status.Load().(Status); ok {
		return s
	}
	return StatusChecking
}

// Degraded reports whether the banner should be shown.
func (p *Probe) Degraded() bool { return p.Status() == StatusOffline }

// Banner is the degraded-mode message for an API at baseURL.
func Banner(baseURL string) string {
	return "API is offline. Please ensure your API server is running at " + baseURL
}
