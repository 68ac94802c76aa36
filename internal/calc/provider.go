package calc

import (
	"context"
	"sync"

	"pairScope/internal/model"
)

// PoolProvider supplies the current pool state. A nil snapshot with a nil
// error means the reserves are still loading.
type PoolProvider interface {
	Snapshot(ctx context.Context) (*model.PoolSnapshot, error)
}

// StaticProvider serves a fixed snapshot, for offline calculations.
type StaticProvider struct {
	mu       sync.RWMutex
	snapshot *model.PoolSnapshot
}

// NewStaticProvider returns a provider serving snap. A nil snap reports not ready.
func NewStaticProvider(snap *model.PoolSnapshot) *StaticProvider {
	p := &StaticProvider{}
	p.Set(snap)
	return p
}

func (p *StaticProvider) Set(snap *model.PoolSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if snap == nil {
		p.snapshot = nil
		return
	}
	copied := *snap
	if copied.Source == "" {
		copied.Source = model.SourceStatic
	}
	p.snapshot = &copied
}

func (p *StaticProvider) Snapshot(ctx context.Context) (*model.PoolSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.snapshot == nil {
		return nil, nil
	}
	copied := *p.snapshot
	return &copied, nil
}
