package executor

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

const maxPermits = 1024

// permitPool bounds concurrent task workers. The semaphore is sized to
// maxPermits and the pool withholds everything above the configured size.
// Shrinking below the number of held permits leaves a debt that is paid back
// as workers release, so a running worker never loses its permit.
type permitPool struct {
	mu       sync.Mutex
	sem      *semaphore.Weighted
	size     int64
	inUse    int64
	withheld int64
	debt     int64
}

func newPermitPool(n int) *permitPool {
	size := clampPermits(n)
	p := &permitPool{
		sem:      semaphore.NewWeighted(maxPermits),
		size:     size,
		withheld: maxPermits - size,
	}
	p.sem.TryAcquire(p.withheld)
	return p
}

func clampPermits(n int) int64 {
	switch {
	case n < 1:
		return 1
	case n > maxPermits:
		return maxPermits
	}
	return int64(n)
}

func (p *permitPool) tryAcquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.sem.TryAcquire(1) {
		return false
	}
	p.inUse++
	return true
}

func (p *permitPool) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inUse--
	if p.debt > 0 {
		p.debt--
		p.withheld++
		return
	}
	p.sem.Release(1)
}

func (p *permitPool) resize(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	target := clampPermits(n)
	switch {
	case target > p.size:
		grow := target - p.size
		paid := min(grow, p.debt)
		p.debt -= paid
		if grow -= paid; grow > 0 {
			p.withheld -= grow
			p.sem.Release(grow)
		}
	case target < p.size:
		shrink := p.size - target
		for shrink > 0 && p.sem.TryAcquire(1) {
			p.withheld++
			shrink--
		}
		p.debt += shrink
	}
	p.size = target
}

func (p *permitPool) capacity() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.size)
}

func (p *permitPool) available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if free := p.size - p.inUse; free > 0 {
		return int(free)
	}
	return 0
}

func (p *permitPool) held() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.inUse)
}
