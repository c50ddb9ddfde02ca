package features

import (
	"fmt"
	"sync"
	"time"
)

// progressTracker prints extraction progress periodically while workers
// report results.
type progressTracker struct {
	mu        sync.Mutex
	processed int
	errors    int
	total     int
	ticker    *time.Ticker
	done      chan bool
	stopped   bool
}

func newProgressTracker(total int) *progressTracker {
	tracker := &progressTracker{
		ticker: time.NewTicker(500 * time.Millisecond),
		done:   make(chan bool),
		total:  total,
	}

	go tracker.displayProgress()

	return tracker
}

// displayProgress shows the progress periodically
func (p *progressTracker) displayProgress() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.mu.Lock()
			if p.errors > 0 {
				fmt.Printf("\rProgress: %d/%d (Errors: %d)", p.processed, p.total, p.errors)
			} else {
				fmt.Printf("\rProgress: %d/%d", p.processed, p.total)
			}
			p.mu.Unlock()
		}
	}
}

// record counts one processed image.
func (p *progressTracker) record(success bool) {
	p.mu.Lock()
	p.processed++
	if !success {
		p.errors++
	}
	p.mu.Unlock()
}

// stop ends the progress display.
func (p *progressTracker) stop() {
	if p.stopped {
		return
	}
	p.stopped = true
	p.ticker.Stop()
	p.done <- true
}
