package mocks

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/autorent/autorent-platform/pkg/vehicle"
)

// Fetcher is a scripted car-data fetcher.
type Fetcher struct {
	mu      sync.Mutex
	results []vehicle.RawVehicle
	err     error
	counts  []int

	calls atomic.Int32

	// Gate, when non-nil, blocks every fetch until it is closed.
	Gate chan struct{}
	// Started receives once per fetch after it begins, if non-nil.
	Started chan struct{}
}

// NewFetcher returns a fetcher that always yields results.
func NewFetcher(results []vehicle.RawVehicle) *Fetcher {
	return &Fetcher{results: results}
}

// NewFailingFetcher returns a fetcher that always fails with err.
func NewFailingFetcher(err error) *Fetcher {
	return &Fetcher{err: err}
}

// FetchBatch returns the scripted results.
func (f *Fetcher) FetchBatch(ctx context.Context, count int) ([]vehicle.RawVehicle, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.counts = append(f.counts, count)
	f.mu.Unlock()

	if f.Started != nil {
		f.Started <- struct{}{}
	}
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]vehicle.RawVehicle, len(f.results))
	copy(out, f.results)
	return out, nil
}

// SetResults replaces the scripted results.
func (f *Fetcher) SetResults(results []vehicle.RawVehicle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = results
	f.err = nil
}

// SetError makes subsequent fetches fail.
func (f *Fetcher) SetError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Calls returns the number of FetchBatch calls.
func (f *Fetcher) Calls() int {
	return int(f.calls.Load())
}

// Counts returns the requested batch sizes in call order.
func (f *Fetcher) Counts() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.counts))
	copy(out, f.counts)
	return out
}
