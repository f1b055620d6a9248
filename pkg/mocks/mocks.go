// Package mocks provides mock implementations of interfaces for testing.
// These follow Go best practices for test doubles.
package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/storyboard/storyboard/pkg/cache"
	"github.com/storyboard/storyboard/pkg/provider"
	"github.com/storyboard/storyboard/pkg/types"
)

// MockProvider is a scriptable Provider for testing. Responses are
// consumed per request key in FIFO order; once the script for a key is
// exhausted the final response repeats.
type MockProvider struct {
	mu        sync.Mutex
	scripts   map[string][]ProviderResponse
	fallback  ProviderResponse
	calls     []types.Request
	blockCh   chan struct{}
	blockGate chan struct{}
}

// ProviderResponse is one scripted Generate outcome
type ProviderResponse struct {
	Artifact *provider.Artifact
	Err      error
}

// NewMockProvider creates a provider that returns a small artifact for
// every request unless a script overrides it.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		scripts: make(map[string][]ProviderResponse),
		fallback: ProviderResponse{
			Artifact: &provider.Artifact{Data: []byte("artifact"), Format: "png"},
		},
	}
}

// Script queues responses for requests whose rendered prompt matches key
func (m *MockProvider) Script(key string, responses ...ProviderResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[key] = append(m.scripts[key], responses...)
}

// SetFallback changes the response used when no script matches
func (m *MockProvider) SetFallback(resp ProviderResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = resp
}

// Block makes every subsequent Generate call park until Release is
// called. Used to observe the concurrency bound.
func (m *MockProvider) Block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockCh = make(chan struct{})
	m.blockGate = make(chan struct{}, 1024)
}

// Release unparks all blocked Generate calls
func (m *MockProvider) Release() {
	m.mu.Lock()
	ch := m.blockCh
	m.blockCh = nil
	m.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

// Entered returns a channel that receives one value each time a Generate
// call reaches the blocking gate.
func (m *MockProvider) Entered() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.blockGate
}

// Generate implements interfaces.Provider
func (m *MockProvider) Generate(ctx context.Context, req types.Request) (*provider.Artifact, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	key := types.RenderPrompt(req.Parts)
	resp := m.fallback
	if script, ok := m.scripts[key]; ok && len(script) > 0 {
		resp = script[0]
		if len(script) > 1 {
			m.scripts[key] = script[1:]
		}
	}
	blockCh := m.blockCh
	blockGate := m.blockGate
	m.mu.Unlock()

	if blockCh != nil {
		select {
		case blockGate <- struct{}{}:
		default:
		}
		select {
		case <-blockCh:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return resp.Artifact, nil
}

// Calls returns a copy of all requests seen so far
func (m *MockProvider) Calls() []types.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Generate invocations
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// FakeClock is a Clock whose sleeps return immediately while recording
// the requested durations.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewFakeClock creates a clock anchored at a fixed instant
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fake instant
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep records d, advances the fake instant, and returns immediately
func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

// Sleeps returns the recorded sleep durations in order
func (c *FakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.sleeps))
	copy(out, c.sleeps)
	return out
}

// MockNotifier records run notifications for assertion
type MockNotifier struct {
	mu        sync.Mutex
	Starts    []string
	Failures  []string
	Completes []string
}

// NewMockNotifier creates an empty notifier recorder
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// NotifyRunStart records a run start
func (m *MockNotifier) NotifyRunStart(document string, tasks int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Starts = append(m.Starts, fmt.Sprintf("%s:%d", document, tasks))
}

// NotifyAssetFailure records a failed asset
func (m *MockNotifier) NotifyAssetFailure(sceneID, frameID string, assetType types.AssetType, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failures = append(m.Failures, fmt.Sprintf("%s.%s.%s: %v", sceneID, frameID, assetType, err))
}

// NotifyRunComplete records the run summary
func (m *MockNotifier) NotifyRunComplete(succeeded, failed int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Completes = append(m.Completes, fmt.Sprintf("%d/%d", succeeded, failed))
}

// MemoryStore is an in-memory ArtifactStore without coalescing, for
// tests that need to observe every generate call.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[cache.Key][]byte
	lookups int
	puts    int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[cache.Key][]byte)}
}

// Lookup implements interfaces.ArtifactStore
func (s *MemoryStore) Lookup(key cache.Key) (*cache.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if _, ok := s.entries[key]; !ok {
		return nil, nil
	}
	return &cache.Entry{Key: key, Path: "mem:" + string(key)}, nil
}

// Put implements interfaces.ArtifactStore
func (s *MemoryStore) Put(key cache.Key, data []byte, overwrite bool) (*cache.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok && !overwrite {
		return &cache.Entry{Key: key, Path: "mem:" + string(key)}, nil
	}
	s.puts++
	s.entries[key] = data
	return &cache.Entry{Key: key, Path: "mem:" + string(key)}, nil
}

// GetOrGenerate implements interfaces.ArtifactStore
func (s *MemoryStore) GetOrGenerate(
	ctx context.Context,
	key cache.Key,
	force bool,
	generate func(ctx context.Context) ([]byte, error),
) (*cache.Entry, bool, error) {
	if !force {
		entry, err := s.Lookup(key)
		if err != nil {
			return nil, false, err
		}
		if entry != nil {
			return entry, true, nil
		}
	}
	data, err := generate(ctx)
	if err != nil {
		return nil, false, err
	}
	entry, err := s.Put(key, data, force)
	if err != nil {
		return nil, false, err
	}
	return entry, false, nil
}

// Data returns the stored bytes for a key
func (s *MemoryStore) Data(key cache.Key) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.entries[key]
	return data, ok
}

// PutCount returns how many writes reached the store
func (s *MemoryStore) PutCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
