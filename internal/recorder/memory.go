package recorder

import "sync"

// MemoryBackend keeps records in memory. Used for tests and for
// sessions where no persistence is configured.
type MemoryBackend struct {
	mu     sync.RWMutex
	frames []FrameRecord
	events []SessionEvent
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Init() error {
	return nil
}

func (b *MemoryBackend) Close() error {
	return nil
}

func (b *MemoryBackend) WriteFrames(frames []FrameRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, frames...)
	return nil
}

func (b *MemoryBackend) WriteEvent(event SessionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

// Frames returns a copy of all recorded frames.
func (b *MemoryBackend) Frames() []FrameRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cp := make([]FrameRecord, len(b.frames))
	copy(cp, b.frames)
	return cp
}

// Events returns a copy of all recorded events.
func (b *MemoryBackend) Events() []SessionEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cp := make([]SessionEvent, len(b.events))
	copy(cp, b.events)
	return cp
}
