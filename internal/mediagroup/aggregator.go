// Package mediagroup collects the photos of a Telegram album, which arrive as
// separate updates, into one Album.
package mediagroup

import (
	"fmt"
	"sync"
	"time"
)

type Photo struct {
	ChatID       int64
	UserID       int64
	MediaGroupID string
	Caption      string
	FileID       string
}

// Album is a flushed group. Caption is the first non-empty caption seen;
// Telegram puts an album's caption on one of its photos.
type Album struct {
	ChatID  int64
	UserID  int64
	Caption string
	FileIDs []string
}

type Options struct {
	Debounce time.Duration
	OnFlush  func(Album)
}

type Aggregator struct {
	mu       sync.Mutex
	debounce time.Duration
	onFlush  func(Album)
	pending  map[string]*pendingAlbum
	closed   bool
}

type pendingAlbum struct {
	album Album
	timer *time.Timer
}

func New(opts Options) *Aggregator {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 1200 * time.Millisecond
	}

	return &Aggregator{
		debounce: debounce,
		onFlush:  opts.OnFlush,
		pending:  make(map[string]*pendingAlbum),
	}
}

// Add records a photo and restarts the album's quiet period.
// Photos without a media group id are ignored.
func (a *Aggregator) Add(p Photo) {
	if p.MediaGroupID == "" || p.FileID == "" {
		return
	}
	key := fmt.Sprintf("%d:%s", p.ChatID, p.MediaGroupID)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	pa, ok := a.pending[key]
	if !ok {
		pa = &pendingAlbum{album: Album{ChatID: p.ChatID, UserID: p.UserID}}
		a.pending[key] = pa
	}
	pa.album.FileIDs = append(pa.album.FileIDs, p.FileID)
	if pa.album.Caption == "" {
		pa.album.Caption = p.Caption
	}

	if pa.timer != nil {
		pa.timer.Stop()
	}
	pa.timer = time.AfterFunc(a.debounce, func() {
		a.flush(key)
	})
}

// Close drops pending albums and stops accepting new photos.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	for key, pa := range a.pending {
		pa.timer.Stop()
		delete(a.pending, key)
	}
}

func (a *Aggregator) flush(key string) {
	a.mu.Lock()
	pa, ok := a.pending[key]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.pending, key)
	album := pa.album
	onFlush := a.onFlush
	a.mu.Unlock()

	if onFlush != nil {
		onFlush(album)
	}
}
