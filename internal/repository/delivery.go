package repository

import (
	"os"
	"sync"
	"time"

	"github.com/far4599/ytgrab/internal/models"
	"github.com/far4599/ytgrab/internal/pkg/log"
	"github.com/patrickmn/go-cache"
	"go.uber.org/atomic"
)

type pendingFile struct {
	file *models.DownloadedFile
	// claimed is set by whoever gets the file first: Take or eviction.
	claimed *atomic.Bool
}

// DeliveryRepository holds downloaded files until they are handed to the user.
// Entries dropped without being taken, explicitly or by expiry, have their
// file deleted from disk.
type DeliveryRepository struct {
	cache *cache.Cache

	mu        sync.RWMutex
	onDiscard func(file *models.DownloadedFile)
}

func NewDeliveryRepository(ttl time.Duration) *DeliveryRepository {
	cleanup := ttl / 3
	if cleanup < time.Second {
		cleanup = time.Second
	}

	r := &DeliveryRepository{
		cache: cache.New(ttl, cleanup),
	}
	r.cache.OnEvicted(func(token string, v interface{}) {
		p, ok := v.(*pendingFile)
		if !ok || !p.claimed.CompareAndSwap(false, true) {
			return
		}

		removeFile(p.file)
		r.discarded(p.file)
	})

	return r
}

// OnDiscard registers fn to be called for every file dropped without delivery.
func (r *DeliveryRepository) OnDiscard(fn func(file *models.DownloadedFile)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.onDiscard = fn
}

func (r *DeliveryRepository) Add(file *models.DownloadedFile) {
	r.cache.Set(file.Token, &pendingFile{file: file, claimed: atomic.NewBool(false)}, cache.DefaultExpiration)
}

func (r *DeliveryRepository) Get(token string) (*models.DownloadedFile, bool) {
	p, ok := r.pending(token)
	if !ok {
		return nil, false
	}

	return p.file, true
}

// Take removes the entry and hands its file to the caller, who must Release
// it once done. Only one caller ever gets a given file.
func (r *DeliveryRepository) Take(token string) (*models.DownloadedFile, bool) {
	p, ok := r.pending(token)
	if !ok || !p.claimed.CompareAndSwap(false, true) {
		return nil, false
	}

	r.cache.Delete(token)

	return p.file, true
}

// Release deletes a file obtained with Take.
func (r *DeliveryRepository) Release(file *models.DownloadedFile) {
	removeFile(file)
}

// Remove drops the entry and deletes its file.
func (r *DeliveryRepository) Remove(token string) {
	r.cache.Delete(token)
}

// DeleteExpired drops expired entries now instead of waiting for the janitor.
func (r *DeliveryRepository) DeleteExpired() {
	r.cache.DeleteExpired()
}

// Flush deletes every pending file. Used on shutdown.
func (r *DeliveryRepository) Flush() {
	for token := range r.cache.Items() {
		r.cache.Delete(token)
	}
}

func (r *DeliveryRepository) Len() int {
	return r.cache.ItemCount()
}

func (r *DeliveryRepository) pending(token string) (*pendingFile, bool) {
	v, ok := r.cache.Get(token)
	if !ok {
		return nil, false
	}

	p, ok := v.(*pendingFile)
	if !ok {
		r.cache.Delete(token)
		return nil, false
	}

	return p, true
}

func (r *DeliveryRepository) discarded(file *models.DownloadedFile) {
	r.mu.RLock()
	fn := r.onDiscard
	r.mu.RUnlock()

	if fn != nil {
		fn(file)
	}
}

func removeFile(file *models.DownloadedFile) {
	target := file.Path
	if len(file.Dir) > 0 {
		target = file.Dir
	}
	if len(target) == 0 {
		return
	}

	if err := os.RemoveAll(target); err != nil {
		log.Logger.Errorw("failed to remove downloaded file", "path", target, "error", err)
		return
	}

	log.Logger.Debugw("removed downloaded file", "path", target)
}
