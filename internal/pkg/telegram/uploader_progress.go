package telegram

import (
	"context"
	"sync"

	"github.com/far4599/ytgrab/internal/models"
	"github.com/gotd/td/telegram/uploader"
	"go.uber.org/atomic"
)

// UploaderProgress turns uploader chunks into a stream of distinct percentages.
type UploaderProgress struct {
	progress         *atomic.Int32 // 0 - 100
	progressChangeCh chan int32

	closed bool
	mu     sync.Mutex
}

func NewUploaderProgress() *UploaderProgress {
	return &UploaderProgress{
		progress:         atomic.NewInt32(-1),
		progressChangeCh: make(chan int32, 101),
	}
}

func (up *UploaderProgress) Chunk(_ context.Context, state uploader.ProgressState) error {
	newProgress := int32(models.Progress{
		DownloadedBytes: state.Uploaded,
		TotalBytes:      state.Total,
	}.Percent())

	if up.progress.Swap(newProgress) == newProgress {
		return nil
	}

	up.mu.Lock()
	defer up.mu.Unlock()

	if !up.closed {
		select {
		case up.progressChangeCh <- newProgress:
		default:
		}
	}

	return nil
}

func (up *UploaderProgress) ProgressChan() <-chan int32 {
	return up.progressChangeCh
}

func (up *UploaderProgress) Close() {
	up.mu.Lock()
	defer up.mu.Unlock()

	if up.closed {
		return
	}
	up.closed = true
	close(up.progressChangeCh)
}
