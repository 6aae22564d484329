package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/far4599/ytgrab/internal/models"
	"github.com/far4599/ytgrab/internal/repository"
	"github.com/pkg/errors"
)

type fetchCall struct {
	URL      string
	FormatID string
	OutDir   string
}

type fakeExtractor struct {
	mu sync.Mutex

	meta     *models.Metadata
	probeErr error
	fetchErr error
	progress []models.Progress
	block    chan struct{}

	probes  []string
	fetches []fetchCall
}

func (f *fakeExtractor) Probe(_ context.Context, url string) (*models.Metadata, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.probes = append(f.probes, url)
	if f.probeErr != nil {
		return nil, f.probeErr
	}

	return f.meta, nil
}

func (f *fakeExtractor) Fetch(_ context.Context, url, formatID, outDir string, onProgress func(models.Progress)) (string, error) {
	f.mu.Lock()
	f.fetches = append(f.fetches, fetchCall{URL: url, FormatID: formatID, OutDir: outDir})
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	for _, p := range f.progress {
		onProgress(p)
	}

	if f.fetchErr != nil {
		// leave a partial file behind like an interrupted transfer would
		_ = os.WriteFile(filepath.Join(outDir, "partial.part"), []byte("x"), 0o644)
		return "", f.fetchErr
	}

	path := filepath.Join(outDir, "Some Video.mp4")
	if err := os.WriteFile(path, []byte("video-bytes"), 0o644); err != nil {
		return "", err
	}

	return path, nil
}

func (f *fakeExtractor) probeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.probes)
}

func (f *fakeExtractor) fetchCalls() []fetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]fetchCall(nil), f.fetches...)
}

func intPtr(n int) *int { return &n }

func sampleMetadata() *models.Metadata {
	return &models.Metadata{
		Title: "Some Video",
		Formats: []models.Format{
			{ID: "140", Quality: "medium", Ext: "m4a", VCodec: "none", ACodec: "mp4a.40.2", Audio: true},
			{ID: "137", Quality: "1080p", Ext: "mp4", Width: intPtr(1920), Height: intPtr(1080), VCodec: "avc1", ACodec: "none"},
			{ID: "18", Quality: "360p", Ext: "mp4", Width: intPtr(640), Height: intPtr(360), VCodec: "avc1", ACodec: "mp4a", Audio: true},
			{ID: "22", Quality: "720p", Ext: "mp4", Width: intPtr(1280), Height: intPtr(720), VCodec: "avc1", ACodec: "mp4a", Audio: true, Size: 12_000_000},
		},
	}
}

func newTestService(t *testing.T, ext Extractor) *VideoService {
	t.Helper()

	return newTestServiceWithTTL(t, ext, time.Minute)
}

func newTestServiceWithTTL(t *testing.T, ext Extractor, ttl time.Duration) *VideoService {
	t.Helper()

	sessions, err := repository.NewSessionRepository(100)
	if err != nil {
		t.Fatal(err)
	}

	vs, err := NewVideoService(ext, filepath.Join(t.TempDir(), "downloads"), sessions, repository.NewDeliveryRepository(ttl))
	if err != nil {
		t.Fatal(err)
	}

	return vs
}

func keyFor(t *testing.T, s models.Session, formatID string) string {
	t.Helper()

	for _, c := range s.Candidates {
		if c.Format.ID == formatID {
			return c.Key
		}
	}
	t.Fatalf("no candidate for format %q", formatID)

	return ""
}

func TestSubmitURLEmptyShowsWarningWithoutProbe(t *testing.T) {
	ext := &fakeExtractor{meta: sampleMetadata()}
	vs := newTestService(t, ext)

	for _, url := range []string{"", "   "} {
		session, err := vs.SubmitURL(context.Background(), "s1", url)
		if !errors.Is(err, ErrEmptyURL) {
			t.Fatalf("SubmitURL(%q) error = %v, want ErrEmptyURL", url, err)
		}
		if session.Notice.Level != models.NoticeWarning {
			t.Errorf("notice = %+v, want warning", session.Notice)
		}
	}

	if ext.probeCount() != 0 {
		t.Errorf("probe invoked %d times, want 0", ext.probeCount())
	}
}

func TestSubmitURLKeepsOnlyAudioFormats(t *testing.T) {
	vs := newTestService(t, &fakeExtractor{meta: sampleMetadata()})

	session, err := vs.SubmitURL(context.Background(), "s1", " https://example.com/watch?v=1 ")
	if err != nil {
		t.Fatalf("SubmitURL() error = %v", err)
	}

	if session.Stage != models.StageCandidatesShown {
		t.Errorf("stage = %s, want candidates", session.Stage)
	}
	if session.Title != "Some Video" || session.URL != "https://example.com/watch?v=1" {
		t.Errorf("unexpected session: %+v", session)
	}

	var ids []string
	for _, c := range session.Candidates {
		if !c.Format.Audio {
			t.Errorf("candidate %s has no audio", c.Format.ID)
		}
		ids = append(ids, c.Format.ID)
	}
	if got := strings.Join(ids, ","); got != "140,18,22" {
		t.Errorf("candidates = %s, want 140,18,22", got)
	}
}

func TestSubmitURLReplacesPreviousCandidates(t *testing.T) {
	ext := &fakeExtractor{meta: sampleMetadata()}
	vs := newTestService(t, ext)

	if _, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a"); err != nil {
		t.Fatal(err)
	}

	ext.meta = &models.Metadata{
		Title:   "Other",
		Formats: []models.Format{{ID: "251", Quality: "opus", Ext: "webm", Audio: true}},
	}

	session, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/b")
	if err != nil {
		t.Fatal(err)
	}

	if len(session.Candidates) != 1 || session.Candidates[0].Format.ID != "251" {
		t.Errorf("candidates were merged: %+v", session.Candidates)
	}
	if session.Title != "Other" {
		t.Errorf("title = %q, want Other", session.Title)
	}
}

func TestSubmitURLProbeErrorClearsCandidates(t *testing.T) {
	ext := &fakeExtractor{meta: sampleMetadata()}
	vs := newTestService(t, ext)

	if _, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a"); err != nil {
		t.Fatal(err)
	}

	ext.probeErr = errors.New("Unsupported URL: https://example.com/b")
	session, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/b")

	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("error = %v, want ExtractionError", err)
	}
	if len(session.Candidates) != 0 {
		t.Errorf("candidates = %d, want 0", len(session.Candidates))
	}
	if len(Grid(session.Candidates, GridColumns)) != 0 {
		t.Error("expected no button rows")
	}
	if session.Stage != models.StageFailed {
		t.Errorf("stage = %s, want failed", session.Stage)
	}
	if session.Notice.Level != models.NoticeError || !strings.Contains(session.Notice.Text, "Unsupported URL") {
		t.Errorf("notice = %+v", session.Notice)
	}
}

func TestSubmitURLWithoutAudioFormats(t *testing.T) {
	vs := newTestService(t, &fakeExtractor{meta: &models.Metadata{
		Title: "Silent",
		Formats: []models.Format{
			{ID: "137", Quality: "1080p", VCodec: "avc1", ACodec: "none"},
			{ID: "248", Quality: "1080p", VCodec: "vp9", ACodec: "none"},
		},
	}})

	session, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}

	if len(session.Candidates) != 0 {
		t.Errorf("candidates = %d, want 0", len(session.Candidates))
	}
	if rows := Grid(session.Candidates, GridColumns); len(rows) != 0 {
		t.Errorf("grid rows = %d, want 0", len(rows))
	}
}

func TestCandidateKeysAreUnique(t *testing.T) {
	formats := []models.Format{
		{ID: "18", Audio: true},
		{ID: "18", Audio: true},
		{ID: "22", Audio: true},
		{ID: "137", Audio: false},
		{ID: "hls-1+dash/2", Audio: true},
	}

	seen := map[string]bool{}
	for _, c := range BuildCandidates(formats) {
		if seen[c.Key] {
			t.Errorf("duplicate key %q", c.Key)
		}
		seen[c.Key] = true
	}

	if len(seen) != 4 {
		t.Errorf("got %d keys, want 4", len(seen))
	}
}

func TestSelectFetchesExactFormatAndDeliverRemovesFile(t *testing.T) {
	ext := &fakeExtractor{
		meta: sampleMetadata(),
		progress: []models.Progress{
			{DownloadedBytes: 10, TotalBytes: 100},
			{DownloadedBytes: 55, TotalBytes: 100},
		},
	}
	vs := newTestService(t, ext)

	session, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}

	var percents []int
	file, err := vs.Select(context.Background(), "s1", keyFor(t, session, "22"), func(p models.Progress) {
		percents = append(percents, p.Percent())
	})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	calls := ext.fetchCalls()
	if len(calls) != 1 || calls[0].FormatID != "22" || calls[0].URL != "https://example.com/a" {
		t.Fatalf("fetch calls = %+v", calls)
	}
	if len(percents) != 2 || percents[0] != 10 || percents[1] != 55 {
		t.Errorf("progress = %v, want [10 55]", percents)
	}
	if file.Name != "Some Video.mp4" || file.Ext != "mp4" || file.MIME != "video/mp4" || !file.Video {
		t.Errorf("unexpected file: %+v", file)
	}
	if got := vs.Session("s1"); got.Stage != models.StageReady || got.DeliveryToken != file.Token || got.Percent != 100 {
		t.Errorf("session after fetch = %+v", got)
	}

	var delivered []byte
	err = vs.Deliver(file.Token, func(f *models.DownloadedFile) error {
		delivered, err = os.ReadFile(f.Path)
		return err
	})
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	if string(delivered) != "video-bytes" {
		t.Errorf("delivered %q", delivered)
	}
	if _, err := os.Stat(file.Path); !os.IsNotExist(err) {
		t.Errorf("file still on disk after delivery")
	}
	if _, err := os.Stat(file.Dir); !os.IsNotExist(err) {
		t.Errorf("work dir still on disk after delivery")
	}
	if got := vs.Session("s1"); got.Stage != models.StageDelivered {
		t.Errorf("stage = %s, want delivered", got.Stage)
	}

	if err := vs.Deliver(file.Token, func(*models.DownloadedFile) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Deliver() error = %v, want ErrNotFound", err)
	}
}

func TestDeliverRemovesFileWhenSendFails(t *testing.T) {
	ext := &fakeExtractor{meta: sampleMetadata()}
	vs := newTestService(t, ext)

	session, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	file, err := vs.Select(context.Background(), "s1", keyFor(t, session, "18"), nil)
	if err != nil {
		t.Fatal(err)
	}

	sendErr := errors.New("client went away")
	if err := vs.Deliver(file.Token, func(*models.DownloadedFile) error { return sendErr }); !errors.Is(err, sendErr) {
		t.Fatalf("Deliver() error = %v", err)
	}
	if _, err := os.Stat(file.Path); !os.IsNotExist(err) {
		t.Error("file must be removed even when delivery fails")
	}

	got := vs.Session("s1")
	if got.Stage != models.StageFailed || got.Notice.Level != models.NoticeError || got.DeliveryToken != "" {
		t.Errorf("session after failed delivery = %+v", got)
	}

	if _, err := vs.Select(context.Background(), "s1", keyFor(t, session, "18"), nil); err != nil {
		t.Errorf("Select() after failed delivery error = %v", err)
	}
}

func TestSelectAgainWithoutDeliver(t *testing.T) {
	ext := &fakeExtractor{meta: sampleMetadata()}
	vs := newTestService(t, ext)

	session, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}

	first, err := vs.Select(context.Background(), "s1", keyFor(t, session, "22"), nil)
	if err != nil {
		t.Fatal(err)
	}

	second, err := vs.Select(context.Background(), "s1", keyFor(t, session, "18"), nil)
	if err != nil {
		t.Fatalf("Select() with an undelivered file error = %v", err)
	}

	got := vs.Session("s1")
	if got.Stage != models.StageReady || got.DeliveryToken != second.Token {
		t.Errorf("session = %+v, want ready with the latest token", got)
	}

	// the older file can still be fetched but no longer drives the session
	if err := vs.Deliver(first.Token, func(*models.DownloadedFile) error { return nil }); err != nil {
		t.Fatalf("Deliver(first) error = %v", err)
	}
	if got := vs.Session("s1"); got.Stage != models.StageReady {
		t.Errorf("stage = %s, want ready", got.Stage)
	}
}

func TestExpiredDeliveryFailsSession(t *testing.T) {
	ext := &fakeExtractor{meta: sampleMetadata()}
	vs := newTestServiceWithTTL(t, ext, 10*time.Millisecond)

	session, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	file, err := vs.Select(context.Background(), "s1", keyFor(t, session, "22"), nil)
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(30 * time.Millisecond)
	vs.deliveries.DeleteExpired()

	if _, err := os.Stat(file.Dir); !os.IsNotExist(err) {
		t.Error("expired file left on disk")
	}

	got := vs.Session("s1")
	if got.Stage != models.StageFailed || got.Notice.Level != models.NoticeError || got.DeliveryToken != "" {
		t.Errorf("session after expiry = %+v", got)
	}

	if err := vs.Deliver(file.Token, func(*models.DownloadedFile) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("Deliver() of expired file error = %v, want ErrNotFound", err)
	}
	if _, err := vs.Select(context.Background(), "s1", keyFor(t, session, "22"), nil); err != nil {
		t.Errorf("Select() after expiry error = %v", err)
	}
}

func TestDeliverHandsFileOutOnce(t *testing.T) {
	vs := newTestService(t, &fakeExtractor{meta: sampleMetadata()})

	session, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	file, err := vs.Select(context.Background(), "s1", keyFor(t, session, "22"), nil)
	if err != nil {
		t.Fatal(err)
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		sends    int
		notFound int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			err := vs.Deliver(file.Token, func(*models.DownloadedFile) error {
				mu.Lock()
				sends++
				mu.Unlock()
				return nil
			})

			if errors.Is(err, ErrNotFound) {
				mu.Lock()
				notFound++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if sends != 1 || notFound != 7 {
		t.Errorf("sends = %d, not found = %d, want 1 and 7", sends, notFound)
	}
}

func TestSubmitDuringFetchIgnoresLateUpdates(t *testing.T) {
	ext := &fakeExtractor{
		meta:     sampleMetadata(),
		block:    make(chan struct{}),
		progress: []models.Progress{{DownloadedBytes: 50, TotalBytes: 100}},
	}
	vs := newTestService(t, ext)

	session, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}

	key := keyFor(t, session, "22")

	done := make(chan error, 1)
	go func() {
		_, err := vs.Select(context.Background(), "s1", key, nil)
		done <- err
	}()

	deadline := time.Now().Add(5 * time.Second)
	for vs.Session("s1").Stage != models.StageFetching {
		if time.Now().After(deadline) {
			t.Fatal("fetch never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/b"); err != nil {
		t.Fatal(err)
	}

	close(ext.block)
	if err := <-done; err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	got := vs.Session("s1")
	if got.URL != "https://example.com/b" || got.Stage != models.StageCandidatesShown {
		t.Errorf("session = %+v, want the new url with candidates shown", got)
	}
	if got.Percent != 0 || got.DeliveryToken != "" {
		t.Errorf("finished fetch leaked into the new session: percent %d, token %q", got.Percent, got.DeliveryToken)
	}
}

func TestDeliverMissingFileIsFilesystemError(t *testing.T) {
	vs := newTestService(t, &fakeExtractor{meta: sampleMetadata()})

	session, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	file, err := vs.Select(context.Background(), "s1", keyFor(t, session, "18"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(file.Path); err != nil {
		t.Fatal(err)
	}

	err = vs.Deliver(file.Token, func(*models.DownloadedFile) error {
		t.Error("send must not be called")
		return nil
	})

	var fsErr *FilesystemError
	if !errors.As(err, &fsErr) {
		t.Fatalf("Deliver() error = %v, want FilesystemError", err)
	}
}

func TestRepeatedSelectionRunsIndependentFetches(t *testing.T) {
	ext := &fakeExtractor{meta: sampleMetadata()}
	vs := newTestService(t, ext)

	session, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	key := keyFor(t, session, "22")

	var tokens []string
	for i := 0; i < 2; i++ {
		file, err := vs.Select(context.Background(), "s1", key, nil)
		if err != nil {
			t.Fatalf("Select() #%d error = %v", i, err)
		}
		tokens = append(tokens, file.Token)

		if err := vs.Deliver(file.Token, func(*models.DownloadedFile) error { return nil }); err != nil {
			t.Fatalf("Deliver() #%d error = %v", i, err)
		}
		if _, err := os.Stat(file.Path); !os.IsNotExist(err) {
			t.Errorf("file #%d not removed", i)
		}
	}

	calls := ext.fetchCalls()
	if len(calls) != 2 {
		t.Fatalf("fetch invoked %d times, want 2", len(calls))
	}
	if calls[0].OutDir == calls[1].OutDir || tokens[0] == tokens[1] {
		t.Error("repeated fetches must not share output")
	}
}

func TestSelectUnknownKey(t *testing.T) {
	ext := &fakeExtractor{meta: sampleMetadata()}
	vs := newTestService(t, ext)

	if _, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a"); err != nil {
		t.Fatal(err)
	}

	if _, err := vs.Select(context.Background(), "s1", "9-nope", nil); !errors.Is(err, ErrUnknownCandidate) {
		t.Errorf("Select() error = %v, want ErrUnknownCandidate", err)
	}
	if _, err := vs.Select(context.Background(), "other", "0-abc", nil); !errors.Is(err, ErrUnknownCandidate) {
		t.Errorf("Select() for other session error = %v, want ErrUnknownCandidate", err)
	}
	if len(ext.fetchCalls()) != 0 {
		t.Error("fetch must not be invoked")
	}
}

func TestSelectRejectsConcurrentFetch(t *testing.T) {
	ext := &fakeExtractor{meta: sampleMetadata(), block: make(chan struct{})}
	vs := newTestService(t, ext)

	session, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	key := keyFor(t, session, "22")

	done := make(chan error, 1)
	go func() {
		_, err := vs.Select(context.Background(), "s1", key, nil)
		done <- err
	}()

	deadline := time.Now().Add(5 * time.Second)
	for vs.Session("s1").Stage != models.StageFetching {
		if time.Now().After(deadline) {
			t.Fatal("first fetch never started")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := vs.Select(context.Background(), "s1", key, nil); !errors.Is(err, ErrFetchInProgress) {
		t.Errorf("second Select() error = %v, want ErrFetchInProgress", err)
	}

	close(ext.block)
	if err := <-done; err != nil {
		t.Fatalf("first Select() error = %v", err)
	}
}

func TestSelectFailureCleansUp(t *testing.T) {
	ext := &fakeExtractor{meta: sampleMetadata(), fetchErr: errors.New("HTTP Error 403: Forbidden")}
	vs := newTestService(t, ext)

	session, err := vs.SubmitURL(context.Background(), "s1", "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}

	_, err = vs.Select(context.Background(), "s1", keyFor(t, session, "22"), nil)

	var extErr *ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("Select() error = %v, want ExtractionError", err)
	}

	calls := ext.fetchCalls()
	if _, statErr := os.Stat(calls[0].OutDir); !os.IsNotExist(statErr) {
		t.Error("work dir left behind after failed fetch")
	}

	got := vs.Session("s1")
	if got.Stage != models.StageFailed || got.Notice.Level != models.NoticeError {
		t.Errorf("session = %+v", got)
	}
	if len(got.Candidates) != 3 {
		t.Errorf("candidates = %d, want them kept for another try", len(got.Candidates))
	}
}

func TestGrid(t *testing.T) {
	candidates := func(n int) []models.Candidate {
		var fs []models.Format
		for i := 0; i < n; i++ {
			fs = append(fs, models.Format{ID: string(rune('a' + i)), Audio: true})
		}
		return BuildCandidates(fs)
	}

	tests := []struct {
		n     int
		sizes []int
	}{
		{0, nil},
		{3, []int{3}},
		{4, []int{4}},
		{9, []int{4, 4, 1}},
	}

	for _, tt := range tests {
		rows := Grid(candidates(tt.n), GridColumns)
		if len(rows) != len(tt.sizes) {
			t.Errorf("n=%d: rows = %d, want %d", tt.n, len(rows), len(tt.sizes))
			continue
		}
		for i, row := range rows {
			if len(row) != tt.sizes[i] {
				t.Errorf("n=%d: row %d has %d entries, want %d", tt.n, i, len(row), tt.sizes[i])
			}
		}
	}
}

func TestLabel(t *testing.T) {
	fps := 60.0
	tests := []struct {
		name string
		f    models.Format
		want string
	}{
		{"audio only", models.Format{Quality: "medium", Ext: "m4a"}, "medium (m4a)"},
		{"video", models.Format{Quality: "720p", Ext: "mp4", Width: intPtr(1280), Height: intPtr(720)}, "720p 1280x720 (mp4)"},
		{"high fps", models.Format{Quality: "1080p60", Ext: "mp4", Width: intPtr(1920), Height: intPtr(1080), FPS: &fps}, "1080p60 1920x1080 60fps (mp4)"},
		{"with size", models.Format{Quality: "360p", Ext: "mp4", Size: 2_000_000}, "360p (mp4) 2.0 MB"},
		{"quality is resolution", models.Format{Quality: "640x360", Width: intPtr(640), Height: intPtr(360)}, "640x360"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Label(tt.f); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMIMEType(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{"mp4", "video/mp4"},
		{".MP4", "video/mp4"},
		{"", "application/octet-stream"},
		{"no-such-ext", "application/octet-stream"},
	}

	for _, tt := range tests {
		if got := MIMEType(tt.ext); got != tt.want {
			t.Errorf("MIMEType(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrEmptyURL, "please enter a valid video url"},
		{&ExtractionError{Op: "probe", Err: errors.New("boom")}, "failed to process video: boom"},
		{&FilesystemError{Path: "/x", Err: errors.New("gone")}, "failed to deliver file: gone"},
		{errors.Wrap(ErrFetchInProgress, "select"), "select: a download is already in progress"},
	}

	for _, tt := range tests {
		if got := UserMessage(tt.err); got != tt.want {
			t.Errorf("UserMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
