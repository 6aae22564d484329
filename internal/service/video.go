package service

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/far4599/ytgrab/internal/models"
	"github.com/far4599/ytgrab/internal/pkg/hash"
	"github.com/far4599/ytgrab/internal/pkg/log"
	"github.com/far4599/ytgrab/internal/repository"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// GridColumns is the number of format buttons per row.
const GridColumns = 4

// VideoService turns user actions into extractor calls and keeps the session
// state the front ends render.
type VideoService struct {
	extractor  Extractor
	outputDir  string
	sessions   *repository.SessionRepository
	deliveries *repository.DeliveryRepository
}

func NewVideoService(extractor Extractor, outputDir string, sessions *repository.SessionRepository, deliveries *repository.DeliveryRepository) (*VideoService, error) {
	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve output dir '%s'", outputDir)
	}

	s := &VideoService{
		extractor:  extractor,
		outputDir:  absDir,
		sessions:   sessions,
		deliveries: deliveries,
	}
	deliveries.OnDiscard(func(file *models.DownloadedFile) {
		s.deliveryFailed(file, "the download expired, please select the format again")
	})

	return s, nil
}

// Session returns a snapshot of the session for rendering.
func (s *VideoService) Session(sessionID string) models.Session {
	return s.sessions.Get(sessionID)
}

// SubmitURL probes url and replaces the session candidates with the formats
// that carry audio.
func (s *VideoService) SubmitURL(ctx context.Context, sessionID, url string) (models.Session, error) {
	url = strings.TrimSpace(url)
	if len(url) == 0 {
		session := s.sessions.Update(sessionID, func(ss *models.Session) {
			ss.Notice = models.Notice{Level: models.NoticeWarning, Text: ErrEmptyURL.Error()}
		})
		return session, ErrEmptyURL
	}

	s.sessions.Update(sessionID, func(ss *models.Session) {
		ss.URL = url
		ss.Title = ""
		ss.Stage = models.StageProbing
		ss.Candidates = nil
		ss.Notice = models.Notice{}
		ss.Percent = 0
		ss.DeliveryToken = ""
		ss.FetchToken = ""
	})

	log.Logger.Infow("probing video", "session", sessionID, "url", url)

	meta, err := s.extractor.Probe(ctx, url)
	if err != nil {
		err = &ExtractionError{Op: "probe", URL: url, Err: err}
		log.Logger.Errorw("probe failed", "session", sessionID, "url", url, "error", err)

		session := s.sessions.Update(sessionID, func(ss *models.Session) {
			ss.Stage = models.StageFailed
			ss.Candidates = nil
			ss.Notice = models.Notice{Level: models.NoticeError, Text: UserMessage(err)}
		})
		return session, err
	}

	candidates := BuildCandidates(meta.Formats)

	session := s.sessions.Update(sessionID, func(ss *models.Session) {
		ss.Title = meta.Title
		ss.Stage = models.StageCandidatesShown
		ss.Candidates = candidates
		if len(candidates) == 0 {
			ss.Notice = models.Notice{Level: models.NoticeInfo, Text: "no formats with audio available"}
		}
	})

	log.Logger.Infow("probe finished", "session", sessionID, "title", meta.Title,
		"formats", len(meta.Formats), "candidates", len(candidates))

	return session, nil
}

// Select downloads the candidate identified by key. The returned file stays on
// disk until Deliver is called or its delivery entry expires.
func (s *VideoService) Select(ctx context.Context, sessionID, key string, onProgress func(models.Progress)) (*models.DownloadedFile, error) {
	var (
		candidate models.Candidate
		found     bool
		busy      bool
	)

	token := uuid.New().String()

	session := s.sessions.Update(sessionID, func(ss *models.Session) {
		if ss.Stage == models.StageFetching {
			busy = true
			return
		}

		for _, c := range ss.Candidates {
			if c.Key == key {
				candidate, found = c, true
				break
			}
		}
		if !found {
			return
		}

		ss.Stage = models.StageFetching
		ss.Percent = 0
		ss.Notice = models.Notice{}
		ss.DeliveryToken = ""
		ss.FetchToken = token
	})

	if busy {
		return nil, ErrFetchInProgress
	}
	if !found {
		return nil, ErrUnknownCandidate
	}

	// current applies fn only while this fetch still owns the session.
	current := func(fn func(ss *models.Session)) {
		s.sessions.Update(sessionID, func(ss *models.Session) {
			if ss.FetchToken == token {
				fn(ss)
			}
		})
	}

	workDir := filepath.Join(s.outputDir, token)

	file, err := s.fetch(ctx, session, candidate, token, workDir, func(p models.Progress) {
		percent := p.Percent()
		current(func(ss *models.Session) {
			ss.Percent = percent
		})

		if onProgress != nil {
			onProgress(p)
		}
	})
	if err != nil {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			log.Logger.Errorw("failed to clean up work dir", "path", workDir, "error", rmErr)
		}

		current(func(ss *models.Session) {
			ss.Stage = models.StageFailed
			ss.FetchToken = ""
			ss.Notice = models.Notice{Level: models.NoticeError, Text: UserMessage(err)}
		})
		return nil, err
	}

	s.deliveries.Add(file)
	current(func(ss *models.Session) {
		ss.Stage = models.StageReady
		ss.Percent = 100
		ss.FetchToken = ""
		ss.DeliveryToken = file.Token
	})

	return file, nil
}

func (s *VideoService) fetch(ctx context.Context, session models.Session, c models.Candidate, token, workDir string, onProgress func(models.Progress)) (*models.DownloadedFile, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, &FilesystemError{Path: workDir, Err: err}
	}

	log.Logger.Infow("fetching format", "session", session.ID, "url", session.URL, "format", c.Format.ID)

	localPath, err := s.extractor.Fetch(ctx, session.URL, c.Format.ID, workDir, onProgress)
	if err != nil {
		err = &ExtractionError{Op: "download", URL: session.URL, Err: err}
		log.Logger.Errorw("fetch failed", "session", session.ID, "format", c.Format.ID, "error", err)
		return nil, err
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return nil, &FilesystemError{Path: localPath, Err: err}
	}

	ext := strings.TrimPrefix(filepath.Ext(localPath), ".")
	if len(ext) == 0 {
		ext = c.Format.Ext
	}

	return &models.DownloadedFile{
		Token:     token,
		SessionID: session.ID,
		Path:      localPath,
		Dir:       workDir,
		Name:      filepath.Base(localPath),
		Ext:       ext,
		MIME:      MIMEType(ext),
		Size:      info.Size(),
		Video:     c.Format.Video(),
	}, nil
}

// Deliver hands the pending file to send and deletes it afterwards, whether
// send succeeded or not. A file is handed out at most once.
func (s *VideoService) Deliver(token string, send func(file *models.DownloadedFile) error) error {
	file, ok := s.deliveries.Take(token)
	if !ok {
		return ErrNotFound
	}
	defer s.deliveries.Release(file)

	if _, err := os.Stat(file.Path); err != nil {
		err = &FilesystemError{Path: file.Path, Err: err}
		s.deliveryFailed(file, UserMessage(err))
		return err
	}

	if err := send(file); err != nil {
		log.Logger.Errorw("file delivery failed", "session", file.SessionID, "name", file.Name, "error", err)
		s.deliveryFailed(file, UserMessage(err))
		return err
	}

	s.sessions.Update(file.SessionID, func(ss *models.Session) {
		if ss.DeliveryToken != token {
			return
		}
		ss.Stage = models.StageDelivered
		ss.DeliveryToken = ""
		ss.Notice = models.Notice{Level: models.NoticeInfo, Text: "download completed"}
	})

	log.Logger.Infow("file delivered", "session", file.SessionID, "name", file.Name, "size", file.Size)

	return nil
}

// deliveryFailed moves the session to failed if file is still the one it
// waits for. The candidates stay, so the user can select again.
func (s *VideoService) deliveryFailed(file *models.DownloadedFile, text string) {
	s.sessions.Update(file.SessionID, func(ss *models.Session) {
		if ss.DeliveryToken != file.Token {
			return
		}
		ss.Stage = models.StageFailed
		ss.DeliveryToken = ""
		ss.Notice = models.Notice{Level: models.NoticeError, Text: text}
	})
}

// BuildCandidates keeps the formats that carry audio, in probe order.
func BuildCandidates(formats []models.Format) []models.Candidate {
	result := make([]models.Candidate, 0, len(formats))
	for _, f := range formats {
		if !f.Audio {
			continue
		}

		result = append(result, models.Candidate{
			Key:    fmt.Sprintf("%d-%s", len(result), hash.Short(f.ID, 12)),
			Label:  Label(f),
			Format: f,
		})
	}

	return result
}

// Label renders the button caption: quality, resolution, extension and size.
func Label(f models.Format) string {
	parts := []string{f.Quality}
	if res := f.Resolution(); len(res) > 0 && res != f.Quality {
		parts = append(parts, res)
	}
	if f.FPS != nil && *f.FPS > 30 {
		parts = append(parts, fmt.Sprintf("%.0ffps", *f.FPS))
	}
	if len(f.Ext) > 0 {
		parts = append(parts, "("+f.Ext+")")
	}

	label := strings.Join(parts, " ")
	if f.Size > 0 {
		label += " " + humanize.Bytes(uint64(f.Size))
	}

	return label
}

// Grid arranges candidates into rows of at most columns entries.
func Grid(candidates []models.Candidate, columns int) [][]models.Candidate {
	if columns < 1 {
		columns = 1
	}

	rows := make([][]models.Candidate, 0, (len(candidates)+columns-1)/columns)
	for start := 0; start < len(candidates); start += columns {
		end := start + columns
		if end > len(candidates) {
			end = len(candidates)
		}
		rows = append(rows, candidates[start:end])
	}

	return rows
}

// MIMEType derives the content type from a file extension.
func MIMEType(ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if len(ext) == 0 {
		return "application/octet-stream"
	}

	if t := mime.TypeByExtension("." + ext); len(t) > 0 {
		return t
	}

	switch ext {
	case "mp4", "m4v":
		return "video/mp4"
	case "webm":
		return "video/webm"
	case "mkv":
		return "video/x-matroska"
	case "m4a":
		return "audio/mp4"
	case "mp3":
		return "audio/mpeg"
	case "opus", "ogg":
		return "audio/ogg"
	}

	return "application/octet-stream"
}
