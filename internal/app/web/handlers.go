package web

import (
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/far4599/ytgrab/internal/models"
	"github.com/far4599/ytgrab/internal/pkg/log"
	"github.com/far4599/ytgrab/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type pageData struct {
	Session models.Session
	Rows    [][]models.Candidate
	Columns int
}

type sessionResponse struct {
	models.Session
	Rows [][]models.Candidate `json:"rows"`
}

func newSessionResponse(s models.Session) sessionResponse {
	return sessionResponse{
		Session: s,
		Rows:    service.Grid(s.Candidates, service.GridColumns),
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	session := s.vs.Session(sessionID(c))

	c.HTML(http.StatusOK, "index.html", pageData{
		Session: session,
		Rows:    service.Grid(session.Candidates, service.GridColumns),
		Columns: service.GridColumns,
	})
}

// handleSubmit is the form post from the page. The outcome, including any
// error, is stored as the session notice and shown after the redirect.
func (s *Server) handleSubmit(c *gin.Context) {
	if _, err := s.vs.SubmitURL(c.Request.Context(), sessionID(c), c.PostForm("url")); err != nil {
		log.Logger.Debugw("submit failed", "session", sessionID(c), "error", err)
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleProbe(c *gin.Context) {
	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	session, err := s.vs.SubmitURL(c.Request.Context(), sessionID(c), req.URL)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": service.UserMessage(err), "session": newSessionResponse(session)})
		return
	}

	c.JSON(http.StatusOK, newSessionResponse(session))
}

func (s *Server) handleSession(c *gin.Context) {
	c.JSON(http.StatusOK, newSessionResponse(s.vs.Session(sessionID(c))))
}

// handleSelect blocks until the download finishes. Progress is pushed to the
// session websocket meanwhile.
func (s *Server) handleSelect(c *gin.Context) {
	sid := sessionID(c)

	file, err := s.vs.Select(c.Request.Context(), sid, c.Param("key"), func(p models.Progress) {
		s.hub.Publish(sid, newProgressEvent(p))
	})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": service.UserMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"download_url": "/files/" + url.PathEscape(file.Token),
		"name":         file.Name,
		"size":         file.Size,
		"mime":         file.MIME,
	})
}

// handleFile streams a downloaded file once. The file is gone afterwards.
func (s *Server) handleFile(c *gin.Context) {
	err := s.vs.Deliver(c.Param("token"), func(file *models.DownloadedFile) error {
		f, err := os.Open(file.Path)
		if err != nil {
			return &service.FilesystemError{Path: file.Path, Err: err}
		}
		defer f.Close()

		c.DataFromReader(http.StatusOK, file.Size, file.MIME, f, map[string]string{
			"Content-Disposition": contentDisposition(file.Name),
		})

		return nil
	})
	if err != nil {
		log.Logger.Errorw("file delivery failed", "session", sessionID(c), "error", err)
		if !c.Writer.Written() {
			c.JSON(statusFor(err), gin.H{"error": service.UserMessage(err)})
		}
	}
}

func (s *Server) handleWS(c *gin.Context) {
	sid := sessionID(c)

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Logger.Debugw("websocket upgrade failed", "error", err)
		return
	}

	s.hub.Register(sid, conn)
	defer s.hub.Unregister(sid, conn)

	// the client never sends anything, reading only detects the close
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func statusFor(err error) int {
	var (
		inputErr service.InputError
		extErr   *service.ExtractionError
		fsErr    *service.FilesystemError
	)

	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrUnknownCandidate):
		return http.StatusNotFound
	case errors.Is(err, service.ErrFetchInProgress):
		return http.StatusConflict
	case errors.As(err, &extErr):
		return http.StatusBadGateway
	case errors.As(err, &fsErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func contentDisposition(name string) string {
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", asciiName(name), url.PathEscape(name))
}

func asciiName(name string) string {
	b := []byte(name)
	for i, ch := range b {
		if ch < 0x20 || ch > 0x7e || ch == '"' || ch == '\\' {
			b[i] = '_'
		}
	}

	return string(b)
}
