package models

import "fmt"

type Stage int

const (
	StageIdle Stage = iota
	StageProbing
	StageCandidatesShown
	StageFetching
	StageReady
	StageDelivered
	StageFailed
)

var stageNames = [...]string{
	StageIdle:            "idle",
	StageProbing:         "probing",
	StageCandidatesShown: "candidates",
	StageFetching:        "fetching",
	StageReady:           "ready",
	StageDelivered:       "delivered",
	StageFailed:          "failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}

	return stageNames[s]
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(b []byte) error {
	for i, name := range stageNames {
		if name == string(b) {
			*s = Stage(i)
			return nil
		}
	}

	return fmt.Errorf("unknown stage %q", b)
}

type NoticeLevel string

const (
	NoticeNone    NoticeLevel = ""
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is the user visible message produced by the last interaction.
type Notice struct {
	Level NoticeLevel `json:"level,omitempty"`
	Text  string      `json:"text,omitempty"`
}

// Session is the per user state kept between renders.
type Session struct {
	ID            string      `json:"id"`
	URL           string      `json:"url,omitempty"`
	Title         string      `json:"title,omitempty"`
	Stage         Stage       `json:"stage"`
	Candidates    []Candidate `json:"candidates"`
	Notice        Notice      `json:"notice"`
	Percent       int         `json:"percent"`
	DeliveryToken string      `json:"delivery_token,omitempty"`

	// FetchToken identifies the fetch in flight. Updates from a fetch whose
	// token no longer matches are dropped.
	FetchToken string `json:"-"`
}

// Clone copies the session so callers can render it without holding locks.
func (s *Session) Clone() Session {
	c := *s
	c.Candidates = append([]Candidate(nil), s.Candidates...)

	return c
}

// Progress is a single status event emitted while fetching.
type Progress struct {
	DownloadedBytes int64 `json:"downloaded"`
	TotalBytes      int64 `json:"total"`
}

// Percent maps the event to 0..100. Unknown totals report 0.
func (p Progress) Percent() int {
	if p.TotalBytes <= 0 || p.DownloadedBytes <= 0 {
		return 0
	}
	if p.DownloadedBytes >= p.TotalBytes {
		return 100
	}

	return int(p.DownloadedBytes * 100 / p.TotalBytes)
}
