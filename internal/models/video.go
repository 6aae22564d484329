package models

import "strconv"

// Metadata is the result of a single probe. It is never merged across URLs.
type Metadata struct {
	Title   string
	Formats []Format
}

type Format struct {
	ID      string   `json:"format_id"`
	Quality string   `json:"quality"`
	Width   *int     `json:"width,omitempty"`
	Height  *int     `json:"height,omitempty"`
	FPS     *float64 `json:"fps,omitempty"`
	Bitrate *float64 `json:"bitrate,omitempty"`
	Ext     string   `json:"ext"`
	VCodec  string   `json:"vcodec,omitempty"`
	ACodec  string   `json:"acodec,omitempty"`
	Size    int64    `json:"size,omitempty"`
	Audio   bool     `json:"audio"`
}

// Video reports whether the format carries a picture.
func (f Format) Video() bool {
	if f.Height != nil && *f.Height > 0 {
		return true
	}

	return len(f.VCodec) > 0 && f.VCodec != "none"
}

// Resolution renders "WxH" or an empty string for audio only formats.
func (f Format) Resolution() string {
	if f.Width == nil || f.Height == nil {
		return ""
	}

	return strconv.Itoa(*f.Width) + "x" + strconv.Itoa(*f.Height)
}

type Candidate struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Format Format `json:"format"`
}

// DownloadedFile lives on disk only until it has been handed to the user.
type DownloadedFile struct {
	Token     string
	SessionID string
	Path      string
	Dir       string
	Name      string
	Ext       string
	MIME      string
	Size      int64
	Video     bool
}
