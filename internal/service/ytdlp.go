package service

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/far4599/ytgrab/internal/models"
	"github.com/far4599/ytgrab/internal/pkg/log"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

const (
	progressPrefix   = "[progress]"
	progressTemplate = "download:" + progressPrefix +
		" %(progress.downloaded_bytes)s %(progress.total_bytes)s %(progress.total_bytes_estimate)s"

	maxLineSize = 64 << 20
)

// Extractor is the black box that knows how to talk to video sites.
type Extractor interface {
	Probe(ctx context.Context, url string) (*models.Metadata, error)
	Fetch(ctx context.Context, url, formatID, outDir string, onProgress func(models.Progress)) (string, error)
}

// YtDlp runs the yt-dlp binary.
type YtDlp struct {
	binary   string
	cacheDir string
}

func NewYtDlp(binary, cacheDir string) *YtDlp {
	if len(binary) == 0 {
		binary = "yt-dlp"
	}

	return &YtDlp{
		binary:   binary,
		cacheDir: cacheDir,
	}
}

func (y *YtDlp) Probe(ctx context.Context, url string) (*models.Metadata, error) {
	var out bytes.Buffer
	err := y.run(ctx, url, func(line string, stdout bool) {
		if stdout {
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}, "-J", "--skip-download", "--no-playlist")
	if err != nil {
		return nil, err
	}

	return parseMetadata(out.Bytes())
}

func (y *YtDlp) Fetch(ctx context.Context, url, formatID, outDir string, onProgress func(models.Progress)) (string, error) {
	args := []string{
		"-f", formatID,
		"-P", outDir,
		"-o", "%(title)s.%(ext)s",
		"--no-playlist",
		"--force-overwrites",
		"--newline",
		"--progress",
		"--progress-template", progressTemplate,
		"--print", "after_move:filepath",
	}

	var localPath string
	err := y.run(ctx, url, func(line string, stdout bool) {
		if p, ok := parseProgress(line); ok {
			if onProgress != nil {
				onProgress(p)
			}
			return
		}

		if stdout && len(strings.TrimSpace(line)) > 0 {
			localPath = strings.TrimSpace(line)
		}
	}, args...)
	if err != nil {
		return "", err
	}

	if len(localPath) == 0 {
		return "", errors.New("yt-dlp did not report the downloaded file")
	}

	return localPath, nil
}

// run feeds every output line to handle. Calls to handle are serialized.
func (y *YtDlp) run(ctx context.Context, url string, handle func(line string, stdout bool), args ...string) error {
	defaultArgs := []string{
		"--ignore-config",
		// provide URL via stdin for security, yt-dlp has some run command args
		"--batch-file", "-",
	}
	if len(y.cacheDir) > 0 {
		defaultArgs = append(defaultArgs, "--cache-dir", y.cacheDir)
	}

	cmd := exec.CommandContext(ctx, y.binary, append(defaultArgs, args...)...)
	cmd.Stdin = bytes.NewBufferString(url + "\n")

	out, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	errOut, err := cmd.StderrPipe()
	if err != nil {
		return err
	}

	if err = cmd.Start(); err != nil {
		return errors.Wrapf(err, "failed to start '%s'", y.binary)
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		errMsg []string
	)

	scan := func(r io.Reader, stdout bool) {
		defer wg.Done()

		const errorPrefix = "ERROR: "
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64<<10), maxLineSize)
		for scanner.Scan() {
			line := scanner.Text()

			mu.Lock()
			if !stdout && strings.HasPrefix(line, errorPrefix) {
				log.Logger.Errorw("yt-dlp returned error", "error", line[len(errorPrefix):])
				errMsg = append(errMsg, line[len(errorPrefix):])
			}
			handle(line, stdout)
			mu.Unlock()
		}
	}

	wg.Add(2)
	go scan(out, true)
	go scan(errOut, false)
	wg.Wait()

	if err = cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(errMsg) > 0 {
			return errors.New(strings.Join(errMsg, "; "))
		}
		return errors.Wrap(err, "yt-dlp exited with error")
	}

	return nil
}

func parseMetadata(b []byte) (*models.Metadata, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, errors.New("failed to get video info")
	}

	v, err := new(fastjson.Parser).ParseBytes(b)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode video info")
	}

	items := v.GetArray("formats")
	if len(items) == 0 && v.Exists("format_id") {
		// some extractors expose exactly one format at the top level
		items = []*fastjson.Value{v}
	}
	if len(items) == 0 {
		return nil, ErrNoFormats
	}

	result := &models.Metadata{
		Title:   string(v.GetStringBytes("title")),
		Formats: make([]models.Format, 0, len(items)),
	}
	for _, item := range items {
		result.Formats = append(result.Formats, parseFormat(item))
	}

	return result, nil
}

func parseFormat(v *fastjson.Value) models.Format {
	f := models.Format{
		ID:      string(v.GetStringBytes("format_id")),
		Width:   optInt(v, "width"),
		Height:  optInt(v, "height"),
		FPS:     optFloat(v, "fps"),
		Bitrate: optFloat(v, "tbr"),
		Ext:     string(v.GetStringBytes("ext")),
		VCodec:  string(v.GetStringBytes("vcodec")),
		ACodec:  string(v.GetStringBytes("acodec")),
		Size:    getFilesize(v),
		Audio:   hasAudio(v),
	}
	f.Quality = qualityLabel(v, f)

	return f
}

func hasAudio(v *fastjson.Value) bool {
	if acodec := v.GetStringBytes("acodec"); acodec != nil {
		s := string(acodec)
		return len(s) > 0 && s != "none"
	}

	return v.GetFloat64("asr") > 0 || v.GetFloat64("audio_channels") > 0
}

func qualityLabel(v *fastjson.Value, f models.Format) string {
	if note := string(v.GetStringBytes("format_note")); len(note) > 0 {
		return note
	}
	if res := string(v.GetStringBytes("resolution")); len(res) > 0 {
		return res
	}
	if f.Height != nil && *f.Height > 0 {
		return strconv.Itoa(*f.Height) + "p"
	}

	return f.ID
}

func getFilesize(v *fastjson.Value) int64 {
	if size := v.GetInt64("filesize"); size > 0 {
		return size
	}

	return int64(v.GetFloat64("filesize_approx"))
}

func optInt(v *fastjson.Value, key string) *int {
	x := v.Get(key)
	if x == nil || x.Type() != fastjson.TypeNumber {
		return nil
	}

	f, err := x.Float64()
	if err != nil {
		return nil
	}
	n := int(f)

	return &n
}

func optFloat(v *fastjson.Value, key string) *float64 {
	x := v.Get(key)
	if x == nil || x.Type() != fastjson.TypeNumber {
		return nil
	}

	f, err := x.Float64()
	if err != nil {
		return nil
	}

	return &f
}

// parseProgress reads a line printed with progressTemplate. Missing values are
// reported by yt-dlp as NA.
func parseProgress(line string) (models.Progress, bool) {
	idx := strings.Index(line, progressPrefix)
	if idx < 0 {
		return models.Progress{}, false
	}

	fields := strings.Fields(line[idx+len(progressPrefix):])
	if len(fields) == 0 {
		return models.Progress{}, false
	}

	num := func(i int) int64 {
		if i >= len(fields) {
			return 0
		}
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return 0
		}
		return int64(f)
	}

	p := models.Progress{
		DownloadedBytes: num(0),
		TotalBytes:      num(1),
	}
	if p.TotalBytes <= 0 {
		p.TotalBytes = num(2)
	}

	return p, true
}
