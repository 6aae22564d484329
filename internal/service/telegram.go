package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/far4599/ytgrab/internal/config"
	"github.com/far4599/ytgrab/internal/models"
	"github.com/far4599/ytgrab/internal/pkg/log"
	"github.com/far4599/ytgrab/internal/pkg/telegram"
	"github.com/gotd/td/tg"
	"golang.org/x/time/rate"
	"gopkg.in/tucnak/telebot.v3"
)

const (
	videoEmoji = "🎥"
	audioEmoji = "🎧"

	// telegram rejects frequent edits of the same message
	statusEditInterval = 2 * time.Second
)

type TelegramMessageHandler struct {
	ctx  context.Context
	conf *config.Config

	vs      *VideoService
	userbot *telegram.UserBotClient
}

// NewMessageHandler returns telegram handlers driving vs. Downloads are
// uploaded through userbot when it is not nil, through the bot API otherwise.
func NewMessageHandler(ctx context.Context, conf *config.Config, vs *VideoService, userbot *telegram.UserBotClient) *TelegramMessageHandler {
	return &TelegramMessageHandler{
		ctx:     ctx,
		conf:    conf,
		vs:      vs,
		userbot: userbot,
	}
}

func (h *TelegramMessageHandler) OnStart() telebot.HandlerFunc {
	return func(m telebot.Context) error {
		return m.Send("Send me a video link and pick one of the formats that have sound.")
	}
}

func (h *TelegramMessageHandler) OnNewMessage() telebot.HandlerFunc {
	return func(m telebot.Context) (err error) {
		tmpMsg, err := m.Bot().Send(m.Sender(), "gathering info")
		if err != nil {
			return err
		}
		defer func() {
			if err != nil {
				log.Logger.Errorw("failed to list formats", "user", m.Sender().ID, "error", err)
				defer m.Bot().Send(m.Sender(), "error: "+UserMessage(err))
			}

			m.Bot().Delete(tmpMsg)
		}()

		m.Notify(telebot.Typing)

		session, err := h.vs.SubmitURL(h.ctx, telegramSessionID(m.Sender().ID), m.Text())
		if err != nil {
			return err
		}

		msg, opts := createVideoInfoMessage(session)
		_, err = m.Bot().Send(m.Sender(), msg, opts...)

		return err
	}
}

func (h *TelegramMessageHandler) OnCallback() telebot.HandlerFunc {
	return func(m telebot.Context) (err error) {
		defer func() {
			if err != nil {
				log.Logger.Errorw("failed to deliver format", "user", m.Sender().ID, "error", err)
				m.Bot().Send(m.Sender(), "error: "+UserMessage(err))
			}
		}()

		defer m.Respond()

		sid := telegramSessionID(m.Sender().ID)
		key := strings.TrimSpace(m.Callback().Data)

		status, err := m.Bot().Send(m.Sender(), "downloading: 0%")
		if err != nil {
			return err
		}
		defer m.Bot().Delete(status)

		reporter := newStatusReporter(m.Bot(), status)

		file, err := h.vs.Select(h.ctx, sid, key, func(p models.Progress) {
			reporter.report("downloading", p.Percent())
		})
		if err != nil {
			return err
		}

		title := h.vs.Session(sid).Title

		return h.vs.Deliver(file.Token, func(f *models.DownloadedFile) error {
			if h.userbot != nil {
				return h.uploadWithUserbot(m, reporter, f, title)
			}

			_, err := m.Bot().Send(m.Sender(), &telebot.Document{
				File:     telebot.FromDisk(f.Path),
				FileName: f.Name,
				MIME:     f.MIME,
				Caption:  title,
			})

			return err
		})
	}
}

func (h *TelegramMessageHandler) uploadWithUserbot(m telebot.Context, reporter *statusReporter, f *models.DownloadedFile, title string) error {
	progress := telegram.NewUploaderProgress()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for p := range progress.ProgressChan() {
			reporter.report("uploading", int(p))
		}
	}()

	err := h.userbot.UploadFile(h.ctx, &tg.InputPeerUser{UserID: m.Sender().ID}, f, title, progress)
	progress.Close()
	wg.Wait()

	return err
}

// statusReporter edits a single status message, at most once per
// statusEditInterval unless the value reached 100.
type statusReporter struct {
	bot     *telebot.Bot
	msg     telebot.Editable
	limiter *rate.Limiter

	mu   sync.Mutex
	last string
}

func newStatusReporter(bot *telebot.Bot, msg telebot.Editable) *statusReporter {
	return &statusReporter{
		bot:     bot,
		msg:     msg,
		limiter: rate.NewLimiter(rate.Every(statusEditInterval), 1),
	}
}

func (r *statusReporter) report(stage string, percent int) {
	text := fmt.Sprintf("%s: %d%%", stage, percent)

	r.mu.Lock()
	defer r.mu.Unlock()

	if text == r.last || (percent < 100 && !r.limiter.Allow()) {
		return
	}
	r.last = text

	if _, err := r.bot.Edit(r.msg, text); err != nil {
		log.Logger.Debugw("failed to edit status message", "error", err)
	}
}

func telegramSessionID(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}

func createVideoInfoMessage(session models.Session) (msg any, options []any) {
	if len(session.Candidates) == 0 {
		return session.Title + "\n" + session.Notice.Text, nil
	}

	inlineMenu := &telebot.ReplyMarkup{}

	grid := Grid(session.Candidates, GridColumns)
	rows := make([]telebot.Row, 0, len(grid))
	for _, line := range grid {
		btns := make([]telebot.Btn, 0, len(line))
		for _, c := range line {
			emoji := audioEmoji
			if c.Format.Video() {
				emoji = videoEmoji
			}

			btns = append(btns, inlineMenu.Data(emoji+" "+c.Label, c.Key))
		}
		rows = append(rows, inlineMenu.Row(btns...))
	}

	inlineMenu.Inline(rows...)

	return session.Title, []any{inlineMenu}
}
