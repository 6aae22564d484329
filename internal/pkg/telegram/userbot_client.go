package telegram

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/far4599/ytgrab/internal/config"
	"github.com/far4599/ytgrab/internal/models"
	"github.com/far4599/ytgrab/internal/pkg/log"
	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/styling"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
	"github.com/pkg/errors"
)

const (
	connectAttempts = 5
	connectDelay    = 3 * time.Second
)

// UserBotClient uploads files over MTProto, which lifts the bot API size limit.
type UserBotClient struct {
	conf *config.Config

	client    *telegram.Client
	ready     chan struct{}
	readyOnce sync.Once
}

func NewUserBotClient(conf *config.Config) *UserBotClient {
	opts := telegram.Options{
		Logger:    log.Logger.Desugar(),
		NoUpdates: true,
		SessionStorage: &session.FileStorage{
			Path: filepath.Join(conf.Telegram.App.SessionDir, "session.json"),
		},
	}

	return &UserBotClient{
		conf:   conf,
		client: telegram.NewClient(conf.Telegram.App.ID, conf.Telegram.App.Hash, opts),
		ready:  make(chan struct{}),
	}
}

// Run keeps the connection open until ctx is cancelled. Failed connection
// attempts are retried a few times before giving up.
func (c *UserBotClient) Run(ctx context.Context) error {
	sessionDir := c.conf.Telegram.App.SessionDir
	if err := os.MkdirAll(sessionDir, 0700); err != nil {
		return errors.Wrapf(err, "failed to create sessions dir '%s'", sessionDir)
	}

	err := retry.Do(
		func() error {
			return c.connect(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(connectAttempts),
		retry.Delay(connectDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Logger.Warnw("userbot connection failed", "attempt", n+1, "error", err)
		}),
	)
	if ctx.Err() != nil {
		return nil
	}

	return err
}

func (c *UserBotClient) connect(ctx context.Context) error {
	return c.client.Run(ctx, func(ctx context.Context) error {
		status, err := c.client.Auth().Status(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to get auth status")
		}

		if !status.Authorized {
			if _, err := c.client.Auth().Bot(ctx, c.conf.Telegram.Bot.Token); err != nil {
				return errors.Wrap(err, "failed to login as userbot")
			}
		}

		log.Logger.Info("userbot connected")
		c.readyOnce.Do(func() {
			close(c.ready)
		})

		<-ctx.Done()
		return ctx.Err()
	})
}

func (c *UserBotClient) UploadFile(ctx context.Context, to tg.InputPeerClass, file *models.DownloadedFile, title string, progress uploader.Progress) error {
	select {
	case <-c.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	api := tg.NewClient(c.client)
	u := uploader.NewUploader(api)
	if progress != nil {
		u = u.WithProgress(progress)
	}
	s := message.NewSender(api).WithUploader(u)

	f, err := u.FromPath(ctx, file.Path)
	if err != nil {
		return errors.Wrapf(err, "failed to upload '%s'", file.Path)
	}

	target := s.To(to)
	if target == nil {
		return nil
	}

	if len(title) == 0 {
		title = strings.TrimSuffix(file.Name, filepath.Ext(file.Name))
	}

	var md message.MediaOption
	if file.Video {
		md = message.Video(f, styling.Plain(title))
	} else {
		md = message.Audio(f).Title(title).Performer(title)
	}

	_, err = target.Media(ctx, md)

	return err
}
