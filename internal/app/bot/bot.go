package bot

import (
	"context"

	"github.com/far4599/ytgrab/internal/config"
	"github.com/far4599/ytgrab/internal/pkg/log"
	"github.com/far4599/ytgrab/internal/pkg/telegram"
	"github.com/far4599/ytgrab/internal/service"
	"golang.org/x/sync/errgroup"
	"gopkg.in/tucnak/telebot.v3"
)

type Bot struct {
	conf *config.Config

	vs *service.VideoService
}

func NewApp(conf *config.Config, vs *service.VideoService) *Bot {
	return &Bot{
		conf: conf,
		vs:   vs,
	}
}

// Run polls telegram until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	bot, err := telegram.NewBotClient(b.conf.Telegram.Bot.Token)
	if err != nil {
		return err
	}

	errGroup, errCtx := errgroup.WithContext(ctx)

	var userbot *telegram.UserBotClient
	if b.conf.UserbotEnabled() {
		userbot = telegram.NewUserBotClient(b.conf)
		errGroup.Go(func() error {
			return userbot.Run(errCtx)
		})
	}

	b.setMessageHandlers(bot, service.NewMessageHandler(errCtx, b.conf, b.vs, userbot))

	errGroup.Go(func() error {
		log.Logger.Info("telegram bot started")
		bot.Run(errCtx)

		return nil
	})

	return errGroup.Wait()
}

func (b *Bot) setMessageHandlers(botClient *telegram.BotClient, tmh *service.TelegramMessageHandler) {
	botClient.Handle("/start", tmh.OnStart())
	botClient.Handle(telebot.OnText, tmh.OnNewMessage())
	botClient.Handle(telebot.OnCallback, tmh.OnCallback())
}
