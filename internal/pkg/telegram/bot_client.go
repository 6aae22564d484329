package telegram

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/tucnak/telebot.v3"
)

const pollTimeout = 10 * time.Second

// BotClient talks to the bot API through long polling.
type BotClient struct {
	bot *telebot.Bot
}

func NewBotClient(token string) (*BotClient, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: pollTimeout},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create telegram bot")
	}

	return &BotClient{
		bot: bot,
	}, nil
}

func (c *BotClient) Handle(endpoint interface{}, h telebot.HandlerFunc) {
	c.bot.Handle(endpoint, h)
}

// Run polls for updates until ctx is cancelled.
func (c *BotClient) Run(ctx context.Context) {
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		c.bot.Start()
	}()

	select {
	case <-ctx.Done():
		c.bot.Stop()
		<-stopped
	case <-stopped:
	}
}
