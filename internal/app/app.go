package app

import (
	"context"

	"github.com/far4599/ytgrab/internal/app/bot"
	"github.com/far4599/ytgrab/internal/app/web"
	"github.com/far4599/ytgrab/internal/config"
	"github.com/far4599/ytgrab/internal/models"
	"github.com/far4599/ytgrab/internal/pkg/log"
	"github.com/far4599/ytgrab/internal/repository"
	"github.com/far4599/ytgrab/internal/service"
	"golang.org/x/sync/errgroup"
)

type App struct {
	conf *config.Config
}

func NewApp(conf *config.Config) *App {
	return &App{
		conf: conf,
	}
}

// Run serves the web front end, and the telegram bot when a token is set,
// until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	sessions, err := repository.NewSessionRepository(app.conf.Session.Capacity)
	if err != nil {
		return err
	}

	deliveries := repository.NewDeliveryRepository(app.conf.Downloads.TTL)
	defer deliveries.Flush()

	vs, err := service.NewVideoService(app.newExtractor(), app.conf.Downloads.Dir, sessions, deliveries)
	if err != nil {
		return err
	}

	server, err := web.NewServer(app.conf, vs)
	if err != nil {
		return err
	}

	errGroup, errCtx := errgroup.WithContext(ctx)

	errGroup.Go(func() error {
		return server.Run(errCtx)
	})

	if app.conf.BotEnabled() {
		errGroup.Go(func() error {
			return bot.NewApp(app.conf, vs).Run(errCtx)
		})
	} else {
		log.Logger.Info("telegram token is not set, bot disabled")
	}

	return errGroup.Wait()
}

// Probe lists the downloadable candidates of url without starting any front end.
func (app *App) Probe(ctx context.Context, url string) (*models.Metadata, []models.Candidate, error) {
	meta, err := app.newExtractor().Probe(ctx, url)
	if err != nil {
		return nil, nil, &service.ExtractionError{Op: "probe", URL: url, Err: err}
	}

	return meta, service.BuildCandidates(meta.Formats), nil
}

func (app *App) newExtractor() service.Extractor {
	return service.NewYtDlp(app.conf.Extractor.Binary, app.conf.Extractor.CacheDir)
}
