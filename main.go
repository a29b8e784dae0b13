package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/yonasy/telegram-house-bot/config"
	"github.com/yonasy/telegram-house-bot/internal/bot"
	"github.com/yonasy/telegram-house-bot/internal/channel"
	"github.com/yonasy/telegram-house-bot/internal/httpapi"
	"github.com/yonasy/telegram-house-bot/internal/media"
	"github.com/yonasy/telegram-house-bot/internal/moderation"
	"github.com/yonasy/telegram-house-bot/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := storage.RunMigrations(cfg.Database, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("failed to run database migrations")
	}

	store, err := storage.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer store.Close()

	sessionStore, err := storage.NewSQLiteSessionStore(cfg.Sessions.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session store")
	}
	defer sessionStore.Close()
	log.Info().Str("path", cfg.Sessions.Path).Msg("session store initialized")

	tg, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telegram bot")
	}
	tg.Debug = false
	log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")

	gateway := channel.NewGateway(tg, cfg.Telegram.ChannelUsername)
	moderator := moderation.NewService(store, gateway)

	var publisher bot.PhotoPublisher
	if cfg.Media.UploadEndpoint != "" {
		uploader := media.NewHTTPUploader(cfg.Media.UploadEndpoint, cfg.Media.PublicBaseURL)
		publisher = media.NewPublisher(tg.GetFileDirectURL, uploader)
	} else {
		log.Warn().Msg("media upload not configured, storing telegram file references")
	}

	b := bot.NewBot(tg, sessionStore, store, store, publisher, gateway, moderator)
	defer b.Shutdown()

	api := httpapi.NewServer(cfg.HTTP, cfg.Telegram.Token, store, moderator)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runBot(ctx, tg, b)
	})
	g.Go(func() error {
		return api.Run(ctx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

// runBot consumes the update long poll and fans updates out to the bot. Each
// update is handed off on its own goroutine; per-user ordering is enforced
// further down by the session workers.
func runBot(ctx context.Context, tg *tgbotapi.BotAPI, b *bot.Bot) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			tg.StopReceivingUpdates()
			wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func(u tgbotapi.Update) {
				defer wg.Done()
				b.HandleUpdate(ctx, u)
			}(update)
		}
	}
}
