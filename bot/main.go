package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/aquare11e/torrent-intake-bot/internal/bot"
	"github.com/aquare11e/torrent-intake-bot/internal/config"
	"github.com/aquare11e/torrent-intake-bot/internal/daemon"
	"github.com/aquare11e/torrent-intake-bot/internal/daemonrpc"
	"github.com/aquare11e/torrent-intake-bot/internal/intake"
	"github.com/aquare11e/torrent-intake-bot/internal/logging"
	"github.com/aquare11e/torrent-intake-bot/internal/report"
)

const (
	tokenFlag            = "telegram-token"
	allowedUsersFlag     = "allowed-users"
	sendRateFlag         = "send-rate"
	daemonKindFlag       = "daemon"
	qbitURLFlag          = "qbittorrent-url"
	qbitUserFlag         = "qbittorrent-username"
	qbitPasswordFlag     = "qbittorrent-password"
	transURLFlag         = "transmission-url"
	transUserFlag        = "transmission-username"
	transPasswordFlag    = "transmission-password"
	daemonServiceFlag    = "daemon-service-url"
	daemonTimeoutFlag    = "daemon-timeout"
	moviesFolderFlag     = "movies-folder"
	tvShowsFolderFlag    = "tv-shows-folder"
	destinationsFileFlag = "destinations-file"
	pendingStoreFlag     = "pending-store"
	pendingTTLFlag       = "pending-ttl"
	stagingDirFlag       = "staging-dir"
	maxFileSizeFlag      = "max-file-size"
	redisURLFlag         = "redis-url"
	redisPasswordFlag    = "redis-password"
	redisDBFlag          = "redis-db"
	logDebugFlag         = "log-debug"
	logPathFlag          = "log-path"

	janitorInterval = time.Minute
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	app := &cli.App{
		Name:  "torrent-intake-bot",
		Usage: "Telegram bot that hands magnet links and .torrent files to a download daemon.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: tokenFlag, EnvVars: []string{"TELEGRAM_BOT_TOKEN"}, Usage: "Telegram bot API token."},
			&cli.StringFlag{Name: allowedUsersFlag, EnvVars: []string{"ALLOWED_USERS"}, Usage: "Comma separated Telegram usernames allowed to use the bot. Empty allows everyone."},
			&cli.Float64Flag{Name: sendRateFlag, EnvVars: []string{"TELEGRAM_SEND_RATE"}, Usage: "Outgoing Telegram calls per second."},
			&cli.StringFlag{Name: daemonKindFlag, Value: config.DaemonQBittorrent, EnvVars: []string{"DAEMON_KIND"}, Usage: "Download daemon: qbittorrent, transmission or remote."},
			&cli.StringFlag{Name: qbitURLFlag, EnvVars: []string{"QBITTORRENT_URL"}, Usage: "qBittorrent Web UI url."},
			&cli.StringFlag{Name: qbitUserFlag, EnvVars: []string{"QBITTORRENT_USERNAME"}},
			&cli.StringFlag{Name: qbitPasswordFlag, EnvVars: []string{"QBITTORRENT_PASSWORD"}},
			&cli.StringFlag{Name: transURLFlag, EnvVars: []string{"TRANSMISSION_URL"}, Usage: "Transmission RPC url, e.g. http://host:9091/transmission/rpc."},
			&cli.StringFlag{Name: transUserFlag, EnvVars: []string{"TRANSMISSION_USERNAME"}},
			&cli.StringFlag{Name: transPasswordFlag, EnvVars: []string{"TRANSMISSION_PASSWORD"}},
			&cli.StringFlag{Name: daemonServiceFlag, EnvVars: []string{"DAEMON_SERVICE_URL"}, Usage: "Address of daemon-service when the daemon is remote."},
			&cli.DurationFlag{Name: daemonTimeoutFlag, EnvVars: []string{"DAEMON_TIMEOUT"}, Usage: "Timeout for a single daemon call."},
			&cli.StringFlag{Name: moviesFolderFlag, EnvVars: []string{"MOVIES_FOLDER"}, Usage: "Save path for the Movies destination."},
			&cli.StringFlag{Name: tvShowsFolderFlag, EnvVars: []string{"TV_SHOWS_FOLDER"}, Usage: "Save path for the TV Shows destination."},
			&cli.StringFlag{Name: destinationsFileFlag, EnvVars: []string{"DESTINATIONS_FILE"}, Usage: "YAML file with custom destinations. Overrides the movies and tv shows folders."},
			&cli.StringFlag{Name: pendingStoreFlag, Value: config.StoreMemory, EnvVars: []string{"PENDING_STORE"}, Usage: "Where pending torrents are kept: memory or redis."},
			&cli.DurationFlag{Name: pendingTTLFlag, EnvVars: []string{"PENDING_TTL"}, Usage: "Forget torrents waiting for a destination after this long. Zero keeps them."},
			&cli.StringFlag{Name: stagingDirFlag, EnvVars: []string{"STAGING_DIR"}, Usage: "Directory for uploaded .torrent files."},
			&cli.Int64Flag{Name: maxFileSizeFlag, EnvVars: []string{"MAX_FILE_SIZE"}, Usage: "Largest accepted .torrent file in bytes."},
			&cli.StringFlag{Name: redisURLFlag, EnvVars: []string{"REDIS_URL"}, Usage: "Redis address, host:port."},
			&cli.StringFlag{Name: redisPasswordFlag, EnvVars: []string{"REDIS_PASSWORD"}},
			&cli.IntFlag{Name: redisDBFlag, EnvVars: []string{"REDIS_DB"}},
			&cli.BoolFlag{Name: logDebugFlag, EnvVars: []string{"LOG_DEBUG"}},
			&cli.StringFlag{Name: logPathFlag, EnvVars: []string{"LOG_PATH"}, Usage: "Optional rotating log file."},
		},
		Action: func(c *cli.Context) error {
			conf, err := loadConfig(c)
			if err != nil {
				return err
			}
			return run(c.Context, conf)
		},
		HideHelpCommand: true,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("problem starting bot")
	}
}

func loadConfig(c *cli.Context) (*config.Root, error) {
	conf := &config.Root{
		Telegram: &config.Telegram{
			Token:        c.String(tokenFlag),
			AllowedUsers: config.SplitList(c.String(allowedUsersFlag)),
			SendRate:     c.Float64(sendRateFlag),
		},
		Daemon: &config.Daemon{
			Kind:    c.String(daemonKindFlag),
			Timeout: c.Duration(daemonTimeoutFlag),
		},
		Intake: &config.Intake{
			Store:       c.String(pendingStoreFlag),
			PendingTTL:  c.Duration(pendingTTLFlag),
			StagingDir:  c.String(stagingDirFlag),
			MaxFileSize: c.Int64(maxFileSizeFlag),
		},
		Redis: &config.Redis{
			URL:      c.String(redisURLFlag),
			Password: c.String(redisPasswordFlag),
			DB:       c.Int(redisDBFlag),
		},
		Log: &config.Log{
			Debug: c.Bool(logDebugFlag),
			Path:  c.String(logPathFlag),
		},
	}

	switch conf.Daemon.Kind {
	case config.DaemonQBittorrent:
		conf.Daemon.URL = c.String(qbitURLFlag)
		conf.Daemon.Username = c.String(qbitUserFlag)
		conf.Daemon.Password = c.String(qbitPasswordFlag)
	case config.DaemonTransmission:
		conf.Daemon.URL = c.String(transURLFlag)
		conf.Daemon.Username = c.String(transUserFlag)
		conf.Daemon.Password = c.String(transPasswordFlag)
	case config.DaemonRemote:
		conf.Daemon.URL = c.String(daemonServiceFlag)
	}

	if path := c.String(destinationsFileFlag); path != "" {
		dests, err := config.LoadDestinations(path)
		if err != nil {
			return nil, err
		}
		conf.Destinations = dests
	} else {
		conf.Destinations = config.DefaultDestinations(c.String(moviesFolderFlag), c.String(tvShowsFolderFlag))
	}

	config.AddDefaults(conf)
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return conf, nil
}

func run(ctx context.Context, conf *config.Root) error {
	logging.Load(conf.Log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, closeClient, err := newDaemonClient(conf.Daemon)
	if err != nil {
		return err
	}
	defer closeClient()

	store, closeStore, err := newStore(ctx, conf)
	if err != nil {
		return err
	}
	defer closeStore()

	if client.Connect(ctx) {
		log.Info().Str("daemon", client.Name()).Msg("successfully connected to daemon")
	} else {
		log.Warn().Str("daemon", client.Name()).Msg("failed to connect to daemon on startup")
	}

	flow := intake.NewFlow(store, client, conf.Destinations, intake.Options{
		StagingDir:  conf.Intake.StagingDir,
		MaxFileSize: conf.Intake.MaxFileSize,
		PendingTTL:  conf.Intake.PendingTTL,
	})

	api, err := tgbotapi.NewBotAPIWithClient(conf.Telegram.Token, tgbotapi.APIEndpoint, cleanhttp.DefaultPooledClient())
	if err != nil {
		return fmt.Errorf("error creating telegram client: %w", err)
	}
	log.Info().Str("account", api.Self.UserName).Msg("authorized on telegram")

	b := bot.New(api, flow, report.New(client), bot.Config{
		AllowedUsers: conf.Telegram.AllowedUsers,
		SendRate:     conf.Telegram.SendRate,
		DaemonName:   client.Name(),
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer stop()
		defer api.StopReceivingUpdates()
		return b.Run(ctx, api.GetUpdatesChan(bot.UpdateConfig()))
	})
	g.Go(func() error {
		flow.RunJanitor(ctx, janitorInterval)
		return nil
	})

	return g.Wait()
}

func newDaemonClient(conf *config.Daemon) (daemon.Client, func(), error) {
	if conf.Kind != config.DaemonRemote {
		client, err := daemon.NewBackend(conf.Kind, daemon.Config{
			URL:      conf.URL,
			Username: conf.Username,
			Password: conf.Password,
			Timeout:  conf.Timeout,
		})
		return client, func() {}, err
	}

	if conf.URL == "" {
		return nil, nil, errors.New("daemon service url is not set")
	}

	conn, err := grpc.NewClient(conf.URL, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, fmt.Errorf("error creating daemon service client: %w", err)
	}

	return daemonrpc.NewRemoteClient(conn, conf.Timeout), func() { _ = conn.Close() }, nil
}

func newStore(ctx context.Context, conf *config.Root) (intake.Store, func(), error) {
	if conf.Intake.Store != config.StoreRedis {
		return intake.NewMemoryStore(conf.Intake.PendingTTL), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.URL,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("error connecting to redis: %w", err)
	}

	return intake.NewRedisStore(client, conf.Intake.PendingTTL), func() { _ = client.Close() }, nil
}
