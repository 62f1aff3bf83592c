package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/aquare11e/torrent-intake-bot/internal/config"
	"github.com/aquare11e/torrent-intake-bot/internal/daemon"
	"github.com/aquare11e/torrent-intake-bot/internal/daemonrpc"
	"github.com/aquare11e/torrent-intake-bot/internal/logging"
)

const (
	portFlag          = "service-port"
	daemonKindFlag    = "daemon"
	daemonURLFlag     = "daemon-url"
	daemonUserFlag    = "daemon-username"
	daemonPassFlag    = "daemon-password"
	daemonTimeoutFlag = "daemon-timeout"
	logDebugFlag      = "log-debug"
	logPathFlag       = "log-path"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to load .env file")
	}

	app := &cli.App{
		Name:  "daemon-service",
		Usage: "gRPC gateway that owns the download daemon session.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: portFlag, Value: "50052", EnvVars: []string{"SERVICE_PORT"}},
			&cli.StringFlag{Name: daemonKindFlag, Value: config.DaemonTransmission, EnvVars: []string{"DAEMON_KIND"}, Usage: "qbittorrent or transmission."},
			&cli.StringFlag{Name: daemonURLFlag, EnvVars: []string{"DAEMON_URL"}},
			&cli.StringFlag{Name: daemonUserFlag, EnvVars: []string{"DAEMON_USERNAME"}},
			&cli.StringFlag{Name: daemonPassFlag, EnvVars: []string{"DAEMON_PASSWORD"}},
			&cli.DurationFlag{Name: daemonTimeoutFlag, Value: daemon.DefaultTimeout, EnvVars: []string{"DAEMON_TIMEOUT"}},
			&cli.BoolFlag{Name: logDebugFlag, EnvVars: []string{"LOG_DEBUG"}},
			&cli.StringFlag{Name: logPathFlag, EnvVars: []string{"LOG_PATH"}},
		},
		Action: func(c *cli.Context) error {
			logging.Load(&config.Log{Debug: c.Bool(logDebugFlag), Path: c.String(logPathFlag)})

			client, err := daemon.NewBackend(c.String(daemonKindFlag), daemon.Config{
				URL:      c.String(daemonURLFlag),
				Username: c.String(daemonUserFlag),
				Password: c.String(daemonPassFlag),
				Timeout:  c.Duration(daemonTimeoutFlag),
			})
			if err != nil {
				return err
			}

			return serve(c.Context, c.String(portFlag), client)
		},
		HideHelpCommand: true,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("problem starting daemon service")
	}
}

func serve(ctx context.Context, port string, client daemon.Client) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	s := grpc.NewServer()
	daemonrpc.RegisterDaemonServer(s, daemonrpc.NewServer(client))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(daemonrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(s)

	if client.Connect(ctx) {
		log.Info().Str("daemon", client.Name()).Msg("successfully connected to daemon")
	} else {
		log.Warn().Str("daemon", client.Name()).Msg("failed to connect to daemon on startup")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", lis.Addr().String()).Msg("daemon service listening")
		return s.Serve(lis)
	})
	g.Go(func() error {
		<-ctx.Done()
		hs.Shutdown()
		s.GracefulStop()
		return nil
	})

	return g.Wait()
}
