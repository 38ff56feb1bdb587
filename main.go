package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"riotlink/internal/accounts"
	"riotlink/internal/bot"
	"riotlink/internal/common"
	"riotlink/internal/config"
	"riotlink/internal/duo"
	"riotlink/internal/refresh"
	"riotlink/internal/riotapi"
	"riotlink/internal/roles"
	"riotlink/internal/server"
	"riotlink/internal/verification"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "riotlink",
		Usage: "link Riot accounts to Discord members and keep their rank roles up to date",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "optional file with environment variables"},
			&cli.StringFlag{Name: "roles", Usage: "roles file, overrides ROLES_FILE"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error, overrides LOG_LEVEL"},
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "validate the configuration and the roles file, then exit",
				Action: check,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("riotlink stopped")
	}
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		log.Warn().Msg(fmt.Sprintf("Unknown log level %q, using info", level))
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

func load(c *cli.Context) (*config.Config, *config.RoleFile, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, nil, err
	}
	if c.IsSet("roles") {
		cfg.RolesFile = c.String("roles")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	setupLogging(cfg.LogLevel)

	roleFile, err := config.LoadRoles(cfg.RolesFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, roleFile, nil
}

func check(c *cli.Context) error {
	cfg, roleFile, err := load(c)
	if err != nil {
		return err
	}
	table := roleFile.Table()
	log.Info().Msg(fmt.Sprintf("Configuration is valid: %d region roles, %d solo roles, %d flex roles, %d duo channels",
		len(table.Regions), len(table.Solo), len(table.Flex), len(roleFile.DuoChannels)))
	log.Info().Msg(fmt.Sprintf("Refresh every %s, verification lasts %s, database at %s", cfg.RefreshInterval, cfg.VerificationTTL, cfg.DatabasePath))
	return nil
}

func run(c *cli.Context) error {
	cfg, roleFile, err := load(c)
	if err != nil {
		return err
	}
	log.Info().Msg("Starting riotlink")

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := common.RealClock()
	metrics := common.NewMetrics()

	// Riot API
	rateLimiter := common.NewRateLimiter(common.DefaultRestrictions, common.DefaultRetryAfter, clock)
	riot := riotapi.NewRiotApi(cfg.RiotAPIKey, roleFile.Routes(), rateLimiter, metrics)

	// Storage
	database, err := accounts.OpenDatabase(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer database.Close()

	// Discord
	session, err := bot.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}
	discord := bot.NewDiscord(session, cfg.LogChannelID)

	table := roleFile.Table()
	reconciler := roles.NewReconciler(discord, table, metrics)
	manager := accounts.NewManager(database, riot, reconciler)

	pending := verification.NewPendingStore(cfg.VerificationTTL, clock)
	flow := verification.NewFlow(riot, manager, pending, verification.HashChallenger(cfg.IconIds), metrics)
	board := duo.NewBoard(roleFile.Duo(), table, duo.DefaultTTL, clock)
	links := bot.NewLinkRequests(cfg.VerificationTTL, clock)
	handlers := bot.NewHandlers(manager, flow, board, links, roleFile.RegionList(), cfg.DDragonVersion, discord)

	job := refresh.NewJob(refresh.Config{
		Interval: cfg.RefreshInterval,
		Tick:     cfg.RefreshTick,
		Delay:    cfg.RefreshDelay,
	}, database, riot, manager, reconciler, discord, discord, clock, metrics)

	var wg sync.WaitGroup
	background := func(name string, task func(ctx context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			task(ctx)
			log.Debug().Msg(fmt.Sprintf("%s stopped", name))
		}()
	}
	background("pending sweep", pending.Run)
	background("link request sweep", links.Run)
	background("duo sweep", board.Run)
	background("health server", func(ctx context.Context) {
		if err := server.Run(ctx, cfg.HealthAddr, server.NewRouter(metrics)); err != nil {
			log.Error().Err(err).Msg("Health server failed")
		}
	})

	b := bot.NewBot(session, handlers, cfg.GuildID, cfg.PanelChannelID)
	errs := make(chan error, 1)
	go func() {
		errs <- b.Run(ctx)
	}()

	// Memberships are only known once the session is up
	background("rank refresh", func(ctx context.Context) {
		if err := common.Sleep(ctx, clock, 10*time.Second); err != nil {
			return
		}
		job.Run(ctx)
	})

	err = <-errs
	stop()
	wg.Wait()
	log.Info().Msg("riotlink stopped")
	return err
}
