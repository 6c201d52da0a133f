package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"guildsmith/core/loader"
	"guildsmith/core/logger"
	"guildsmith/core/middleware/auth"
	"guildsmith/core/middleware/rayid"
	"guildsmith/core/platform"
	"guildsmith/core/twitch"
	"guildsmith/feature/layout"
	"guildsmith/feature/schedule"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the guildsmith server",
	Long:  `Starts the bot gateway session, the HTTP API and the schedule sweeper.`,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := initRuntime(true)
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer rt.close()
		logg := rt.log
		zap.ReplaceGlobals(logg)

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		twitchClient := twitch.NewClient(rt.cfg.Twitch, nil)
		rest := platform.NewDiscordRESTLister(rt.session)

		mgr := loader.NewManager()
		layoutFeature := layout.NewFeature(rt.db, rest, rt.guild, rt.cfg.Platform, logg)
		scheduleFeature := schedule.NewFeature(rt.db, rt.guild, twitchClient,
			time.Duration(rt.cfg.Sync.SweepIntervalMinutes)*time.Minute, logg)
		mgr.Register(layoutFeature)
		mgr.Register(scheduleFeature)

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Auth (Protect API)
		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// Periodic schedule sweeper.
		sweepCtx, stopSweeper := context.WithCancel(context.Background())
		go scheduleFeature.Sweeper().Run(sweepCtx)

		go func() {
			logg.Info("Starting server", zap.String("port", rt.cfg.Server.Port))
			if err := app.Listen(":" + rt.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		stopSweeper()
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
