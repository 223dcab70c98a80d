package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/cron"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/redis"
	"github.com/meinhoongagan/petrent-api/routes"
	"github.com/meinhoongagan/petrent-api/utils"
)

func main() {
	cfg := config.MustLoad()
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	db.Init()
	if cfg.AutoMigrate {
		db.Migrate()
	}

	if cfg.RedisAddr != "" {
		redis.InitRedis()
	} else {
		logger.Log.Warn("REDIS_ADDR is not set; Google sign-in is disabled")
	}
	utils.InitGoogleOAuth()

	app := routes.NewApp(cfg)
	scheduler := cron.StartCronJobs()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Log.Info("Shutting down")
		<-scheduler.Stop().Done()
		if err := app.Shutdown(); err != nil {
			logger.Log.WithError(err).Error("Server shutdown failed")
		}
	}()

	logger.Log.WithField("port", cfg.Port).Info("Server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Log.WithError(err).Fatal("Server stopped")
	}
}
