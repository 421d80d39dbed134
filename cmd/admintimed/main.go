package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"admintime/internal/config"
	"admintime/internal/dashboard"
	"admintime/internal/discord"
	"admintime/internal/ledger"
	"admintime/internal/storelog"
	"admintime/internal/tracker"
	"admintime/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	bot, err := discord.New(cfg.BotToken, cfg.GuildID, cfg.DatabaseChannelID)
	if err != nil {
		log.Fatalf("Failed to create Discord bot: %v", err)
	}

	l := ledger.New()
	reconciler := storelog.New(bot.ChannelLog(), bot, l)

	// Recover persisted totals before tracking anything; running with an
	// empty baseline would overwrite every admin's history on the first
	// persisted close.
	if err := reconciler.Load(); err != nil {
		log.Fatalf("Failed to reconcile channel log: %v", err)
	}

	bot.Attach(tracker.New(l, reconciler, cfg.AdminRoleID, cfg.CoAdminRoleID))

	if err := bot.Start(); err != nil {
		log.Fatalf("Failed to start bot: %v", err)
	}
	defer bot.Stop()

	service := dashboard.NewService(l, bot)
	server := web.NewServer(service, cfg.DashboardUsername, cfg.DashboardPassword)
	go func() {
		if err := server.Router(cfg.SessionSecret).Run(":" + cfg.Port); err != nil {
			log.Fatalf("Dashboard server error: %v", err)
		}
	}()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	log.Println("Shutting down...")
}
