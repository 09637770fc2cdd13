package main

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/hackiit/writeupbot/internal/bot"
	"github.com/hackiit/writeupbot/internal/config"
	"github.com/hackiit/writeupbot/internal/files"
	"github.com/hackiit/writeupbot/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Error creating telegram bot: %v", err)
	}

	reviewStore := store.New(cfg.DataFile)
	if _, err := reviewStore.Load(); err != nil {
		log.Printf("Warning: reviewer store not ready, provision %s by hand: %v", cfg.DataFile, err)
	}

	fileService, err := files.NewService(botAPI, cfg.DocDir)
	if err != nil {
		log.Fatalf("Error creating file service: %v", err)
	}

	botService := bot.New(botAPI, reviewStore, fileService, cfg.GroupID)

	log.Printf("Bot started as @%s", botAPI.Self.UserName)

	botService.Start()
}
