package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken string
	GroupID  int64
	DataFile string
	DocDir   string
}

func Load() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Printf("config.Load: no .env file found - using env variables")
	}

	cfg := &Config{
		BotToken: os.Getenv("BOT_TOKEN"),
		DataFile: os.Getenv("DATA_FILE"),
		DocDir:   os.Getenv("DOC_DIR"),
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("config.Load: BOT_TOKEN is required")
	}

	// GROUP_ID is only needed when a writeup gets accepted; leaving it
	// unset surfaces as an error on that decision, not at startup.
	if raw := os.Getenv("GROUP_ID"); raw != "" {
		groupID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config.Load: GROUP_ID must be numeric: %w", err)
		}
		cfg.GroupID = groupID
	}

	if cfg.DataFile == "" {
		cfg.DataFile = "data/reviewers.json"
	}

	if cfg.DocDir == "" {
		cfg.DocDir = "doc_files"
	}

	return cfg, nil
}
