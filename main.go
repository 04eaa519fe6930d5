package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"meetrecap/internal/api"
	"meetrecap/internal/config"
	"meetrecap/internal/service/ai"
	"meetrecap/internal/service/mail"
	"meetrecap/internal/service/summary"
	"meetrecap/internal/store"
)

func main() {
	cfgPath := os.Getenv("MEETRECAP_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var recordStore store.Store
	switch cfg.BasicConfig.Store {
	case "", "memory":
		recordStore = store.NewMemory()
	case "sqlite":
		s, err := store.OpenSQLite(cfg.BasicConfig.SQLitePath)
		if err != nil {
			log.Fatalf("open sqlite store: %v", err)
		}
		defer s.Close()
		recordStore = s
	default:
		log.Fatalf("unsupported store: %s", cfg.BasicConfig.Store)
	}
	log.Printf("store: %s", cfg.BasicConfig.Store)

	chain := ai.NewChain(cfg)
	summaries := summary.NewService(recordStore, chain)
	mailClient := mail.NewClient(cfg.Mail.BaseURL)
	dispatcher := mail.NewDispatcher(recordStore, mailClient, cfg.Mail.From)

	uploadDir := cfg.BasicConfig.UploadDir
	if uploadDir == "" {
		uploadDir = "./data/uploads"
	}
	handlers := api.NewHandler(summaries, dispatcher, uploadDir, cfg.BasicConfig.MaxUploadMB<<20)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
