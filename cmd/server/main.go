package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"bey-cash/internal/ai"
	"bey-cash/internal/auth"
	"bey-cash/internal/config"
	"bey-cash/internal/database"
	"bey-cash/internal/drafts"
	"bey-cash/internal/gateway"
	"bey-cash/internal/handlers"
	"bey-cash/internal/report"
	"bey-cash/internal/workspace"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Config error: ", err)
	}
	gin.SetMode(cfg.Server.Mode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal("Database error: ", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migration error: ", err)
	}
	defer database.Close(db)

	store := gateway.NewStore(db)
	workspaces := workspace.NewManager(store, func(userID uint) drafts.Store {
		return drafts.NewDBStore(db, userID)
	}, cfg.Debounce())
	defer workspaces.Close()

	reportCfg := report.DefaultConfig()
	h := &handlers.Handler{
		DB:         db,
		Store:      store,
		Workspaces: workspaces,
		Tokens:     auth.NewTokens(cfg.JWT.Secret, cfg.TokenTTL()),
		Agent:      ai.NewAgent(db, store, cfg.AI.GeminiAPIKey, cfg.AI.Model),
		Report:     reportCfg,
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = handlers.MaxUpload

	h.Routes(r, cfg.AllowRegistration)

	// --- DEPLOYMENT: Serve the cashier frontend ---
	r.Static("/assets", "./web/assets")
	r.NoRoute(func(c *gin.Context) {
		c.File("./web/index.html")
	})

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Println("🚀 Server starting on " + cfg.Server.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down, writing pending drafts...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Shutdown error:", err)
	}
}
