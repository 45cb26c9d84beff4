package main

import (
	"context"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"phishguard/internal/config"
	"phishguard/internal/handler"
	"phishguard/internal/service"
	"phishguard/internal/storage"
	"phishguard/internal/utils"
)

func NewServer(cfg *config.Config, h *handler.Handler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	if cfg.TrustProxy {
		e.IPExtractor = echo.ExtractIPFromXFFHeader()
	}
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20))) // 20 requests per second

	// Templates
	e.Renderer = &utils.TemplateRegistry{
		Templates: template.Must(template.New("").Funcs(utils.TemplateFuncs()).ParseGlob("templates/*.html")),
	}

	// Static
	e.Static("/static", "static")

	// Custom HTTP Error Handler
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		errorData := map[string]interface{}{
			"Code":    code,
			"Message": http.StatusText(code),
		}

		if renderErr := c.Render(code, "error.html", errorData); renderErr != nil {
			c.Logger().Error(renderErr)
		}
	}

	// Public routes
	e.GET("/health", h.Health)
	e.GET("/login", h.Login)
	e.POST("/login", h.Login)
	e.GET("/signup", h.Signup)
	e.POST("/signup", h.Signup)
	e.GET("/logout", h.Logout)

	// Protected
	g := e.Group("")
	g.Use(h.LoginRequired)
	g.GET("/", h.Dashboard)
	g.GET("/scan", h.ScanPage)
	g.POST("/scan", h.Scan) // HTMX
	g.GET("/bulk", h.BulkPage)
	g.GET("/ws", h.HandleWS)
	g.GET("/history", h.History)
	g.GET("/history/export", h.ExportCSV)
	g.GET("/history/changes", h.HistoryChanges)
	g.GET("/profile", h.Profile)
	g.POST("/profile", h.Profile)
	g.GET("/education", h.Education)

	return e
}

func main() {
	_ = godotenv.Load()
	utils.InitLogger()
	defer func() {
		_ = utils.Log.Sync()
	}()

	cfg, err := config.LoadConfig()
	if err != nil {
		utils.Log.Fatal("configuration error", utils.Field("error", err.Error()))
	}

	// Dependencies
	store := storage.NewStorage(cfg.RedisHost, cfg.RedisPort)

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := storage.Connect(dbCtx, cfg.DatabaseURL)
	dbCancel()
	if err != nil {
		utils.Log.Fatal("database connection failed", utils.Field("error", err.Error()))
	}
	defer db.Close()

	if err := db.InitSchema(context.Background()); err != nil {
		utils.Log.Fatal("schema init failed", utils.Field("error", err.Error()))
	}

	classifier := service.NewHTTPClassifier(cfg.ScoringURL)
	orch := service.NewOrchestrator(classifier, cfg.ScanTimeout)
	recents := service.NewRecents(cfg.RecentScans)

	geo := service.NewGeoService(cfg.GeoIPPath)
	if cfg.EnableGeo {
		if err := geo.EnsureDatabase(cfg.GeoIPURL); err != nil {
			utils.Log.Warn("geoip database unavailable", utils.Field("error", err.Error()))
		}
	}
	defer geo.Close()

	insight := service.NewInsightService(
		service.NewDNSService(cfg.DNSResolver), geo,
		cfg.EnableDNS, cfg.EnableWhois, cfg.EnableGeo,
	)

	h := handler.NewHandler(store, db, db, orch, recents, insight, cfg)

	sched := service.NewScheduler(store, classifier, cfg.HealthInterval)
	sched.Start()
	defer sched.Stop()

	e := NewServer(cfg, h)

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
}
