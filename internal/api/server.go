package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"breakout_bot/internal/models"
	"breakout_bot/internal/modules/health/service"
	"breakout_bot/internal/notify"
	"breakout_bot/internal/runner"
	"breakout_bot/internal/storage"
	"breakout_bot/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultTradesLimit = 100
	defaultEquityLimit = 500
	maxLimit           = 5000

	killMessage = "Closed positions halted. (New entries paused by operator discretion.)"
)

// Controller: то, что API умеет делать с раннером.
type Controller interface {
	Status() runner.Status
	Positions() []models.Position
	Kill() []models.Position
	Pause()
	Resume()
}

type Server struct {
	ctl        Controller
	store      storage.Store
	state      *service.State
	notifier   notify.Notifier
	hub        *Hub
	adminToken string
}

func NewServer(ctl Controller, store storage.Store, state *service.State, n notify.Notifier, hub *Hub, adminToken string) *Server {
	return &Server{
		ctl:        ctl,
		store:      store,
		state:      state,
		notifier:   n,
		hub:        hub,
		adminToken: adminToken,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLog())

	r.GET("/livez", s.livez)
	r.GET("/readyz", s.readyz)
	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", s.hub.serveWS)

	api := r.Group("/api")
	{
		api.GET("/status", s.status)
		api.GET("/positions", s.positions)
		api.GET("/trades", s.trades)
		api.GET("/equity", s.equity)
		api.GET("/equity/latest", s.latestEquity)
	}

	admin := api.Group("", adminAuth(s.adminToken))
	{
		admin.POST("/kill", s.kill)
		admin.POST("/pause", s.pause)
		admin.POST("/resume", s.resume)
		admin.POST("/telegram/test", s.telegramTest)
	}
	return r
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("[HTTP] %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func (s *Server) livez(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (s *Server) readyz(c *gin.Context) {
	if !s.state.Ready() {
		c.String(http.StatusServiceUnavailable, "not ready")
		return
	}
	c.String(http.StatusOK, "ready")
}

func (s *Server) healthz(c *gin.Context) {
	var lastTick int64
	if t := s.state.LastTick(); !t.IsZero() {
		lastTick = t.Unix()
	}
	symbols := make(map[string]int64)
	for sym, t := range s.state.SymbolTicks() {
		symbols[sym] = t.Unix()
	}
	c.JSON(http.StatusOK, gin.H{
		"ready":        s.state.Ready(),
		"marketOK":     s.state.MarketOK(),
		"uptimeSec":    int64(s.state.Uptime().Seconds()),
		"lastTickUnix": lastTick,
		"symbols":      symbols,
		"wsClients":    s.hub.Clients(),
	})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctl.Status())
}

func (s *Server) positions(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctl.Positions())
}

func (s *Server) trades(c *gin.Context) {
	limit, err := queryLimit(c, defaultTradesLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f := models.TradeFilter{
		Symbol: c.Query("symbol"),
		Status: models.Status(strings.ToUpper(c.Query("status"))),
		Limit:  limit,
	}
	if f.Status != "" && f.Status != models.StatusOpen && f.Status != models.StatusClosed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be OPEN or CLOSED"})
		return
	}

	recs, err := s.store.Trades(c.Request.Context(), f)
	if err != nil {
		logger.Error("[HTTP] trades: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, recs)
}

func (s *Server) equity(c *gin.Context) {
	limit, err := queryLimit(c, defaultEquityLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	snaps, err := s.store.EquityHistory(c.Request.Context(), limit)
	if err != nil {
		logger.Error("[HTTP] equity: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snaps)
}

func (s *Server) latestEquity(c *gin.Context) {
	eq, err := s.store.LatestEquity(c.Request.Context(), s.ctl.Status().Equity)
	if err != nil {
		logger.Error("[HTTP] latest equity: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"equity": eq})
}

func (s *Server) kill(c *gin.Context) {
	dropped := s.ctl.Kill()
	c.JSON(http.StatusOK, gin.H{"ok": true, "msg": killMessage, "dropped": len(dropped)})
}

func (s *Server) pause(c *gin.Context) {
	s.ctl.Pause()
	c.JSON(http.StatusOK, gin.H{"ok": true, "paused": true})
}

func (s *Server) resume(c *gin.Context) {
	s.ctl.Resume()
	c.JSON(http.StatusOK, gin.H{"ok": true, "paused": false})
}

func (s *Server) telegramTest(c *gin.Context) {
	s.notifier.Notify("✅ Telegram test from breakout bot")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func queryLimit(c *gin.Context, def int) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errBadLimit
	}
	return min(n, maxLimit), nil
}
