// internal/api/api.go
// Provides the HTTP surface of the chat server: websocket endpoints, health
// and stats, and StartServer which wires NATS, the hub and the router.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"

	"github.com/erilali/chathub/internal/hub"
	"github.com/erilali/chathub/internal/logger"
	"github.com/erilali/chathub/internal/util"
)

const (
	natsConnectTimeout = 2 * time.Second
	natsReconnectWait  = 2 * time.Second
)

// Deps are the collaborators the router serves from.
type Deps struct {
	Hub       *hub.Hub
	Transport *hub.Transport
	Nats      *nats.Conn // nil when mirroring is disabled
	Logger    *logger.Logger
}

// NewRouter builds the gin engine. The websocket is served on both / and
// /ws because terminal clients dial the bare host.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(deps.Logger))

	serveWs := func(c *gin.Context) {
		deps.Transport.ServeWs(c.Writer, c.Request)
	}
	r.GET("/", serveWs)
	r.GET("/ws", serveWs)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"nats":           natsStatus(deps.Nats),
			"uptime_seconds": int64(time.Since(deps.Hub.StartTime).Seconds()),
		})
	})
	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, deps.Hub.Stats())
	})

	return r
}

func natsStatus(nc *nats.Conn) string {
	if nc == nil {
		return "disabled"
	}
	if nc.Status() == nats.CONNECTED {
		return "connected"
	}
	return "disconnected"
}

// requestLogger logs each HTTP request through the component logger.
func requestLogger(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		l.WithFields(map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("HTTP request")
	}
}

// ConnectNATS dials the event mirror broker. Callers treat an error as
// "run without mirroring".
func ConnectNATS(url string, l *logger.Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("chathub"),
		nats.Timeout(natsConnectTimeout),
		nats.ReconnectWait(natsReconnectWait),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				l.Warnf("Disconnected from NATS: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			l.Infof("Reconnected to NATS at %s", nc.ConnectedUrl())
		}),
	)
}

// StartServer connects the optional NATS mirror, builds the hub and serves
// HTTP until the listener fails.
func StartServer(cfg util.ServerConfig, serverLogger *logger.Logger) error {
	gin.SetMode(cfg.GinMode)

	var nc *nats.Conn
	var mirror *hub.EventMirror
	if cfg.NatsURL != "" {
		serverLogger.Infof("Connecting to NATS at %s", cfg.NatsURL)
		conn, err := ConnectNATS(cfg.NatsURL, logger.NewLogger("nats"))
		if err != nil {
			serverLogger.Errorf("Error connecting to NATS: %v", err)
			serverLogger.Warn("Running without NATS connection. Event mirroring will be disabled.")
		} else {
			serverLogger.Info("Successfully connected to NATS")
			nc = conn
			defer nc.Drain()
			mirror = hub.NewEventMirror(nc, cfg.NatsSubjectPrefix, logger.NewLogger("mirror"))
		}
	}

	h := hub.NewHub(mirror, logger.NewLogger("hub"))
	transport := hub.NewTransport(h, hub.TransportConfig{
		ReadLimit:  cfg.ReadLimit,
		SendBuffer: cfg.SendBuffer,
	}, logger.NewLogger("transport"))

	router := NewRouter(Deps{
		Hub:       h,
		Transport: transport,
		Nats:      nc,
		Logger:    logger.NewLogger("api"),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}
	serverLogger.Infof("Server started at ws://localhost%s", cfg.Addr())
	return srv.ListenAndServe()
}
