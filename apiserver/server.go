package apiserver

import (
	goctx "context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/netrixframework/qlearn/context"
	"github.com/netrixframework/qlearn/log"
	"github.com/netrixframework/qlearn/types"
)

// DefaultAddr is the default address of the APIServer
const DefaultAddr = "127.0.0.1:7074"

// Model identifies the value table served under /table
type Model struct {
	Key     string
	States  int
	Actions int
}

// APIServer serves the metrics, reward series, chart and stored value
// table of a run over HTTP
type APIServer struct {
	router *gin.Engine
	ctx    *context.RootContext
	model  Model

	server   *http.Server
	addr     string
	listener net.Listener

	*types.BaseService
}

var _ types.Service = &APIServer{}

// NewAPIServer instantiates APIServer
func NewAPIServer(ctx *context.RootContext, model Model) *APIServer {
	addr := ctx.Config.Server.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	server := &APIServer{
		ctx:         ctx,
		model:       model,
		addr:        addr,
		BaseService: types.NewBaseService("APIServer", ctx.Logger),
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(server.logMiddleware)

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/chart")
	})
	router.GET("/healthz", server.handleHealth)
	router.GET("/metrics", gin.WrapH(ctx.Metrics.Handler()))
	router.GET("/series", server.handleSeries)
	router.GET("/chart", server.handleChart)
	router.GET("/table", server.handleTable)

	server.router = router
	server.server = &http.Server{
		Addr:    server.addr,
		Handler: router,
	}
	return server
}

func (a *APIServer) logMiddleware(c *gin.Context) {
	start := time.Now()
	path := c.Request.URL.Path
	raw := c.Request.URL.RawQuery

	c.Next()

	end := time.Now()
	if raw != "" {
		path = path + "?" + raw
	}
	a.Logger.With(log.LogParams{
		"latency":     end.Sub(start).String(),
		"client_ip":   c.ClientIP(),
		"method":      c.Request.Method,
		"status_code": c.Writer.Status(),
		"error":       c.Errors.ByType(gin.ErrorTypePrivate).String(),
		"body_size":   c.Writer.Size(),
		"path":        path,
	}).Debug("Handled request")
}

// Addr returns the address the server listens on once started
func (a *APIServer) Addr() string {
	if a.listener != nil {
		return a.listener.Addr().String()
	}
	return a.addr
}

// Handler returns the router, for serving without a listener
func (a *APIServer) Handler() http.Handler {
	return a.router
}

// Start binds the address and serves in the background
func (a *APIServer) Start() error {
	listener, err := net.Listen("tcp", a.addr)
	if err != nil {
		return err
	}
	a.listener = listener
	a.StartRunning()
	a.Logger.With(log.LogParams{
		"addr": listener.Addr().String(),
	}).Info("API server starting!")
	go func() {
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.With(log.LogParams{
				"addr": a.addr,
			}).WithError(err).Error("API server closed!")
		}
	}()
	return nil
}

// Stop shuts the server down, waiting up to five seconds for open requests
func (a *APIServer) Stop() error {
	a.StopRunning()
	ctx, cancel := goctx.WithTimeout(goctx.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.Logger.Error("API server forcefully shutdown")
		return err
	}
	a.Logger.Info("API server stopped!")
	return nil
}
