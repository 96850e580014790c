// Command plexil-exec runs the quiescence engine as a standalone host
// process: it owns the run loop driving pkg/exec, wires the optional
// Postgres library store and Redis lookup broker, and exposes a debug
// introspection console over HTTP.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/taless474/plexil1-sub000/internal/config"
	"github.com/taless474/plexil1-sub000/internal/logger"
	"github.com/taless474/plexil1-sub000/pkg/exec"
	"github.com/taless474/plexil1-sub000/pkg/extiface"
	"github.com/taless474/plexil1-sub000/pkg/librarystore"
	"github.com/taless474/plexil1-sub000/pkg/lookupbroker"
	"github.com/taless474/plexil1-sub000/pkg/plexilval"
	"github.com/taless474/plexil1-sub000/pkg/resource"
	"github.com/taless474/plexil1-sub000/pkg/timertask"
)

// noopInterface stands in for the environment when no lookup broker is
// configured: every lookup resolves Unknown and commands/updates are
// accepted without effect, so a plan can still be driven for inspection
// via the debug console.
type noopInterface struct {
	startedAt time.Time
}

func (noopInterface) LookupNow(context.Context, extiface.State) plexilval.Value {
	return plexilval.Unknown(plexilval.TypeUnknown)
}
func (noopInterface) Subscribe(extiface.State)                                       {}
func (noopInterface) Unsubscribe(extiface.State)                                     {}
func (noopInterface) SetThresholds(extiface.State, plexilval.Value, plexilval.Value)  {}
func (noopInterface) ExecuteCommand(extiface.CommandHandle, []plexilval.Value)        {}
func (noopInterface) InvokeAbort(extiface.CommandHandle)                             {}
func (noopInterface) ExecuteUpdate(extiface.UpdateHandle, map[string]plexilval.Value) {}
func (n noopInterface) CurrentTime() float64 { return time.Since(n.startedAt).Seconds() }

var _ extiface.ExternalInterface = noopInterface{}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Logging)
	logger.SetDefault(appLogger)

	arbiter := resource.New()
	if cfg.Resource.HierarchyFile != "" {
		if err := arbiter.LoadHierarchy(cfg.Resource.HierarchyFile); err != nil {
			appLogger.Error("failed to load resource hierarchy", "error", err)
			os.Exit(1)
		}
		appLogger.Info("resource hierarchy loaded", "file", cfg.Resource.HierarchyFile)
	}

	var libStore *librarystore.Store
	if cfg.Database.DSN != "" {
		dbCfg := librarystore.DefaultConfig()
		dbCfg.DSN = cfg.Database.DSN
		db, err := librarystore.NewDB(dbCfg)
		if err != nil {
			appLogger.Warn("library store unavailable, continuing without it", "error", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := librarystore.EnsureSchema(ctx, db)
			cancel()
			if err != nil {
				appLogger.Warn("library store schema setup failed, continuing without it", "error", err)
			} else {
				libStore = librarystore.New(db)
				appLogger.Info("library store connected")
			}
		}
	} else {
		appLogger.Info("library store disabled - no database URL configured")
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			appLogger.Warn("invalid redis URL, lookup broker disabled", "error", err)
		} else {
			redisClient = redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := redisClient.Ping(ctx).Err()
			cancel()
			if err != nil {
				appLogger.Warn("redis unreachable, lookup broker disabled", "error", err)
				redisClient = nil
			} else {
				appLogger.Info("redis connected")
			}
		}
	} else {
		appLogger.Info("lookup broker disabled - no redis URL configured")
	}

	queue := exec.NewInputQueue(256)
	poster := exec.NewPoster(queue)

	var iface extiface.ExternalInterface = noopInterface{startedAt: time.Now()}
	var broker *lookupbroker.Broker
	if redisClient != nil {
		broker = lookupbroker.New(redisClient, poster, lookupbroker.WithLogger(appLogger))
		iface = broker
	}

	e := exec.New(iface, 256, exec.WithInputQueue(queue), exec.WithLogger(appLogger), exec.WithArbiter(arbiter))

	timer := timertask.New(e.Poster(),
		timertask.WithLogger(appLogger),
		timertask.WithTickInterval(time.Second),
		timertask.WithTickSchedule(cfg.Timer.TickSchedule),
	)
	timer.Start()
	defer timer.Stop()

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go runLoop(runCtx, e, appLogger)

	if !cfg.Server.Enabled {
		appLogger.Info("debug console disabled - waiting for stop signal")
		waitForShutdown(appLogger, nil)
		e.RequestStop()
		return
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(recoveryMiddleware(appLogger))
	router.Use(loggingMiddleware(appLogger))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	registerDebugRoutes(router, e, upgrader, appLogger)

	if libStore != nil {
		registerLibraryRoutes(router, libStore)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		appLogger.Info("debug console starting", "host", cfg.Server.Host, "port", cfg.Server.Port)
		serverErrors <- server.ListenAndServe()
	}()

	waitForShutdown(appLogger, serverErrors)

	e.RequestStop()
	cancelRun()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", "error", err)
		if err := server.Close(); err != nil {
			appLogger.Error("server close failed", "error", err)
		}
	}
	appLogger.Info("plexil-exec stopped")
}

// runLoop drives macro-steps until the exec is stopped or ctx is
// canceled, sleeping briefly between quiescent steps rather than
// busy-spinning on an empty candidate queue.
func runLoop(ctx context.Context, e *exec.Exec, log *logger.Logger) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if e.Stopped() {
				return
			}
			if err := e.Step(ctx, time.Since(start).Seconds()); err != nil {
				log.Error("step failed", "error", err)
				return
			}
		}
	}
}

func waitForShutdown(log *logger.Logger, serverErrors chan error) {
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	if serverErrors == nil {
		<-shutdown
		log.Info("shutdown initiated")
		return
	}

	select {
	case err := <-serverErrors:
		log.Error("server error", "error", err)
	case sig := <-shutdown:
		log.Info("shutdown initiated", "signal", sig)
	}
}

func recoveryMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered", "error", r, "path", c.Request.URL.Path)
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
