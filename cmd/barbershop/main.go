package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edirooss/barbershop/internal/config"
	"github.com/edirooss/barbershop/internal/eventlog"
	"github.com/edirooss/barbershop/internal/eventsink"
	"github.com/edirooss/barbershop/internal/http/handler"
	mw "github.com/edirooss/barbershop/internal/http/middleware"
	"github.com/edirooss/barbershop/internal/queue"
	"github.com/edirooss/barbershop/internal/redis"
	"github.com/edirooss/barbershop/internal/service"
	"github.com/edirooss/barbershop/internal/shop"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

var configPath = flag.String("config", "barbershop.yaml", "path to the YAML config file")

func init() {
	// Handle version display
	handleVersion()
}

func main() {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Create Zap logger
	log := buildLogger()
	defer log.Sync()
	log = log.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Event consumers: structured log, in-memory ring, optional external sinks.
	events := eventlog.NewManager()
	notifiers := shop.Notifiers{shop.NewLogNotifier(log), events}
	var sinks []*eventsink.Async

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(ctx, cfg.RedisAddr, 0, log)
		defer rdb.Close()

		sink := eventsink.NewAsync(log, "redis", redis.NewEventStream(rdb, cfg.RedisStream, 0), cfg.SinkBuffer, 0)
		notifiers = append(notifiers, sink)
		sinks = append(sinks, sink)
		g.Go(func() error { return sink.Run(ctx) })
	}

	if cfg.AMQPURL != "" {
		pub, err := queue.Dial(log, cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			log.Fatal("broker connection failed", zap.Error(err))
		}
		defer pub.Close()

		sink := eventsink.NewAsync(log, "amqp", pub, cfg.SinkBuffer, 0)
		notifiers = append(notifiers, sink)
		sinks = append(sinks, sink)
		g.Go(func() error { return sink.Run(ctx) })
	}

	barbershop := shop.New(log, shop.Options{
		Timing:   cfg.ShopTiming(),
		Notifier: notifiers,
	})
	arrivals := shop.NewRandomArrivals(time.Duration(cfg.Timing.ArrivalMax))
	g.Go(func() error { return barbershop.Run(ctx, arrivals) })

	// Create Gin router
	if !cfg.IsDev {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = zap.NewStdLog(log.Named("gin")).Writer() // Configure Gin's logger to use Zap
	r := gin.New()
	{
		r.Use(gin.Recovery()) // Recovery first (outermost)
		r.Use(mw.RequestID())

		if cfg.IsDev { // Enable CORS for local dashboards
			r.Use(cors.New(cors.Config{
				AllowOrigins:  []string{"http://localhost:5173", "http://localhost:3000", "http://127.0.0.1:3000"},
				AllowMethods:  []string{"GET", "OPTIONS"},
				AllowHeaders:  []string{"X-Request-ID", "Content-Type"},
				ExposeHeaders: []string{"X-Request-ID", "X-Total-Count", "X-Cache", "X-Status-Generated-At"},
				MaxAge:        12 * time.Hour,
			}))
		} else { // Behind a TLS proxy
			r.SetTrustedProxies([]string{"127.0.0.1"})
			r.Use(secure.New(secure.Config{
				SSLProxyHeaders: map[string]string{"X-Forwarded-Proto": "https"},
			}))
		}

		r.Use(accessLog(log.Named("http")))
		r.Use(mw.LimitConcurrentRequests(64))
	}

	// Register route handlers
	{
		status := service.NewStatusService(log, barbershop, service.StatusOptions{})
		for _, sink := range sinks {
			status.AddSink(sink.Name(), sink)
		}
		shophndlr := handler.NewShopHandler(log, status, events)

		r.GET("/api/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
		r.GET("/api/status", shophndlr.Status)
		r.GET("/api/events", shophndlr.Events)
		r.GET("/api/barbers/:id/events", shophndlr.BarberEvents)
	}

	httpsrv := &http.Server{
		Addr:              cfg.HTTPAddr + ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g.Go(func() error {
		log.Info("running HTTP server", zap.String("addr", httpsrv.Addr))
		if err := httpsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpsrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("shutdown with error", zap.Error(err))
		return
	}
	log.Info("barbershop closed")
}

// handleVersion prints build metadata and exits when -v/--version is provided.
func handleVersion() {
	v := flag.Bool("v", false, "print version and exit")
	flag.BoolVar(v, "version", false, "print version and exit")
	flag.Parse()

	if *v {
		fmt.Printf("barbershop %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildDate)
		os.Exit(0)
	}
}

// accessLog is a Gin middleware that records request/response details with Zap after handling.
func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("request_id", mw.GetRequestID(c)),
			zap.Duration("latency", time.Since(start)),
		}
		// collect all errors from Gin context; errors.Join returns nil if none
		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			fields = append(fields, zap.Error(err))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.DebugLevel)
	return zap.Must(logConfig.Build())
}
