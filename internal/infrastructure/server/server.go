package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	api "github.com/talentscout/backend/internal/api/http"
	"github.com/talentscout/backend/internal/api/middleware"
	"github.com/talentscout/backend/internal/domain/agent"
	"github.com/talentscout/backend/internal/domain/agent/tools"
	"github.com/talentscout/backend/internal/domain/candidate"
	"github.com/talentscout/backend/internal/domain/chat"
	"github.com/talentscout/backend/internal/domain/job"
	"github.com/talentscout/backend/internal/infrastructure/config"
	"github.com/talentscout/backend/internal/infrastructure/database"
	"github.com/talentscout/backend/internal/infrastructure/logging"
	"github.com/talentscout/backend/internal/infrastructure/monitoring"
	"github.com/talentscout/backend/internal/infrastructure/tracing"
	"github.com/talentscout/backend/internal/providers/browser"
	"github.com/talentscout/backend/internal/providers/embedding"
	"github.com/talentscout/backend/internal/providers/httpclient"
	"github.com/talentscout/backend/internal/providers/linkedin"
	"github.com/talentscout/backend/internal/providers/search"
	"github.com/talentscout/backend/internal/realtime"
	"github.com/talentscout/backend/internal/repository/dao"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	config   *config.Config
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	db       *gorm.DB
	bus      realtime.Bus
	registry *realtime.Registry
	router   *gin.Engine
	http     *http.Server
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Initializing TalentScout server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("ws_path", cfg.Realtime.Path),
		zap.String("model", cfg.AI.Model),
	)

	// Initialize metrics first (needed by other components)
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := monitoring.NewMetrics(promReg)

	tracer := tracing.New("api", logger.Logger)

	db, err := database.Open(ctx, cfg.Database, logger.Logger)
	if err != nil {
		tracer.Close()
		return nil, err
	}

	s := &Server{
		config:  cfg,
		logger:  logger,
		metrics: metrics,
		tracer:  tracer,
		db:      db,
	}

	jobs := dao.NewGORMJobDAO(db)
	chats := dao.NewGORMChatDAO(db)
	profiles := dao.NewGORMProfileDAO(db)
	candidates := dao.NewGORMCandidateDAO(db)
	sessions := dao.NewGORMSessionDAO(db)

	// Upstream clients
	clientOpts := []httpclient.Option{
		httpclient.WithMetrics(metrics),
		httpclient.WithLogger(logger.Logger),
	}
	openaiHTTP := httpclient.New(httpclient.DefaultConfig("openai", cfg.AI.BaseURL), clientOpts...)
	openaiHTTP.SetAuthToken(cfg.AI.APIKey)
	embedder := embedding.New(openaiHTTP, cfg.AI.EmbeddingModel, cfg.AI.EmbeddingDimensions)

	proxycurlCfg := httpclient.DefaultConfig("proxycurl", cfg.LinkedIn.BaseURL)
	proxycurlCfg.RequestsPerSecond, proxycurlCfg.Burst = 5, 10
	scraper := linkedin.New(httpclient.New(proxycurlCfg, clientOpts...), cfg.LinkedIn.APIKey)
	if cfg.LinkedIn.APIKey == "" {
		logger.Warn("PROXYCURL_API_KEY is not set; profile lookups will fail")
	}

	pageCfg := httpclient.DefaultConfig("browser", "")
	pageCfg.RetryMax = 1
	pageCfg.Timeout = 20 * time.Second
	fetcher := browser.New(httpclient.New(pageCfg, clientOpts...))

	candOpts := []candidate.Option{
		candidate.WithLogger(logger.Named("candidate")),
		candidate.WithProfileTTL(cfg.LinkedIn.ProfileTTL),
	}
	var searcher search.Searcher
	if cfg.Search.APIKey != "" && cfg.Search.CSEID != "" {
		searchCfg := httpclient.DefaultConfig("google_search", cfg.Search.BaseURL)
		searcher = search.New(httpclient.New(searchCfg, clientOpts...), cfg.Search.APIKey, cfg.Search.CSEID)
		candOpts = append(candOpts, candidate.WithSearcher(searcher))
	} else {
		logger.Info("Google search not configured; searchInternet tool and candidate scan disabled")
	}
	candidateSvc := candidate.NewService(jobs, profiles, candidates, embedder, scraper, candOpts...)
	jobSvc := job.NewService(jobs, embedder, job.WithLogger(logger.Named("job")))

	deps := tools.Deps{
		Profiles:   candidateSvc,
		Candidates: candidateSvc,
		Search:     searcher,
		Browser:    fetcher,
	}

	runner := agent.NewOpenAIRunner(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Model, cfg.AI.MaxSteps,
		agent.WithRunnerLogger(logger.Named("agent")),
		agent.WithRunnerMetrics(metrics),
	)
	recruiter := agent.NewRecruiter(runner, deps.Factory(), cfg.AI.MaxSteps, logger.Named("recruiter"))

	// Realtime
	auth := middleware.NewAuth(sessions, cfg.Auth.SessionCookies, logger.Named("auth"))
	regOpts := []realtime.Option{
		realtime.WithLogger(logger.Named("realtime")),
		realtime.WithMetrics(metrics),
		realtime.WithIdentifier(auth.Identify),
		realtime.WithSettings(realtime.Settings{
			WriteTimeout:   cfg.Realtime.WriteTimeout,
			PongWait:       cfg.Realtime.PongWait,
			SendBuffer:     cfg.Realtime.SendBuffer,
			MaxMessageSize: cfg.Realtime.MaxMessageSize,
		}),
		realtime.WithCheckOrigin(originChecker(cfg.Server.AllowOrigins)),
	}
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			_ = database.Close(db)
			tracer.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		s.bus = realtime.NewRedisBus(client, cfg.Redis.Channel, logger.Named("bus"))
		regOpts = append(regOpts, realtime.WithBus(s.bus))
		logger.Info("Cross-process broadcast enabled", zap.String("redis", cfg.Redis.Addr))
	}
	s.registry = realtime.New(regOpts...)

	chatSvc := chat.NewService(jobs, chats, recruiter, s.registry,
		chat.WithLogger(logger.Named("chat")),
		chat.WithRunTimeout(cfg.AI.Timeout),
	)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.Middleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.Server.AllowOrigins
	router.Use(middleware.CORS(corsCfg))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := api.NewHandlers(chatSvc, candidateSvc, jobSvc, jobs, s.registry, logger.Named("http"))
	handlers.Register(router, auth.RequireUser())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	s.router = router
	s.http = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           realtime.NewUpgradeRouter(cfg.Realtime.Path, s.registry, router, logger.Named("upgrade")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// Handler returns the root handler: websocket upgrades on the realtime path,
// everything else through the API router.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves HTTP and consumes the broadcast bus until ctx is cancelled or
// either fails.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.registry.Run(gctx)
	})
	g.Go(func() error {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return s.shutdown()
	})

	return g.Wait()
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	// In-flight chat requests hold their response open until the agent
	// finishes, so they get the full shutdown timeout.
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Warn("HTTP shutdown incomplete", zap.Error(err))
		return err
	}
	return nil
}

// Close gracefully shuts down the server
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.shutdown(); err != nil {
		errs = append(errs, err)
	}
	s.registry.Close()
	if s.bus != nil {
		if err := s.bus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close bus: %w", err))
		}
	}
	if err := database.Close(s.db); err != nil {
		errs = append(errs, err)
	}
	s.tracer.Close()

	// Sync logger before exit
	s.logger.Sync()
	return errors.Join(errs...)
}

// originChecker accepts websocket handshakes from the configured origins.
// Requests without an Origin header come from non-browser clients.
func originChecker(allowed []string) func(*http.Request) bool {
	if slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allowed, origin)
	}
}
