package cli

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"ladder-quiz-service/internal/app"
	"ladder-quiz-service/internal/config"
	"ladder-quiz-service/internal/infra/memory"
	"ladder-quiz-service/internal/infra/postgres"
	infraredis "ladder-quiz-service/internal/infra/redis"
	"ladder-quiz-service/internal/logger"
	transport "ladder-quiz-service/internal/transport/http"
)

//go:embed sample_questions.yaml
var sampleQuestionsYAML []byte

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer log.Sync()
			return runServer(cmd.Context(), cfg, *port, log)
		},
	}
}

// bootstrap loads the config and builds the logger it describes.
func bootstrap(configPath string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, nil, err
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

type backends struct {
	games     app.GameRepository
	balances  app.BalanceRepository
	questions app.QuestionBank
	close     func()
}

// buildBackends picks storage by configuration: Postgres for games when a URL
// is set, otherwise Redis, otherwise process memory. Questions come from
// Postgres or a YAML file, cached in Redis when available.
func buildBackends(ctx context.Context, cfg config.Config) (backends, error) {
	b := backends{close: func() {}}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		var err error
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return b, err
		}
	}
	b.close = func() {
		if pool != nil {
			pool.Close()
		}
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	var loader memory.QuestionLoader
	if pool != nil {
		loader = postgres.NewQuestionLoader(pool)
	} else {
		questions, err := readQuestions(cfg.Questions.File)
		if err != nil {
			b.close()
			return b, err
		}
		loader = memory.NewStaticQuestionLoader(questions)
	}

	questionTTL := config.TTLDuration(cfg.Questions.TTL, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	switch {
	case redisClient != nil:
		b.questions = infraredis.NewQuestionRepository(redisClient, loader, questionTTL)
	default:
		b.questions = memory.NewQuestionRepository(loader, questionTTL)
	}

	switch {
	case pool != nil:
		store := postgres.NewGameStore(pool)
		b.games, b.balances = store, store
	case redisClient != nil:
		store := infraredis.NewGameStore(redisClient)
		b.games, b.balances = store, store
	default:
		store := memory.NewGameStore()
		b.games, b.balances = store, store
	}
	return b, nil
}

func runServer(ctx context.Context, cfg config.Config, portFlag string, log *zap.Logger) error {
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	rules, err := cfg.Rules()
	if err != nil {
		return err
	}
	b, err := buildBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	service := app.NewGameService(b.games, b.questions, b.balances, rules,
		app.WithLogger(log.Named("game")),
		app.WithUpdates(app.NewUpdates()))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", transport.NewWSHandler(service, log.Named("ws")).ServeWS)
	transport.NewGamesHandler(service, log.Named("http")).Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting game service", zap.String("port", finalPort),
			zap.Int("levels", rules.Prizes.Levels()), zap.Duration("time_limit", rules.TimeLimit))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
