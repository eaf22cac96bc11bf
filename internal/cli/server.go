package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"battle-quiz-service/internal/app"
	"battle-quiz-service/internal/config"
	"battle-quiz-service/internal/domain"
	"battle-quiz-service/internal/infra/memory"
	pgloader "battle-quiz-service/internal/infra/postgres"
	redisinfra "battle-quiz-service/internal/infra/redis"
	transport "battle-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the battle-quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	careerTTL := config.TTLDuration(cfg.Career.TTL, 24*time.Hour)
	bankTTL := config.TTLDuration(cfg.Bank.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.SetLoader = memory.NewStaticSetLoader(sampleQuestionSets())
	if pool != nil {
		loader = pgloader.NewSetLoader(pool)
	}

	var banks app.BankRepository
	if redisClient != nil {
		banks = redisinfra.NewBankRepository(redisClient, loader, bankTTL)
	} else {
		banks = memory.NewBankRepository(loader, bankTTL)
	}

	var careers app.CareerStore
	if redisClient != nil {
		careers = redisinfra.NewCareerStore(redisClient, careerTTL)
	} else {
		careers = memory.NewCareerStore()
	}

	service := app.NewBattleService(memory.NewBattleStore(), banks, careers)
	wsHandler := transport.NewWSHandler(service, app.StartConfig{
		MaxPlayerHP:    cfg.Battle.MaxPlayerHP,
		MaxEnemyHP:     cfg.Battle.MaxEnemyHP,
		BaseDamage:     cfg.Battle.BaseDamage,
		EnemyDamage:    cfg.Battle.EnemyDamage,
		InitialSeconds: cfg.Battle.InitialSeconds,
		QuestionBudget: cfg.Battle.QuestionBudget,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting battle-quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestionSets provides demo content exercising every question type;
// production deployments load sets from Postgres instead.
func sampleQuestionSets() map[string]domain.QuestionSet {
	return map[string]domain.QuestionSet{
		"go-basics": {
			Topic: "go-basics",
			Questions: []domain.Question{
				{
					Type:         domain.TypeMultipleChoice,
					Prompt:       "Which keyword declares a new variable with inferred type?",
					Tier:         1,
					Options:      []string{"var", ":=", "let", "def"},
					CorrectIndex: 1,
				},
				{
					Type:         domain.TypeMultipleChoice,
					Prompt:       "What is the zero value of a pointer?",
					Tier:         1,
					Options:      []string{"0", "undefined", "nil", "empty"},
					CorrectIndex: 2,
				},
				{
					Type:         domain.TypeTrueFalse,
					Prompt:       "A slice shares its backing array with sub-slices.",
					Tier:         1,
					Options:      []string{"True", "False"},
					CorrectIndex: 0,
				},
				{
					Type:           domain.TypeFillInBlank,
					Prompt:         "What is the time complexity of a linear scan over n items?",
					Tier:           2,
					CorrectAnswers: []string{"o(n)", "O(n)"},
				},
				{
					Type:   domain.TypeDragAndDrop,
					Prompt: "Order the statements to sum a slice.",
					Tier:   3,
					Blocks: []string{
						"total := 0",
						"for _, v := range xs {",
						"total += v",
						"}",
					},
					CorrectOrder: []int{0, 1, 2, 3},
				},
			},
		},
	}
}
