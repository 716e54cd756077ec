package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	googleauth "interview-backend/internal/auth"
	"interview-backend/internal/conversation"
	"interview-backend/internal/entitlement"
	"interview-backend/internal/interview"
	"interview-backend/internal/llm"
	"interview-backend/internal/llm/gemini"
	"interview-backend/internal/llm/openai"
	"interview-backend/internal/resumes"
	"interview-backend/internal/services/health"
	"interview-backend/internal/shared/config"
	"interview-backend/internal/shared/server"
	"interview-backend/internal/shared/server/middleware"
	"interview-backend/internal/shared/storage/db"
	"interview-backend/internal/shared/storage/object"
	localstore "interview-backend/internal/shared/storage/object/local"
	s3store "interview-backend/internal/shared/storage/object/s3"
	"interview-backend/internal/shared/telemetry"
	"interview-backend/internal/users"
)

// App holds the wired dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Gorm   *gorm.DB
	Store  object.Store

	Provider    llm.Provider
	LLM         *llm.Service
	UsersRepo   users.Repo
	ResumeStore resumes.Store
	Sessions    interview.SessionRepo
	Memory      conversation.Store

	UsersService  *users.Service
	ResumeService *resumes.Service
	Extractor     *resumes.Extractor
	Gate          *entitlement.Gate
	Orchestrator  *interview.Orchestrator
	Health        *health.Service
	GoogleAuth    *googleauth.GoogleService
}

type options struct {
	provider llm.Provider
	db       *sql.DB
	store    object.Store
	noStore  bool
}

// Option overrides a dependency Build would otherwise create.
type Option func(*options)

func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithDB uses an existing connection instead of DATABASE_URL.
func WithDB(sqlDB *sql.DB) Option {
	return func(o *options) { o.db = sqlDB }
}

// WithObjectStore replaces the configured archive store; nil disables archiving.
func WithObjectStore(s object.Store) Option {
	return func(o *options) {
		o.store = s
		o.noStore = s == nil
	}
}

// Build wires repositories, services and the router. Without a database in a
// dev-like environment every repository is in memory.
func Build(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	app := &App{Config: cfg, Health: health.NewService()}

	sqlDB := o.db
	if sqlDB == nil {
		var err error
		sqlDB, err = buildDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}
	app.DB = sqlDB

	switch {
	case o.store != nil:
		app.Store = o.store
	case !o.noStore:
		store, err := buildStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		app.Store = store
	}

	provider := o.provider
	if provider == nil {
		var err error
		provider, err = buildProvider(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}
	app.Provider = provider

	if err := buildRepos(app); err != nil {
		return nil, err
	}
	buildServices(app)
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "none":
		return nil, nil
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix, cfg.S3KMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildProvider(ctx context.Context, cfg config.Config) (llm.Provider, error) {
	var (
		provider llm.Provider
		err      error
	)
	switch cfg.LLMProvider {
	case "openai":
		provider, err = openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
	case "gemini":
		provider, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	default:
		return llm.Placeholder{}, nil
	}
	if err != nil {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"provider": cfg.LLMProvider, "error": err})
			return llm.Placeholder{}, nil
		}
		return nil, err
	}
	return provider, nil
}

func buildRepos(app *App) error {
	if app.DB == nil {
		app.UsersRepo = users.NewMemoryRepo()
		app.ResumeStore = resumes.NewMemoryStore()
		app.Sessions = interview.NewMemoryRepo()
		app.Memory = conversation.NewMemoryStore()
		return nil
	}

	gormDB, err := conversation.OpenGorm(app.DB)
	if err != nil {
		return fmt.Errorf("open gorm: %w", err)
	}
	app.Gorm = gormDB
	app.UsersRepo = &users.PGRepo{DB: app.DB}
	app.ResumeStore = &resumes.PGRepo{DB: app.DB}
	app.Sessions = &interview.PGRepo{DB: app.DB}
	app.Memory = conversation.NewGormStore(gormDB)
	app.Health.Add("database", app.DB.PingContext)
	return nil
}

func buildServices(app *App) {
	cfg := app.Config

	app.LLM = llm.NewService(app.Provider, app.Memory, cfg.LLMTimeout)
	app.UsersService = users.NewService(app.UsersRepo, cfg.DefaultTrials)
	app.Gate = entitlement.NewGate(app.UsersRepo)
	app.Extractor = resumes.NewExtractor(app.LLM, app.ResumeStore)
	app.ResumeService = resumes.NewService(app.UsersService, app.ResumeStore, app.Extractor, app.Store)
	app.Orchestrator = interview.NewOrchestrator(app.UsersService, app.Gate, app.ResumeStore, app.Sessions, app.LLM, app.Memory)
	app.GoogleAuth = googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		app.UsersService,
	)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		Health:           app.Health,
		UserHandler:      users.NewHandler(app.UsersService),
		ResumeHandler:    resumes.NewHandler(app.ResumeService, cfg.MaxUploadBytes),
		InterviewHandler: interview.NewHandler(app.Orchestrator),
		GoogleAuth:       app.GoogleAuth,
		RateLimiter:      middleware.NewRateLimiter(nil),
	})
}

// Close releases the database pool.
func (a *App) Close() error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
