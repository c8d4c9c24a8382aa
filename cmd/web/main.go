package main

import (
	"context"
	"encoding/gob"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/joho/godotenv"
	"github.com/myrjola/casefile/internal/ai"
	"github.com/myrjola/casefile/internal/analysis"
	"github.com/myrjola/casefile/internal/config"
	"github.com/myrjola/casefile/internal/envstruct"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/keywords"
	"github.com/myrjola/casefile/internal/legal"
	"github.com/myrjola/casefile/internal/logging"
	"github.com/myrjola/casefile/internal/pprofserver"
	"github.com/myrjola/casefile/internal/reference"
	"github.com/myrjola/casefile/internal/repositories"
	"github.com/myrjola/casefile/internal/sqlite"
	"github.com/myrjola/casefile/internal/webauthnhandler"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"
)

func init() {
	gob.Register(webauthn.SessionData{})
}

type application struct {
	logger          *slog.Logger
	webAuthnHandler *webauthnhandler.WebAuthnHandler
	sessionManager  *scs.SessionManager
	cases           *analysis.Service
	// llmTimeout bounds the routes that wait for the reasoning service.
	llmTimeout time.Duration
}

type configuration struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"CASEFILE_ADDR" envDefault:"localhost:4000"`
	// FQDN is the fully qualified domain name of the server used for WebAuthn Relying Party configuration.
	FQDN string `env:"CASEFILE_FQDN" envDefault:"localhost"`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL    string `env:"CASEFILE_SQLITE_URL" envDefault:"./casefile.sqlite3"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY" envDefault:""`
	// OpenAIBaseURL points the reasoning client at an OpenAI compatible endpoint.
	OpenAIBaseURL string `env:"CASEFILE_OPENAI_BASE_URL" envDefault:""`
	Model         string `env:"CASEFILE_MODEL" envDefault:""`
	MaxTokens     int    `env:"CASEFILE_MAX_TOKENS" envDefault:"4096"`
	// ReferenceDir resolves the relative paths of the reference sources.
	ReferenceDir string `env:"CASEFILE_REFERENCE_DIR" envDefault:"./reference"`
	// EngineConfig is an optional YAML file overriding the embedded engine configuration.
	EngineConfig string `env:"CASEFILE_ENGINE_CONFIG" envDefault:""`
	// LegalSections is an optional YAML file replacing the embedded legal sections table.
	LegalSections string        `env:"CASEFILE_LEGAL_SECTIONS" envDefault:""`
	LLMTimeout    time.Duration `env:"CASEFILE_LLM_TIMEOUT" envDefault:"2m"`
	// ReferenceCacheTTL keeps extracted reference text in memory. Zero disables the cache.
	ReferenceCacheTTL time.Duration `env:"CASEFILE_REFERENCE_CACHE_TTL" envDefault:"0s"`
	// PprofAddr enables the pprof server, e.g. localhost:6060.
	PprofAddr string `env:"CASEFILE_PPROF_ADDR" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		err error
		cfg configuration
	)
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config from environment")
	}

	if cfg.PprofAddr != "" {
		pprofserver.Launch(ctx, cfg.PprofAddr, logger)
	}

	var dbs *sqlite.Database
	if dbs, err = sqlite.NewDatabase(ctx, cfg.SqliteURL, logger); err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := dbs.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelError, "close db", errors.SlogError(closeErr))
		}
	}()

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(dbs.ReadWrite.DB, 24*time.Hour) //nolint:mnd // daily
	sessionManager.Lifetime = 12 * time.Hour                                                     //nolint:mnd // half a day
	sessionManager.Cookie.Secure = true
	sessionManager.Cookie.SameSite = http.SameSiteStrictMode

	rpOrigins := []string{"https://" + cfg.FQDN}
	if cfg.FQDN == "localhost" {
		rpOrigins = []string{"http://" + cfg.Addr}
	}
	var webAuthnHandler *webauthnhandler.WebAuthnHandler
	if webAuthnHandler, err = webauthnhandler.New(cfg.FQDN, rpOrigins, logger, sessionManager, dbs); err != nil {
		return errors.Wrap(err, "new webauthn handler")
	}

	var cases *analysis.Service
	if cases, err = newCaseService(cfg, dbs, logger); err != nil {
		return err
	}

	app := application{
		logger:          logger,
		webAuthnHandler: webAuthnHandler,
		sessionManager:  sessionManager,
		cases:           cases,
		llmTimeout:      cfg.LLMTimeout,
	}
	if err = app.configureAndStartServer(ctx, cfg.Addr); err != nil {
		return errors.Wrap(err, "start server")
	}
	return nil
}

// newCaseService wires the case workflow to its engine configuration, reference documents, reasoning client and
// store.
func newCaseService(cfg configuration, dbs *sqlite.Database, logger *slog.Logger) (*analysis.Service, error) {
	engine, err := config.LoadEngine(cfg.EngineConfig, cfg.ReferenceDir)
	if err != nil {
		return nil, errors.Wrap(err, "load engine config")
	}

	var table *legal.Table
	if table, err = loadLegalTable(cfg.LegalSections); err != nil {
		return nil, err
	}

	var extractor reference.TextExtractor = reference.FileExtractor{}
	if cfg.ReferenceCacheTTL > 0 {
		extractor = reference.NewCachedExtractor(extractor, cfg.ReferenceCacheTTL)
	}

	return analysis.New(analysis.Config{
		Store: repositories.NewCaseRepository(dbs, logger),
		Completer: ai.NewClient(ai.Config{
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
		}, logger),
		References:      reference.NewLoader(engine.Sources, extractor, logger),
		Keywords:        keywords.NewBuilder(engine.Keywords),
		Legal:           table,
		Sources:         engine.Sources,
		RawPrefixLength: engine.RawPrefixLength,
		Logger:          logger,
		Now:             nil,
	}), nil
}

func loadLegalTable(path string) (*legal.Table, error) {
	if path == "" {
		table, err := legal.Default()
		if err != nil {
			return nil, errors.Wrap(err, "default legal table")
		}
		return table, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open legal sections", slog.String("path", path))
	}
	defer f.Close()
	table, err := legal.Load(f)
	if err != nil {
		return nil, errors.Wrap(err, "load legal sections", slog.String("path", path))
	}
	return table, nil
}

func main() {
	ctx := context.Background()
	loggerHandler := logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource:   true,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	logger := slog.New(loggerHandler)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "failure loading .env file", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
