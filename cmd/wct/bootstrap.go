package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/genai"
	openaisdk "github.com/openai/openai-go"
	openaiopt "github.com/openai/openai-go/option"
	"github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/v2/mongo"
	mongooptions "go.mongodb.org/mongo-driver/v2/mongo/options"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/waivern/wct/components"
	"github.com/waivern/wct/config"
	"github.com/waivern/wct/llm"
	"github.com/waivern/wct/llm/providers"
	"github.com/waivern/wct/logging"
	"github.com/waivern/wct/orchestration"
	"github.com/waivern/wct/ruleset"
	"github.com/waivern/wct/schema"
	"github.com/waivern/wct/store"
)

// app bundles the process-wide dependencies every subcommand resolves
// against. It is built once per invocation by newApp. The DAGExecutor
// itself is not built here: its baseDir depends on the runbook path a
// particular `run`/`validate-runbook` invocation names, so run.go
// constructs one per call via newExecutor.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	backend  store.Store
	provider providers.Provider
	llmSvc   *llm.Service
	rulesets *ruleset.Loader
	registry *orchestration.ComponentRegistry
	services *orchestration.ServiceContainer
	loader   *orchestration.Loader
}

// registryNames returns every registered component name, for the ls-*
// subcommands.
func (a *app) registryNames() []string {
	return a.registry.Names()
}

// newApp resolves configuration and constructs every dependency a command
// needs. A non-nil error here is always a configuration problem, mapped to
// exit code 3 by main.
func newApp(cfg *config.Config) (*app, error) {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	backend, err := newStore(context.Background(), cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("configure store: %w", err)
	}

	provider, err := newProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("configure llm provider: %w", err)
	}

	llmSvc := llm.NewService(backend, provider, cfg.LLM.MaxTokensPerBatch, cfg.LLM.MaxItemsPerBatch, llm.BatchMode(cfg.LLM.BatchMode), provider.SupportsBatch())
	llmSvc = llmSvc.WithRateLimit(60_000, 240_000)

	rulesets := ruleset.NewLoader("rulesets")

	registry := newComponentRegistry(rulesets, llmSvc)
	services := orchestration.NewServiceContainer(registry)

	loader := orchestration.NewLoader()

	return &app{
		cfg:      cfg,
		logger:   logger,
		backend:  backend,
		provider: provider,
		llmSvc:   llmSvc,
		rulesets: rulesets,
		registry: registry,
		services: services,
		loader:   loader,
	}, nil
}

// newExecutor constructs a DAGExecutor rooted at baseDir, the directory
// containing the runbook file being run.
func (a *app) newExecutor(baseDir string) *orchestration.DAGExecutor {
	return orchestration.NewDAGExecutor(a.services, a.backend, nil, a.loader, baseDir, a.logger)
}

// newLogger builds a zap-backed Logger at the given level ("debug", "info",
// "warn", "error"; empty defaults to "info").
func newLogger(level string) (logging.Logger, error) {
	var zapLevel zapcore.Level
	if level == "" {
		level = "info"
	}
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zapLevel)
	z, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logging.NewZap(z), nil
}

func newStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Type {
	case "memory":
		return store.NewMemoryStore(), nil
	case "filesystem", "":
		path := cfg.Path
		if path == "" {
			path = "./.wct-runs"
		}
		return store.NewFilesystemStore(path), nil
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("store.path is required for the sqlite store")
		}
		return store.NewSqliteStore(cfg.Path)
	case "redis":
		if cfg.Path == "" {
			return nil, fmt.Errorf("store.path (a redis:// URL) is required for the redis store")
		}
		opts, err := redis.ParseURL(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("parse redis store.path: %w", err)
		}
		return store.NewRedisStore(redis.NewClient(opts)), nil
	case "mongo":
		if cfg.Path == "" {
			return nil, fmt.Errorf("store.path (a mongodb:// URL naming a database) is required for the mongo store")
		}
		database, err := mongoDatabaseName(cfg.Path)
		if err != nil {
			return nil, err
		}
		client, err := mongodriver.Connect(mongooptions.Client().ApplyURI(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}
		return store.NewMongoStore(ctx, client, database)
	default:
		return nil, fmt.Errorf("unsupported store type %q (want memory, filesystem, sqlite, redis, or mongo)", cfg.Type)
	}
}

// mongoDatabaseName extracts the database name from a mongodb:// URI's
// path component (e.g. "mongodb://localhost:27017/wct" -> "wct").
func mongoDatabaseName(uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse mongo store.path: %w", err)
	}
	database := strings.TrimPrefix(u.Path, "/")
	if database == "" {
		return "", fmt.Errorf("mongo store.path must name a database, e.g. mongodb://host/dbname")
	}
	return database, nil
}

// newProvider constructs the configured LLM provider's real SDK client. The
// provider's API key is read from cfg.APIKey if set, else the provider's
// own standard environment variable (matching each SDK's native
// ANTHROPIC_API_KEY/OPENAI_API_KEY/GOOGLE_API_KEY convention).
func newProvider(cfg config.LLMConfig) (providers.Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		key := firstNonEmpty(cfg.APIKey, os.Getenv("ANTHROPIC_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		client := anthropicsdk.NewClient(anthropicopt.WithAPIKey(key))
		return providers.NewAnthropicProvider(&client.Messages, &client.Messages.Batches, 4096)

	case "openai":
		key := firstNonEmpty(cfg.APIKey, os.Getenv("OPENAI_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		client := openaisdk.NewClient(openaiopt.WithAPIKey(key))
		return providers.NewOpenAIProvider(&client.Chat.Completions, &client.Batches)

	case "google":
		key := firstNonEmpty(cfg.APIKey, os.Getenv("GOOGLE_API_KEY"))
		if key == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY is required for the google provider")
		}
		client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: key})
		if err != nil {
			return nil, fmt.Errorf("construct genai client: %w", err)
		}
		return providers.NewGoogleProvider(client.Models)

	case "bedrock":
		opts := []func(*awsconfig.LoadOptions) error{}
		if cfg.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config for bedrock provider: %w", err)
		}
		client := bedrockruntime.NewFromConfig(awsCfg)
		return providers.NewBedrockProvider(client)

	default:
		return nil, fmt.Errorf("unsupported llm provider %q (want anthropic, openai, google, or bedrock)", cfg.Provider)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// newComponentRegistry registers every built-in Connector/Analyser/
// Classifier/Exporter under the "{kind}:{type}" naming scheme a runbook's
// artifact definitions reference from their source.type / process.type
// fields.
func newComponentRegistry(rulesets *ruleset.Loader, llmSvc *llm.Service) *orchestration.ComponentRegistry {
	reg := orchestration.NewComponentRegistry()

	reg.Register("source:filesystem", orchestration.Transient, &orchestration.Factory{
		OutputSchemas: []*schema.Schema{components.FilesystemSchema},
		Construct: func(ctx context.Context) (any, error) {
			return components.NewFilesystemConnector(), nil
		},
	})
	reg.Register("process:detection", orchestration.Transient, &orchestration.Factory{
		InputSchemas:        []*schema.Schema{components.FilesystemSchema},
		OutputSchemas:       []*schema.Schema{components.DetectionSchema},
		ServiceDependencies: []string{"rulesets"},
		CanCreate: func(properties map[string]any) bool {
			ruleset, _ := properties["ruleset"].(string)
			return ruleset != ""
		},
		Construct: func(ctx context.Context) (any, error) {
			return components.NewDetectionAnalyser(rulesets), nil
		},
	})
	reg.Register("process:classification", orchestration.Transient, &orchestration.Factory{
		InputSchemas:        []*schema.Schema{components.FilesystemSchema},
		OutputSchemas:       []*schema.Schema{components.ClassificationSchema},
		ServiceDependencies: []string{"rulesets", "llm"},
		CanCreate: func(properties map[string]any) bool {
			ruleset, _ := properties["ruleset"].(string)
			return ruleset != ""
		},
		Construct: func(ctx context.Context) (any, error) {
			return components.NewLLMClassifier(rulesets, llmSvc), nil
		},
	})
	reg.Register("process:json_report", orchestration.Transient, &orchestration.Factory{
		InputSchemas: []*schema.Schema{components.DetectionSchema, components.ClassificationSchema},
		Construct: func(ctx context.Context) (any, error) {
			return components.NewJSONExporter(), nil
		},
	})

	return reg
}
