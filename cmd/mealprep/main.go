package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mealprep/internal/api"
	"git.home.luguber.info/inful/mealprep/internal/config"
	apperrors "git.home.luguber.info/inful/mealprep/internal/errors"
	"git.home.luguber.info/inful/mealprep/internal/eventlog"
	"git.home.luguber.info/inful/mealprep/internal/metrics"
	"git.home.luguber.info/inful/mealprep/internal/provider/fatsecret"
	"git.home.luguber.info/inful/mealprep/internal/provider/kroger"
	"git.home.luguber.info/inful/mealprep/internal/provider/llm"
	"git.home.luguber.info/inful/mealprep/internal/provider/openfoodfacts"
	"git.home.luguber.info/inful/mealprep/internal/provider/usda"
	"git.home.luguber.info/inful/mealprep/internal/quota"
	"git.home.luguber.info/inful/mealprep/internal/refresh"
	"git.home.luguber.info/inful/mealprep/internal/resolve"
	"git.home.luguber.info/inful/mealprep/internal/retry"
	"git.home.luguber.info/inful/mealprep/internal/shopping"
	"git.home.luguber.info/inful/mealprep/internal/store"
	"git.home.luguber.info/inful/mealprep/internal/version"
	"git.home.luguber.info/inful/mealprep/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct{} `cmd:"" help:"Start the HTTP API server"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Resolve struct {
		Name         string `arg:"" optional:"" help:"Ingredient name to resolve"`
		UPC          string `short:"u" help:"Resolve by barcode instead of name"`
		User         string `help:"User the resolution runs as" default:"default"`
		ForceRefresh bool   `short:"f" help:"Bypass the local cache"`
	} `cmd:"" help:"Resolve an ingredient to a nutrition record"`

	ShoppingList struct {
		RecipeIDs []string `arg:"" help:"Recipe ids to consolidate"`
		User      string   `help:"Owner of the recipes" default:"default"`
	} `cmd:"" name:"shopping-list" help:"Print a consolidated shopping list for the given recipes"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	switch ctx.Command() {
	case "serve":
		run(runServe)
	case "init":
		if err := runInit(CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
	case "resolve <name>", "resolve":
		run(runResolve)
	case "shopping-list <recipe-ids>":
		run(runShoppingList)
	case "version":
		fmt.Printf("mealprep %s (commit %s, built %s)\n", version.Version, version.GitCommit, version.BuildTime)
	}
}

// run loads configuration, configures logging, and invokes fn.
func run(fn func(cfg *config.Config, level *slog.LevelVar) error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level := setupLogging(cfg.Logging)

	if err := fn(cfg, level); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// setupLogging installs the default slog handler and returns the level var so
// config reloads can adjust verbosity at runtime.
func setupLogging(cfg config.LoggingConfig) *slog.LevelVar {
	level := new(slog.LevelVar)
	level.Set(parseLevel(cfg.Level))
	if CLI.Verbose {
		level.Set(slog.LevelDebug)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
	return level
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runInit(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(config.DefaultYAML()), 0o644); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	slog.Info("Configuration file created", "path", configPath)
	return nil
}

// buildResolver wires the enabled nutrition providers into a resolver.
func buildResolver(cfg *config.Config, st store.Store, events *eventlog.Log, rec metrics.Recorder, q *quota.Manager, policy retry.Policy) *resolve.Resolver {
	resolver := resolve.New(st, events, rec)
	configureSources(resolver, cfg, q, rec, policy)
	return resolver
}

// configureSources registers the enabled providers in fallback order: USDA is
// the most reliable source, FatSecret covers branded foods, Open Food Facts
// name search is the last resort.
func configureSources(resolver *resolve.Resolver, cfg *config.Config, q *quota.Manager, rec metrics.Recorder, policy retry.Policy) {
	if cfg.Providers.USDA.Enabled {
		resolver.AddSource("usda", usda.New(cfg.Providers.USDA, q, rec, policy))
	}
	if cfg.Providers.FatSecret.Enabled {
		resolver.AddSource("fatsecret", fatsecret.New(cfg.Providers.FatSecret, q, rec, policy))
	}
	if cfg.Providers.OpenFoodFacts.Enabled {
		off := openfoodfacts.New(cfg.Providers.OpenFoodFacts, q, rec, policy)
		resolver.SetBarcodeLookup("openfoodfacts", off)
		resolver.AddSource("openfoodfacts", resolve.SearcherFunc(off.SearchByName))
	}
}

func quotaManager(cfg *config.Config) *quota.Manager {
	q := quota.NewManager()
	applyQuotaLimits(q, cfg)
	return q
}

func applyQuotaLimits(q *quota.Manager, cfg *config.Config) {
	limits := quota.Limits{
		DailyCalls:  cfg.Quota.DailyCalls,
		MinInterval: cfg.Quota.MinInterval.Std(),
	}
	for _, provider := range []string{"usda", "fatsecret", "openfoodfacts", "kroger", "llm"} {
		q.SetLimits(provider, limits)
	}
}

// cartSwap lets the serve command replace the Kroger client when credentials
// change on a config reload.
type cartSwap struct {
	client atomic.Pointer[kroger.Client]
}

func (c *cartSwap) SearchProducts(ctx context.Context, term string) ([]kroger.Product, error) {
	cl := c.client.Load()
	if cl == nil {
		return nil, apperrors.New(apperrors.CategoryConfig, apperrors.SeverityError, "kroger provider is disabled")
	}
	return cl.SearchProducts(ctx, term)
}

func (c *cartSwap) AddToCart(ctx context.Context, items []kroger.CartItem) error {
	cl := c.client.Load()
	if cl == nil {
		return apperrors.New(apperrors.CategoryConfig, apperrors.SeverityError, "kroger provider is disabled")
	}
	return cl.AddToCart(ctx, items)
}

// llmSwap does the same for the instruction generator.
type llmSwap struct {
	client atomic.Pointer[llm.Client]
}

func (l *llmSwap) GenerateInstructions(ctx context.Context, in llm.RecipeInput) (string, error) {
	cl := l.client.Load()
	if cl == nil {
		return "", apperrors.New(apperrors.CategoryConfig, apperrors.SeverityError, "llm provider is disabled")
	}
	return cl.GenerateInstructions(ctx, in)
}

func runServe(cfg *config.Config, level *slog.LevelVar) error {
	slog.Info("Starting mealprep", "version", version.Version, "addr", cfg.Server.Addr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	var publisher eventlog.Publisher
	if cfg.Events.Enabled {
		publisher, err = eventlog.NewNATSPublisher(cfg.Events)
		if err != nil {
			return fmt.Errorf("failed to connect event publisher: %w", err)
		}
	}
	events, err := eventlog.NewLog(cfg.Database.Path, publisher)
	if err != nil {
		return fmt.Errorf("failed to open event log: %w", err)
	}
	defer events.Close()

	registry := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(registry)

	q := quotaManager(cfg)
	policy := retry.FromConfig(cfg.Retry)
	resolver := buildResolver(cfg, st, events, rec, q, policy)

	deps := api.Deps{
		Store:    st,
		Resolver: resolver,
		Events:   events,
		Metrics:  metrics.HTTPHandler(registry),
	}
	cart := &cartSwap{}
	if cfg.Providers.Kroger.Enabled {
		cart.client.Store(kroger.New(cfg.Providers.Kroger, q, rec, policy))
		deps.Pusher = shopping.NewPusher(cart, rec, events)
	}
	gen := &llmSwap{}
	if cfg.Providers.LLM.Enabled {
		gen.client.Store(llm.New(cfg.Providers.LLM, q, rec, policy))
		deps.Instructions = gen
	}

	server := api.NewServer(cfg.Server, deps)

	if cfg.Refresh.Enabled {
		job, err := refresh.New(cfg.Refresh, st, resolver)
		if err != nil {
			return fmt.Errorf("failed to create refresh job: %w", err)
		}
		job.Start(ctx)
		defer func() {
			if err := job.Stop(context.Background()); err != nil {
				slog.Warn("Failed to stop refresh scheduler", "error", err)
			}
		}()
	}

	// Applied live: logging verbosity, quota limits, retry policy, and
	// provider credentials (clients are rebuilt). Server address and database
	// path changes need a restart.
	watcher, err := watch.New(CLI.Config, func(_ context.Context, newCfg *config.Config) error {
		level.Set(parseLevel(newCfg.Logging.Level))
		applyQuotaLimits(q, newCfg)
		newPolicy := retry.FromConfig(newCfg.Retry)

		resolver.ResetSources()
		configureSources(resolver, newCfg, q, rec, newPolicy)

		if newCfg.Providers.Kroger.Enabled {
			cart.client.Store(kroger.New(newCfg.Providers.Kroger, q, rec, newPolicy))
		} else {
			cart.client.Store(nil)
		}
		if newCfg.Providers.LLM.Enabled {
			gen.client.Store(llm.New(newCfg.Providers.LLM, q, rec, newPolicy))
		} else {
			gen.client.Store(nil)
		}
		return nil
	})
	if err != nil {
		slog.Warn("Config watcher unavailable", "error", err)
	} else {
		if err := watcher.Start(ctx); err != nil {
			slog.Warn("Failed to start config watcher", "error", err)
		} else {
			defer watcher.Stop(context.Background())
		}
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping server...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := server.Shutdown(stopCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}

func runResolve(cfg *config.Config, _ *slog.LevelVar) error {
	if CLI.Resolve.Name == "" && CLI.Resolve.UPC == "" {
		return fmt.Errorf("a name argument or --upc is required")
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	q := quotaManager(cfg)
	resolver := buildResolver(cfg, st, nil, nil, q, retry.FromConfig(cfg.Retry))

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	result, err := resolver.Resolve(ctx, CLI.Resolve.User, CLI.Resolve.Name, resolve.Options{
		UPC:          CLI.Resolve.UPC,
		ForceRefresh: CLI.Resolve.ForceRefresh,
	})
	if err != nil {
		return err
	}

	return printJSON(result)
}

func runShoppingList(cfg *config.Config, _ *slog.LevelVar) error {
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	user := CLI.ShoppingList.User
	recipes := make([]*store.Recipe, 0, len(CLI.ShoppingList.RecipeIDs))
	for _, id := range CLI.ShoppingList.RecipeIDs {
		recipe, err := st.GetRecipe(ctx, user, id)
		if err != nil {
			return err
		}
		recipes = append(recipes, recipe)
	}

	aliases, err := st.ListAliases(ctx, user)
	if err != nil {
		return err
	}
	staples, err := st.ListPantryStaples(ctx, user)
	if err != nil {
		return err
	}

	items, err := shopping.Consolidate(recipes, aliases, staples)
	if err != nil {
		return err
	}

	return printJSON(items)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
