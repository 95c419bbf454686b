package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/campusmatch/matchmaker/internal/ai"
	"github.com/campusmatch/matchmaker/internal/ai/gemini"
	"github.com/campusmatch/matchmaker/internal/embedding"
	"github.com/campusmatch/matchmaker/internal/enrich"
	"github.com/campusmatch/matchmaker/internal/logger"
	"github.com/campusmatch/matchmaker/internal/match"
	"github.com/campusmatch/matchmaker/internal/profile"
	"github.com/campusmatch/matchmaker/internal/report"
	"github.com/campusmatch/matchmaker/internal/secrets"
	"github.com/campusmatch/matchmaker/internal/solver"
	"github.com/campusmatch/matchmaker/internal/survey"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes        = "Yes, export the results"
	PromptNo         = "No"
	PromptPairs      = "Show matched pairs"
	PromptTopMatches = "Show top scored pairs"
	PromptUnmatched  = "Show unmatched respondents"

	defaultOutput = "matches.csv"
	topMatchCount = 10
)

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Proceed?",
	Items: []string{PromptYes, PromptNo, PromptPairs, PromptTopMatches, PromptUnmatched},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the matchmaker main command",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("input", "i", "", "survey responses CSV file")
	runCmd.Flags().StringP("output", "o", "", "results CSV file. Default is "+defaultOutput)
	runCmd.Flags().BoolP("auto-approve", "y", false, "do not ask for confirmation before exporting results")
	runCmd.Flags().Bool("ai", false, "score pairs with the Gemini API instead of the deterministic scorer")

	viper.BindPFlag("input", runCmd.Flags().Lookup("input"))
	viper.BindPFlag("output", runCmd.Flags().Lookup("output"))
	viper.BindPFlag("ai.enabled", runCmd.Flags().Lookup("ai"))
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the matchmaker", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	input := strings.TrimSpace(viper.GetString("input"))
	if input == "" {
		input = config.Input
	}
	if input == "" {
		logger.Fatal("survey responses file is required",
			zap.String("hint", "pass --input or set the 'input' key in the configuration file"),
		)
	}

	records, err := survey.Load(input)
	if err != nil {
		logger.Fatal("loading survey responses", zap.Error(err))
	}

	records = survey.Dedupe(records)
	roster := profile.Build(records, logger)

	logger.Info("loaded survey responses",
		zap.String("file", input),
		zap.Int("respondents", roster.Len()),
	)

	if roster.Len() < 2 {
		logger.Info("exiting", zap.String("reason", "need at least two respondents to match"))
		return
	}

	embedder, err := buildEmbedder(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating an embedder", zap.Error(err))
	}

	scorer, err := buildScorer(ctx, config, roster, embedder, logger)
	if err != nil {
		logger.Fatal("creating a scorer", zap.Error(err))
	}

	logger.Info("scoring pairs", zap.String("scorer", scorer.Name()))

	engine := match.NewEngine(
		match.NewFilter(filterConfig(config)),
		scorer,
		engineConfig(config),
		logger,
	)

	edges, err := engine.Run(ctx, roster)
	if err != nil {
		logger.Fatal("scoring pairs failed", zap.Error(err))
	}

	if edges.Len() == 0 {
		logger.Info("exiting", zap.String("reason", "no admissible pairs found"))
		return
	}

	result, err := solver.New(logger).Solve(roster, edges)
	if err != nil {
		logger.Fatal("solving the assignment", zap.Error(err))
	}

	reporter := report.New(logger)
	reporter.Summary(roster, result, edges)

	if len(result.Pairs) == 0 {
		logger.Info("exiting", zap.String("reason", "no pairs with positive compatibility"))
		return
	}

	action := PromptYes
	for {
		var err error
		if cmd.Flag("auto-approve").Value.String() == "false" {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		if err := handleAction(action, config, logger, reporter, roster, result, edges); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}

		if cmd.Flag("auto-approve").Value.String() == "true" {
			return
		}
	}
}

func handleAction(action string, config *Config, logger *zap.Logger, reporter *report.Reporter, roster *profile.Roster, result *solver.Result, edges *match.EdgeSet) error {
	switch action {
	case PromptYes:
		output := strings.TrimSpace(viper.GetString("output"))
		if output == "" {
			output = config.Output
		}
		if output == "" {
			output = defaultOutput
		}
		if err := reporter.ExportCSV(output, roster, result, edges); err != nil {
			return fmt.Errorf("export results: %w", err)
		}
		return errExit
	case PromptNo:
		logger.Info("exiting", zap.String("reason", "got no from prompt"))
		return errExit
	case PromptPairs:
		for _, line := range reporter.PairLines(roster, result) {
			logger.Info(line)
		}
		return nil
	case PromptTopMatches:
		for _, line := range reporter.TopMatches(roster, edges, topMatchCount) {
			logger.Info(line)
		}
		return nil
	case PromptUnmatched:
		for _, id := range result.Unmatched {
			if p := roster.FindByID(id); p != nil {
				logger.Info(p.Name)
			}
		}
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func filterConfig(config *Config) match.FilterConfig {
	cfg := match.DefaultFilterConfig()
	if config.Filter != nil {
		cfg.AssumeInterestedWhenUnspecified = config.Filter.AssumeInterested
	}
	return cfg
}

func engineConfig(config *Config) match.EngineConfig {
	cfg := match.DefaultEngineConfig()
	if config.Scoring != nil {
		if config.Scoring.Concurrency > 0 {
			cfg.Concurrency = config.Scoring.Concurrency
		}
		cfg.RateLimit = config.Scoring.RateLimit
	}
	return cfg
}

// buildEmbedder selects the text similarity backend. The local hashing
// embedder is the default so a run never requires network access.
func buildEmbedder(ctx context.Context, config *Config, logger *zap.Logger) (embedding.Embedder, error) {
	cfg := config.Embedding
	if cfg == nil {
		cfg = &EmbeddingConfig{}
	}

	var embedder embedding.Embedder
	switch cfg.Provider {
	case "", embedding.ProviderLocal:
		embedder = embedding.NewLocal()
	case embedding.ProviderGemini:
		apiKey, err := resolveAPIKey(config)
		if err != nil {
			return nil, err
		}
		embedder, err = embedding.NewGemini(ctx, apiKey, cfg.Model)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}

	logger.Debug("embedder selected", zap.String("provider", embedder.Provider()))

	return embedding.NewCached(embedder, cfg.CacheSize), nil
}

// buildScorer picks the deterministic scorer unless AI judgment was
// requested explicitly.
func buildScorer(ctx context.Context, config *Config, roster *profile.Roster, embedder embedding.Embedder, logger *zap.Logger) (ai.Scorer, error) {
	if config.AI == nil || !config.AI.Enabled {
		weights := match.DefaultWeights()
		if config.Scoring != nil && len(config.Scoring.TraitValues) > 0 {
			weights.TraitValues = config.Scoring.TraitValues
		}
		return match.NewDeterministicScorer(weights, embedder, logger), nil
	}

	apiKey, err := resolveAPIKey(config)
	if err != nil {
		return nil, err
	}

	var model string
	var maxRetries, maxLogLength int
	if config.AI.Gemini != nil {
		model = config.AI.Gemini.Model
		maxRetries = config.AI.Gemini.MaxRetries
		maxLogLength = config.AI.Gemini.MaxLogLength
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, model, maxRetries, logger)
	if err != nil {
		return nil, err
	}

	backgrounds := resolveBackgrounds(ctx, config, roster, logger)

	return gemini.NewScorer(generator, backgrounds, maxLogLength, logger), nil
}

func resolveAPIKey(config *Config) (string, error) {
	keyFile := ""
	if config.AI != nil && config.AI.Gemini != nil {
		keyFile = strings.TrimSpace(config.AI.Gemini.APIKeyFile)
	}
	if keyFile == "" {
		keyFile = strings.TrimSpace(viper.GetString("ai.gemini.api-key-file"))
	}

	if keyFile == "" {
		return "", errors.New("gemini api key file is not configured, set GEMINI_API_KEY_FILE or the 'ai.gemini.api-key-file' key in the configuration file")
	}

	return secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: keyFile,
	})
}

// resolveBackgrounds looks up public background data for respondents who
// shared a profile link. Lookups are best effort and never fail the run.
func resolveBackgrounds(ctx context.Context, config *Config, roster *profile.Roster, logger *zap.Logger) map[int]*enrich.Background {
	cfg := config.Enrichment
	if cfg == nil || !cfg.Enabled || cfg.Endpoint == "" {
		return nil
	}

	client := enrich.New(cfg.Endpoint, time.Duration(cfg.TimeoutSeconds)*time.Second, logger)

	backgrounds := make(map[int]*enrich.Background)
	for _, p := range roster.Items {
		if p.EnrichmentURL == "" {
			continue
		}
		background, err := client.Resolve(ctx, p.EnrichmentURL)
		if err != nil {
			logger.Debug("background lookup failed",
				zap.Int("profile", p.ID),
				zap.Error(err),
			)
			continue
		}
		if background != nil {
			backgrounds[p.ID] = background
		}
	}

	logger.Info("background enrichment finished",
		zap.Int("resolved", len(backgrounds)),
		zap.Int("respondents", roster.Len()),
	)

	return backgrounds
}
