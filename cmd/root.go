package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "matchmaker"
)

type Config struct {
	Input      string            `mapstructure:"input"`
	Output     string            `mapstructure:"output"`
	Filter     *FilterConfig     `mapstructure:"filter"`
	Scoring    *ScoringConfig    `mapstructure:"scoring"`
	AI         *AIConfig         `mapstructure:"ai"`
	Embedding  *EmbeddingConfig  `mapstructure:"embedding"`
	Enrichment *EnrichmentConfig `mapstructure:"enrichment"`
}

type FilterConfig struct {
	AssumeInterested bool `mapstructure:"assume-interested"`
}

type ScoringConfig struct {
	Concurrency int     `mapstructure:"concurrency"`
	RateLimit   float64 `mapstructure:"rate-limit"`

	// TraitValues overrides the default trait-to-partner-value table used
	// by the deterministic scorer.
	TraitValues map[string]string `mapstructure:"trait-values"`
}

type AIConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Gemini  *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type EmbeddingConfig struct {
	Provider  string `mapstructure:"provider"`
	Model     string `mapstructure:"model"`
	CacheSize int    `mapstructure:"cache-size"`
}

type EnrichmentConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Endpoint       string `mapstructure:"endpoint"`
	TimeoutSeconds int    `mapstructure:"timeout-seconds"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "matchmaker pairs blind date survey respondents by compatibility",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is matchmaker.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for run command. If there is no config, we can skip initialization.
	if runCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app + ".yaml")
	}

	// A missing config file is fine: flags and defaults cover a plain run.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	config := &Config{
		Filter: &FilterConfig{AssumeInterested: true},
	}
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}

	return config, nil
}
