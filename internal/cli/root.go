package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ndquoc/grounder/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "grounder",
	Short: "Grounder - offset-grounded people extraction for Vietnamese news",
	Long: `Grounder turns Vietnamese news articles into verified, character-grounded
structured data about the people they mention.

Every extracted span carries offsets into the source text. The verify pass
rejects any span whose offsets do not reproduce its text, and two validation
passes (deterministic rules plus a cross-checking model) grade what remains.

Nothing is trusted that cannot be sliced back out of the document.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("grounder v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.grounder/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.grounder")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match GROUNDER_*
	viper.SetEnvPrefix("GROUNDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger. Verbose runs get human-readable
// development output; everything else gets production JSON.
func newLogger() *zap.Logger {
	var logger *zap.Logger
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadConfig builds the effective configuration: defaults, then config file
// and GROUNDER_* environment overrides via viper.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	setString := func(key string, target *string) {
		if viper.IsSet(key) {
			*target = viper.GetString(key)
		}
	}
	setDuration := func(key string, target *time.Duration) {
		if viper.IsSet(key) {
			*target = viper.GetDuration(key)
		}
	}

	setString("paths.articles_dir", &cfg.Paths.ArticlesDir)
	setString("paths.spans_dir", &cfg.Paths.SpansDir)
	setString("paths.verified_dir", &cfg.Paths.VerifiedDir)
	setString("paths.extractions_dir", &cfg.Paths.ExtractionsDir)
	setString("paths.reports_dir", &cfg.Paths.ReportsDir)

	setString("llm.provider", &cfg.LLM.Provider)
	setString("llm.model", &cfg.LLM.Model)
	setString("llm.api_key", &cfg.LLM.APIKey)
	setString("llm.base_url", &cfg.LLM.BaseURL)
	setDuration("llm.timeout", &cfg.LLM.Timeout)
	if viper.IsSet("llm.max_tokens") {
		cfg.LLM.MaxTokens = viper.GetInt("llm.max_tokens")
	}

	setString("ner.backend", &cfg.NER.Backend)
	setString("ner.annotator_url", &cfg.NER.AnnotatorURL)
	setString("ner.tokencls_url", &cfg.NER.TokenClsURL)
	setDuration("ner.timeout", &cfg.NER.Timeout)

	setString("validator.model", &cfg.Validator.Model)
	if viper.IsSet("validator.max_passage_chars") {
		cfg.Validator.MaxPassageChars = viper.GetInt("validator.max_passage_chars")
	}
	setDuration("validator.rate_limit", &cfg.Validator.RateLimit)
	if viper.IsSet("validator.amount_ceiling_vnd") {
		cfg.Validator.AmountCeilingVND = viper.GetInt64("validator.amount_ceiling_vnd")
	}
	if viper.IsSet("validator.skip_existing") {
		cfg.Validator.SkipExisting = viper.GetBool("validator.skip_existing")
	}

	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	setString("cache.dir", &cfg.Cache.Dir)
	setDuration("cache.memory_ttl", &cfg.Cache.MemoryTTL)
	setDuration("cache.disk_ttl", &cfg.Cache.DiskTTL)

	cfg.Output.Verbose = verbose
	return cfg
}
