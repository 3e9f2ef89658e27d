package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/care-matcher/internal/matching"
	"github.com/spigell/care-matcher/internal/matching/llm"
)

const (
	app = "care-matcher"
)

type Config struct {
	Input   *InputConfig   `mapstructure:"input"`
	Output  *OutputConfig  `mapstructure:"output"`
	Filters *FiltersConfig `mapstructure:"filters"`
	AI      *AIConfig      `mapstructure:"ai"`
	Status  *StatusConfig  `mapstructure:"status"`
	Metrics *MetricsConfig `mapstructure:"metrics"`
}

type InputConfig struct {
	Recipient  string `mapstructure:"recipient"`
	Caregivers string `mapstructure:"caregivers"`
}

type OutputConfig struct {
	File string `mapstructure:"file"`
	Top  int    `mapstructure:"top"`
}

type FiltersConfig struct {
	ExcludeIDs      []string `mapstructure:"exclude-ids"`
	ExcludeFile     string   `mapstructure:"exclude-file"`
	IncludeInactive bool     `mapstructure:"include-inactive"`
}

type AIConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Provider     string        `mapstructure:"provider"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxTokens    int           `mapstructure:"max-tokens"`
	MaxLogLength int           `mapstructure:"max-log-length"`
	Gemini       *GeminiConfig `mapstructure:"gemini"`
	Claude       *ClaudeConfig `mapstructure:"claude"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type ClaudeConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type StatusConfig struct {
	Redis *RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	JobID    string        `mapstructure:"job-id"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "care-matcher ranks caregivers for a care recipient by compatibility",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	bindings := map[string]string{
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
		"ai.claude.api-key-file": "ANTHROPIC_API_KEY_FILE",
		"status.redis.addr":      "REDIS_ADDR",
		"status.redis.password":  "REDIS_PASSWORD",
		"status.redis.job-id":    "CARE_MATCHER_JOB_ID",
		"metrics.addr":           "CARE_MATCHER_METRICS_ADDR",
	}
	for key, env := range bindings {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("output.top", matching.DefaultTop)
	viper.SetDefault("ai.enabled", true)
	viper.SetDefault("ai.provider", "gemini")
	viper.SetDefault("ai.timeout", llm.DefaultTimeout)
	viper.SetDefault("ai.max-tokens", llm.DefaultMaxTokens)
	viper.SetDefault("ai.max-log-length", 500)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is care-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Config needed only for rank command now. If there is no config, we can skip initialization
	if rankCmd.CalledAs() == "" {
		return
	}

	// A missing .env file is fine, the variables may come from the environment itself.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) && cfgFile == "" {
		// Everything can be passed with flags.
		return
	}

	// We can't proceed if the config file parsed with error.
	if err != nil {
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config == nil {
		config = &Config{}
	}
	config.setDefaults()

	return config, nil
}

func (c *Config) setDefaults() {
	if c.Input == nil {
		c.Input = &InputConfig{}
	}
	if c.Output == nil {
		c.Output = &OutputConfig{}
	}
	if c.Filters == nil {
		c.Filters = &FiltersConfig{}
	}
	if c.AI == nil {
		c.AI = &AIConfig{}
	}
	if c.AI.Gemini == nil {
		c.AI.Gemini = &GeminiConfig{}
	}
	if c.AI.Claude == nil {
		c.AI.Claude = &ClaudeConfig{}
	}
	if c.Status == nil {
		c.Status = &StatusConfig{}
	}
	if c.Status.Redis == nil {
		c.Status.Redis = &RedisConfig{}
	}
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{}
	}
}
