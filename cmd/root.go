package cmd

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/unimatch/internal/ai"
	"github.com/spigell/unimatch/internal/cache"
	applog "github.com/spigell/unimatch/internal/logger"
	"github.com/spigell/unimatch/internal/store"
)

const (
	app = "unimatch"

	SourceSnapshot = "snapshot"
	SourceBackend  = "backend"
	SourcePostgres = "postgres"
)

type Config struct {
	StudentID   string          `mapstructure:"student-id"`
	Source      string          `mapstructure:"source"`
	Snapshot    string          `mapstructure:"snapshot"`
	Backend     *BackendConfig  `mapstructure:"backend"`
	Postgres    *PostgresConfig `mapstructure:"postgres"`
	Filters     *FiltersConfig  `mapstructure:"filters"`
	Cache       *cache.Config   `mapstructure:"cache"`
	MetricsFile string          `mapstructure:"metrics-file"`
	Apply       *ApplyConfig    `mapstructure:"apply"`
	AI          *AIConfig       `mapstructure:"ai"`
}

type BackendConfig struct {
	URL             string `mapstructure:"url"`
	KeyFile         string `mapstructure:"key-file"`
	AccessTokenFile string `mapstructure:"access-token-file"`
	UserAgent       string `mapstructure:"user-agent"`
}

type PostgresConfig struct {
	DSNFile      string `mapstructure:"dsn-file"`
	store.Config `mapstructure:",squash"`
}

type FiltersConfig struct {
	DegreeLevel  bool `mapstructure:"degree-level"`
	OpenDeadline bool `mapstructure:"open-deadline"`
}

type ApplyConfig struct {
	Message string `mapstructure:"message"`
}

type AIConfig struct {
	Enabled         bool               `mapstructure:"enabled"`
	Provider        string             `mapstructure:"provider"`
	MinimumFitScore float64            `mapstructure:"minimum-fit-score"`
	MaxLogLength    int                `mapstructure:"max-log-length"`
	Prompt          ai.PromptOverrides `mapstructure:"prompt"`
	Gemini          *GeminiConfig      `mapstructure:"gemini"`
	Edge            *EdgeConfig        `mapstructure:"edge"`
}

type GeminiConfig struct {
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
	MaxRetries int    `mapstructure:"max-retries"`
}

type EdgeConfig struct {
	Function string `mapstructure:"function"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "unimatch scores published university programs against a student's profile and documents",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"student-id":             "UNIMATCH_STUDENT_ID",
		"backend.url":            "UNIMATCH_BACKEND_URL",
		"backend.key-file":       "UNIMATCH_BACKEND_KEY_FILE",
		"postgres.dsn-file":      "UNIMATCH_POSTGRES_DSN_FILE",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("source", SourceSnapshot)
	viper.SetDefault("filters.degree-level", true)
	viper.SetDefault("filters.open-deadline", false)
	viper.SetDefault("ai.provider", "gemini")

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is unimatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("student", "s", "", "student id to score programs for")
	rootCmd.PersistentFlags().String("source", "", "where data comes from: snapshot, backend or postgres")
	rootCmd.PersistentFlags().String("snapshot", "", "snapshot file used by the snapshot source")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("student-id", rootCmd.PersistentFlags().Lookup("student"))
	viper.BindPFlag("source", rootCmd.PersistentFlags().Lookup("source"))
	viper.BindPFlag("snapshot", rootCmd.PersistentFlags().Lookup("snapshot"))
}

func initConfig() {
	// Only commands touching data need a config.
	if scoreCmd.CalledAs() == "" && documentsCmd.CalledAs() == "" {
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Flags and environment are enough without a default config file,
	// but an explicit one must be readable.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
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
	if config.Filters == nil {
		config.Filters = &FiltersConfig{DegreeLevel: true}
	}
	if config.Apply == nil {
		config.Apply = &ApplyConfig{}
	}

	return config, nil
}

func logOptions() applog.Options {
	return applog.Options{
		JSON:    viper.GetBool("json"),
		Debug:   viper.GetBool("debug"),
		App:     app,
		Version: version,
	}
}
