package cmd

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/career-advisor/internal/advisor"
	"github.com/spigell/career-advisor/internal/identity"
	"github.com/spigell/career-advisor/internal/logger"
	"github.com/spigell/career-advisor/internal/portal"
	"github.com/spigell/career-advisor/internal/secrets"
)

const (
	app = "career-advisor"

	tokenEnv = "ADVISOR_TOKEN"
)

type Config struct {
	Backend   *BackendConfig `mapstructure:"backend"`
	Token     string         `mapstructure:"token"`
	TokenFile string         `mapstructure:"token-file"`
	UserAgent string         `mapstructure:"user-agent"`
	Chat      *ChatConfig    `mapstructure:"chat"`
}

type BackendConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ChatConfig struct {
	TopJobs      int `mapstructure:"top-jobs"`
	MaxLogLength int `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "career-advisor is a terminal client for the job portal AI career advisor",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("token-file", "ADVISOR_TOKEN_FILE"); err != nil {
		log.Fatalf("binding ADVISOR_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("backend.url", "ADVISOR_BACKEND_URL"); err != nil {
		log.Fatalf("binding ADVISOR_BACKEND_URL environment variable: %v", err)
	}

	viper.SetDefault("backend.url", "http://localhost:8001")
	viper.SetDefault("backend.timeout", portal.DefaultTimeout)
	viper.SetDefault("chat.top-jobs", 3)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is career-advisor.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("backend", "", "job portal backend URL")
	rootCmd.PersistentFlags().Duration("timeout", 0, "timeout for a single backend call")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("backend.url", rootCmd.PersistentFlags().Lookup("backend"))
	viper.BindPFlag("backend.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

func initConfig() {
	// A .env next to the binary is optional, like in the portal backend.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// The default config file is optional; an explicit one is not.
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Backend == nil {
		config.Backend = &BackendConfig{}
	}
	if config.Chat == nil {
		config.Chat = &ChatConfig{}
	}

	return config, nil
}

func resolveToken(config *Config) (string, error) {
	if config == nil {
		return "", errors.New("config is required")
	}

	tokenFile := strings.TrimSpace(config.TokenFile)
	if tokenFile == "" {
		tokenFile = strings.TrimSpace(viper.GetString("token-file"))
	}

	return secrets.Load(secrets.Source{
		Name:  "portal token",
		File:  tokenFile,
		Value: config.Token,
		Env:   tokenEnv,
	})
}

// deps holds everything the commands build from the config.
type deps struct {
	logger    *zap.Logger
	config    *Config
	portal    *portal.Client
	advisor   *advisor.Client
	authority identity.Authority
}

func setup() *deps {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	token, err := resolveToken(config)
	if err != nil {
		logger.Fatal(
			"loading portal token",
			zap.Error(err),
			zap.String("hint", "set ADVISOR_TOKEN_FILE, ADVISOR_TOKEN or the 'token-file' key in the configuration file"),
		)
	}

	p := portal.New(config.Backend.URL, token, config.Backend.Timeout, logger)
	if config.UserAgent != "" {
		p.UserAgent = config.UserAgent
	}

	logger.Debug("starting with backend",
		zap.String("url", p.BaseURL),
		zap.Duration("timeout", p.HTTPClient.Timeout),
	)

	return &deps{
		logger:    logger,
		config:    config,
		portal:    p,
		advisor:   advisor.New(p, config.Chat.MaxLogLength),
		authority: identity.NewPortal(p),
	}
}
