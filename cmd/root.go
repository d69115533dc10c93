package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/buildinfo"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/logging"
)

// global flags
var (
	userConfig string
	f          = NewFactory()
)

const (
	LogLevelKey   = logging.LevelKey
	LogFormatKey  = logging.FormatKey
	LogNoColorKey = logging.NoColorKey

	ServerAddrKey = "addr"
	ActorIDKey    = "actor.id"
	ActorRoleKey  = "actor.role"
	ConfigKey     = "config"
)

var rootCmd = &cobra.Command{
	Use:   "maker-checker",
	Short: fmt.Sprintf("Maker-checker approval engine (version: %s, commit: %s)", buildinfo.Version, buildinfo.CommitHash),
	Long: `maker-checker routes proposed changes to managed entities through
a rule-driven approval workflow: makers submit, checkers approve or reject,
and only approved changes are committed.`,
	Version: buildinfo.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, configErr := initConfig()
		logging.Init(nil)
		if configErr != nil { // handle error after logging is initialized
			return configErr
		}
		if configPath != "" {
			log.Debug().Msgf("using user config file: %s", configPath)
		}
		if viper.GetBool(LogNoColorKey) {
			color.NoColor = true
		}
		f.Resolve()
		return nil
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal().Err(err).Msg("execution failed")
		os.Exit(1)
	}
}

func init() {
	// setup pre-flag logger
	logging.InitDefault()

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&userConfig, "user-config", "",
		"User configuration file for default values (default is $HOME/.maker-checker.yaml)")

	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag(LogLevelKey, flags.Lookup("log-level"))

	flags.String("log-format", "console", "Log format (console, json)")
	_ = viper.BindPFlag(LogFormatKey, flags.Lookup("log-format"))

	flags.Bool("no-color", false, "Disable color output")
	_ = viper.BindPFlag(LogNoColorKey, flags.Lookup("no-color"))

	flags.StringVar(&f.RemoteAddr, "server", "", "Address of a remote maker-checker server")
	_ = viper.BindPFlag(ServerAddrKey, flags.Lookup("server"))

	flags.StringVar(&f.ActorID, "actor", "", "Identity to act as on the remote server")
	_ = viper.BindPFlag(ActorIDKey, flags.Lookup("actor"))

	flags.StringVar(&f.ActorRole, "role", "", "Role to act in on the remote server")
	_ = viper.BindPFlag(ActorRoleKey, flags.Lookup("role"))

	viper.SetEnvPrefix("MAKERCHECKER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))

	viper.AutomaticEnv()

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

func initConfig() (string, error) {
	// reads in config file and ENV variables if set.
	if userConfig != "" {
		viper.SetConfigFile(userConfig)
	} else {
		// search order: current dir, $HOME, XDG config
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}

		config, err := os.UserConfigDir()
		if err == nil {
			viper.AddConfigPath(config + "/maker-checker")
		}

		viper.SetConfigType("yaml")
		viper.SetConfigName(".maker-checker")
	}

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundError) {
			return "", err
		}
	} else {
		return viper.ConfigFileUsed(), nil
	}

	return "", nil
}
