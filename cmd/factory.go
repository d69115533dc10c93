package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/config"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
	"github.com/avik1986/hierarchy-role-based-maker-checker/pkg/client"
)

type Factory struct {
	// RemoteAddr is the address of the maker-checker server to connect to.
	RemoteAddr string

	// ActorID and ActorRole identify the caller on the remote server.
	ActorID   string
	ActorRole string

	// ConfigPath contains the engine configuration: attributes, rules, users and policy
	ConfigPath string
}

func NewFactory() *Factory {
	return &Factory{}
}

// Resolve fills unset fields from the user config file and the environment.
func (f *Factory) Resolve() {
	if f.RemoteAddr == "" { // prio 1: command-line flag
		f.RemoteAddr = viper.GetString(ServerAddrKey) // prio 2: config/env
	}
	if f.ActorID == "" {
		f.ActorID = viper.GetString(ActorIDKey)
	}
	if f.ActorRole == "" {
		f.ActorRole = viper.GetString(ActorRoleKey)
	}
	if f.ConfigPath == "" {
		f.ConfigPath = viper.GetString(ConfigKey)
	}
}

// IsRemote reports whether commands should talk to a server instead of a local config.
func (f *Factory) IsRemote() bool {
	return f.RemoteAddr != ""
}

// GetClient returns a client acting as the configured actor.
func (f *Factory) GetClient() (*client.Client, error) {
	if f.RemoteAddr == "" {
		return nil, fmt.Errorf("server address not configured (use --server or set MAKERCHECKER_ADDR)")
	}
	var opts []client.Option
	if f.ActorID != "" {
		opts = append(opts, client.WithActor(core.Actor{ID: f.ActorID, Role: f.ActorRole}))
	}
	return client.New(f.RemoteAddr, opts...), nil
}

func (f *Factory) LoadConfig() (*config.Config, error) {
	if f.ConfigPath == "" {
		return nil, fmt.Errorf("config file not specified (use --config)")
	}
	return config.Load(f.ConfigPath)
}

// GetLocalRuntime builds an engine from the config file. Approved changes are only logged.
func (f *Factory) GetLocalRuntime(ctx context.Context) (*config.Runtime, error) {
	cfg, err := f.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config file: %w", err)
	}
	return cfg.Build(ctx, config.BuildOptions{})
}

func (f *Factory) bindConfigFlag(flags *pflag.FlagSet) {
	flags.StringVarP(&f.ConfigPath, "config", "c", "", "The maker-checker config file to use")
}
