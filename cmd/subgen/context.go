package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"subgen/internal/config"
	"subgen/internal/logging"
	"subgen/internal/services"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	configOnce   sync.Once
	config       *config.Config
	configPath   string
	configExists bool
	configErr    error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(flagValue(c.configFlag))
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if err := applyLoggingOverrides(cfg, flagValue(c.logLevelFlag), flagValue(c.logFormatFlag)); err != nil {
			c.configErr = services.Wrap(services.ErrValidation, "config", "logging flags", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg, colorEnabled(os.Stderr))
		if err != nil {
			c.loggerErr = fmt.Errorf("init logger: %w", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// prepare returns a copy of the loaded configuration for per-command
// overrides together with the logger.
func (c *commandContext) prepare() (*config.Config, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	copied := *cfg
	copied.Subtitles.Formats = append([]string(nil), cfg.Subtitles.Formats...)
	copied.Watch.Extensions = append([]string(nil), cfg.Watch.Extensions...)
	return &copied, logger, nil
}

func applyLoggingOverrides(cfg *config.Config, level, format string) error {
	if level == "" && format == "" {
		return nil
	}
	if level != "" {
		cfg.Logging.Level = strings.ToLower(level)
	}
	if format != "" {
		cfg.Logging.Format = strings.ToLower(format)
	}
	return cfg.Validate()
}

func flagValue(flag *string) string {
	if flag == nil {
		return ""
	}
	return strings.TrimSpace(*flag)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// exactArgs is cobra.ExactArgs with the error tagged as a usage problem.
func exactArgs(n int, what string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return services.Wrap(services.ErrValidation, cmd.Name(), "arguments",
				fmt.Sprintf("expected %s, got %d argument(s)", what, len(args)), nil)
		}
		return nil
	}
}
