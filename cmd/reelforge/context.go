package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/notifications"
	"reelforge/internal/services/factory"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	formatFlag   *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag, formatFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		formatFlag:   formatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		level := ""
		if c.logLevelFlag != nil {
			level = strings.TrimSpace(*c.logLevelFlag)
		}
		logger, err := logging.NewFromConfig(cfg, level)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) format() string {
	if c.formatFlag == nil {
		return formatTable
	}
	return strings.ToLower(strings.TrimSpace(*c.formatFlag))
}

func (c *commandContext) client() (*factory.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return factory.NewClient(factory.Config{
		BaseURL:      cfg.Service.BaseURL,
		ShortTimeout: cfg.ShortTimeout(),
		LongTimeout:  cfg.LongTimeout(),
	}, factory.WithLogger(c.ensureLogger()))
}

func (c *commandContext) notifier() notifications.Service {
	cfg, err := c.ensureConfig()
	if err != nil {
		return notifications.NewService(nil)
	}
	return notifications.NewService(cfg)
}

// withWorkspace opens the persisted workspace for the duration of fn. Pending
// auto-advances are flushed and tracker state is saved before it returns.
func (c *commandContext) withWorkspace(fn func(*workspace) error) (err error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	client, err := c.client()
	if err != nil {
		return err
	}
	ws, err := openWorkspace(cfg, client, c.notifier(), c.ensureLogger())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := ws.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("save workspace: %w", closeErr)
		}
	}()
	return fn(ws)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
