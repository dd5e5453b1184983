package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"salesavor/internal/config"
)

type commandContext struct {
	configFlag  *string
	sessionFlag *string
	verbose     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, sessionFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		sessionFlag: sessionFlag,
		verbose:     verbose,
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

// sessionName is the --session flag when given, else session.name.
func (c *commandContext) sessionName() string {
	if c.sessionFlag != nil {
		if name := strings.TrimSpace(*c.sessionFlag); name != "" {
			return name
		}
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		return cfg.Session.Name
	}
	return "default"
}

func (c *commandContext) isVerbose() bool {
	return c.verbose != nil && *c.verbose
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
