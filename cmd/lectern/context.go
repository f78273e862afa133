package main

import (
	"fmt"
	"strings"
	"sync"

	"lectern/internal/config"
)

// commandContext resolves configuration lazily and shares the API client
// between commands.
type commandContext struct {
	apiFlag    *string
	configFlag *string
	tokenFlag  *string

	once sync.Once
	cfg  *config.Config
	err  error
}

func newCommandContext(apiFlag, configFlag, tokenFlag *string) *commandContext {
	return &commandContext{apiFlag: apiFlag, configFlag: configFlag, tokenFlag: tokenFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.once.Do(func() {
		path := ""
		if c.configFlag != nil {
			path = *c.configFlag
		}
		cfg, _, err := config.Load(path)
		if err != nil {
			c.err = fmt.Errorf("load config: %w", err)
			return
		}
		c.cfg = cfg
	})
	return c.cfg, c.err
}

// client builds the API client from flags and configuration. The --api flag
// wins over the configured bind address.
func (c *commandContext) client() (*apiClient, error) {
	base := ""
	token := ""
	if c.apiFlag != nil {
		base = strings.TrimSpace(*c.apiFlag)
	}
	if c.tokenFlag != nil {
		token = strings.TrimSpace(*c.tokenFlag)
	}

	if base == "" || token == "" {
		cfg, err := c.ensureConfig()
		if err != nil {
			return nil, err
		}
		if base == "" {
			bind := strings.TrimSpace(cfg.Paths.APIBind)
			if bind == "" {
				return nil, fmt.Errorf("no API address configured; set paths.api_bind or pass --api")
			}
			base = "http://" + bind
		}
		if token == "" {
			token = strings.TrimSpace(cfg.Paths.APIToken)
		}
	}
	return newAPIClient(base, token), nil
}
