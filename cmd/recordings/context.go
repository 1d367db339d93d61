package main

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"meetup-library/pkg/config"
	"meetup-library/pkg/libraryservice"
	"meetup-library/pkg/logging"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{configFlag: configFlag, jsonFlag: jsonFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		logging.Configure(logging.Config{
			Level:   cfg.Logging.Level,
			Output:  os.Stderr,
			Service: "recordings-cli",
			Pretty:  true,
		})
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) logger(component string) zerolog.Logger {
	return logging.WithComponent(component)
}

// withService runs fn with a connected library service and closes it afterwards.
func (c *commandContext) withService(ctx context.Context, fn func(*libraryservice.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	svc, err := libraryservice.New(ctx, cfg, logging.Base())
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Close(closeCtx)
	}()
	return fn(svc)
}
