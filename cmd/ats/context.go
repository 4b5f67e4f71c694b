package main

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"ats/config"
	"ats/infrastructure"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *logrus.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// log writes to stderr so command output on stdout stays clean.
func (c *commandContext) log() *logrus.Logger {
	c.loggerOnce.Do(func() {
		var cfg config.Logging
		if c.config != nil {
			cfg = c.config.Logging
		}
		c.logger = infrastructure.NewLogger(cfg, os.Stderr)
	})
	return c.logger
}

// openDatabase connects and migrates. The caller closes the handle.
func (c *commandContext) openDatabase() (*gorm.DB, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	db, err := infrastructure.OpenDatabase(cfg.Database, c.log())
	if err != nil {
		return nil, err
	}
	if err := infrastructure.Migrate(db); err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, err
	}
	return db, nil
}
