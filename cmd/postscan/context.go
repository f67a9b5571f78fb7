package main

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"postscan/internal/api"
	"postscan/internal/config"
	"postscan/internal/logging"
	"postscan/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
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

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// withStore opens the scan database for the duration of fn.
func (c *commandContext) withStore(fn func(*store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (c *commandContext) apiClient() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return api.NewClient(
		cfg.API.BaseURL,
		api.WithTimeouts(
			time.Duration(cfg.API.RequestTimeout)*time.Second,
			time.Duration(cfg.API.UploadTimeout)*time.Second,
		),
	), nil
}

var errNotLoggedIn = errors.New("not logged in; run `postscan login` first")

// currentCredential returns the stored credential, failing when absent and
// warning when the token looks expired.
func currentCredential(ctx context.Context, st *store.Store) (api.Credential, error) {
	session, err := st.CurrentSession(ctx)
	if err != nil {
		return "", err
	}
	if session == nil || !session.LoggedIn() {
		return "", errNotLoggedIn
	}
	cred := api.Credential(session.Token)
	if cred.Expired(time.Now()) {
		return "", errors.New("session has expired; run `postscan login` again")
	}
	return cred, nil
}
