package main

import (
	"context"
	"fmt"
	"time"

	"github.com/MimeLyc/llsub/internal/config"
	"github.com/MimeLyc/llsub/internal/persistence"
	"github.com/MimeLyc/llsub/internal/service"
	"github.com/MimeLyc/llsub/internal/translator"
	"github.com/MimeLyc/llsub/pkg/log"
)

// commandContext carries the global flags and the resources built from them.
type commandContext struct {
	configFlag  string
	backendFlag string
	styleFlag   string
	envFile     string

	cfg    *config.Config
	closer []func() error
}

func (c *commandContext) loadConfig(opts ...config.Option) (*config.Config, error) {
	config.LoadDotEnv(c.envFile)

	opts = append(opts, config.WithBackend(c.backendFlag), config.WithMergeStyle(c.styleFlag))
	cfg, path, err := config.Load(c.configFlag, opts...)
	if err != nil {
		return nil, service.WrapError(err, service.ErrConfig, "failed to load configuration")
	}
	if err := c.initLogger(cfg); err != nil {
		return nil, err
	}
	if path != "" {
		log.Debug("Loaded configuration from %s", path)
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) initLogger(cfg *config.Config) error {
	level := log.ParseLevel(cfg.Log.Level)
	if cfg.Log.File == "" {
		log.InitLogger(level)
		return nil
	}

	fileLogger, err := log.NewFileLogger(cfg.Log.File, level)
	if err != nil {
		return service.WrapError(err, service.ErrConfig, "failed to open log file").WithContext("path", cfg.Log.File)
	}
	log.SetLogger(fileLogger.Logger)
	c.closer = append(c.closer, fileLogger.Close)
	return nil
}

// backends opens the translation memory, when configured, and the backend
// clients.
func (c *commandContext) backends(ctx context.Context) (*service.Backends, error) {
	cfg := c.cfg

	var memory translator.Memory
	if cfg.Cache.Path != "" {
		store, err := persistence.NewSQLiteStore(cfg.Cache.Path)
		if err != nil {
			return nil, service.WrapError(err, service.ErrConfig, "failed to open translation memory").
				WithContext("path", cfg.Cache.Path)
		}
		c.closer = append(c.closer, store.Close)
		memory = store

		if cfg.Cache.TTLDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -cfg.Cache.TTLDays)
			if removed, err := store.PruneTranslations(ctx, cutoff); err != nil {
				log.Warn("Failed to prune translation memory: %v", err)
			} else if removed > 0 {
				log.Info("Pruned %d translations older than %d days", removed, cfg.Cache.TTLDays)
			}
		}
	}

	backends, err := service.NewBackends(ctx, cfg, memory)
	if err != nil {
		return nil, err
	}
	c.closer = append(c.closer, backends.Close)
	return backends, nil
}

func (c *commandContext) close() {
	for i := len(c.closer) - 1; i >= 0; i-- {
		if err := c.closer[i](); err != nil {
			log.Warn("Cleanup failed: %v", err)
		}
	}
	c.closer = nil
}

func describeTarget(cfg *config.Config) string {
	return fmt.Sprintf("%s via %s", cfg.Translate.TargetLanguage, cfg.Translate.Backend)
}
