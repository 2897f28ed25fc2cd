// Package app wires configuration, secrets, storage, and services together
// and exposes them as CLI commands.
package app

import (
	"fmt"
	"log"

	"figmatext/internal/config"
	"figmatext/internal/dbclient"
	"figmatext/internal/domain"
	"figmatext/internal/etl"
	"figmatext/internal/localization"
	"figmatext/internal/secret"
	"figmatext/internal/service"

	_ "figmatext/internal/etl/sources"
)

// App holds the services shared by every command.
type App struct {
	cfg   *config.Config
	store domain.Store

	sync  *service.SyncService
	texts *service.LocalizationService

	figmaConfigured bool
}

// New loads the configuration at cfgPath (defaults and environment only when
// empty), resolves secrets, and opens the snapshot store.
func New(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

// NewWithConfig wires an App from an already loaded configuration.
func NewWithConfig(cfg *config.Config) (*App, error) {
	secrets := secret.Chain{secret.NewEnvStore()}
	if cfg.SecretsDir != "" {
		secrets = append(secrets, secret.NewFileStore(cfg.SecretsDir))
	}

	token, err := secret.GetString(secrets, secret.FigmaAccessToken)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", secret.FigmaAccessToken, err)
	}
	signingKey, err := secret.GetString(secrets, secret.HMACSecretKey)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", secret.HMACSecretKey, err)
	}
	dbPassword, err := secret.GetString(secrets, secret.DatabasePassword)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", secret.DatabasePassword, err)
	}
	if signingKey == "" {
		log.Printf("app: %s not set, JSON exports are unsigned", secret.HMACSecretKey)
	}

	store, err := dbclient.Open(&cfg.Database, dbPassword)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	syncCfg := service.SyncConfig{
		FileKey:    cfg.Figma.FileKey,
		SourceType: cfg.Figma.Source,
		SourceCfg:  sourceConfig(cfg, token),
		Schedule:   cfg.Sync.Schedule,
		WatchFile:  cfg.Sync.WatchFile,
	}

	return &App{
		cfg:             cfg,
		store:           store,
		sync:            service.NewSyncService(store, service.LogEmitter{}, syncCfg),
		texts:           service.NewLocalizationService(store, localization.NewSigner(signingKey), cfg.Figma.FileKey),
		figmaConfigured: token != "",
	}, nil
}

// sourceConfig builds the configuration of the selected document source.
func sourceConfig(cfg *config.Config, token string) etl.SourceConfig {
	switch cfg.Figma.Source {
	case "json_file":
		return etl.SourceConfig{"filePath": cfg.Figma.DocumentFile}
	default:
		return etl.SourceConfig{"token": token, "baseURL": cfg.Figma.APIURL}
	}
}

// Close stops triggers and closes the store.
func (a *App) Close() error {
	a.sync.Stop()
	return a.store.Close()
}
