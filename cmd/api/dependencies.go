package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gorilla/sessions"

	"github.com/FACorreiaa/local-guide/internal/domain/favorites"
	"github.com/FACorreiaa/local-guide/internal/domain/places"
	"github.com/FACorreiaa/local-guide/pkg/config"
	"github.com/FACorreiaa/local-guide/pkg/db"
	"github.com/FACorreiaa/local-guide/pkg/interceptors"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	// nil when no session secret is configured
	SessionStore sessions.Store

	// Repositories
	PlacesRepo    places.Repository
	FavoritesRepo favorites.Repository

	// Services
	FavoritesService favorites.Service

	// Handlers
	FavoritesHandler *favorites.Handler
}

// InitDependencies initializes all application dependencies
func InitDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initDatabase opens the pool and runs migrations
func (d *Dependencies) initDatabase() error {
	dbCfg := d.Config.Database
	database, err := db.New(db.Config{
		DSN:             dbCfg.DSN(),
		MaxConns:        dbCfg.MaxConns,
		MinConns:        dbCfg.MinConns,
		MaxConnLifetime: dbCfg.MaxConnLifetime,
		MaxConnIdleTime: dbCfg.MaxConnIdleTime,
	}, d.Logger)
	if err != nil {
		return err
	}

	d.DB = database

	if err := d.DB.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	d.Logger.Info("database connected and migrations completed successfully")
	return nil
}

func (d *Dependencies) initRepositories() error {
	d.PlacesRepo = places.NewPostgresRepository(d.DB.SQL(), d.Logger)
	d.FavoritesRepo = favorites.NewRepositoryImpl(d.DB.Pool, d.Logger)

	d.Logger.Info("repositories initialized")
	return nil
}

func (d *Dependencies) initServices() error {
	authCfg := d.Config.Auth
	if authCfg.JWTSecret == "" && authCfg.SessionSecret == "" {
		return errors.New("auth.jwt_secret or auth.session_secret is required")
	}

	if authCfg.SessionSecret != "" {
		store, err := interceptors.NewSessionStore(authCfg.SessionSecret, secureCookies(d.Config.Server.Host))
		if err != nil {
			return err
		}
		d.SessionStore = store
	}

	d.FavoritesService = favorites.NewService(d.FavoritesRepo, d.PlacesRepo, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

func (d *Dependencies) initHandlers() error {
	d.FavoritesHandler = favorites.NewHandler(d.FavoritesService, d.Logger)
	d.Logger.Info("handlers initialized")
	return nil
}

// health reports whether the database answers.
func (d *Dependencies) health() error {
	if d.DB == nil {
		return errors.New("database not initialized")
	}
	return d.DB.Health()
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.DB != nil {
		d.DB.Close()
	}
	d.Logger.Info("cleanup completed")
}

// secureCookies is false only for loopback hosts, where the server runs over plain HTTP.
func secureCookies(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return false
	}
	return true
}
