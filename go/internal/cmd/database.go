package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/tiforama/go/internal/db"
	"github.com/mcdev12/tiforama/go/internal/dbconfig"
)

// setupDatabase opens the catalog database. An unreachable server is logged
// and tolerated: database/sql reconnects lazily and the catalog serves the
// demo tifo meanwhile.
func setupDatabase(ctx context.Context, applySchema bool) (*sql.DB, error) {
	dbCfg := dbconfig.NewConfigFromEnv()

	database, err := sql.Open("postgres", dbCfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := database.PingContext(pingCtx); err != nil {
		log.Warn().
			Err(err).
			Str("host", dbCfg.Host).
			Str("database", dbCfg.Database).
			Msg("database unreachable, serving demo tifo until it comes back")
		return database, nil
	}

	if applySchema {
		if err := db.ApplySchema(ctx, database); err != nil {
			database.Close()
			return nil, err
		}
		log.Info().Msg("catalog schema applied")
	}

	log.Info().
		Str("user", dbCfg.User).
		Str("host", dbCfg.Host).
		Int("port", dbCfg.Port).
		Str("database", dbCfg.Database).
		Msg("connected to database")
	return database, nil
}
