package main

import (
	"database/sql"

	"github.com/mcdev12/tiforama/go/internal/events"
	"github.com/mcdev12/tiforama/go/internal/groups"
	groupsdb "github.com/mcdev12/tiforama/go/internal/groups/db"
	"github.com/mcdev12/tiforama/go/internal/tifos"
	tifosdb "github.com/mcdev12/tiforama/go/internal/tifos/db"
)

type Services struct {
	Groups   *groups.Service
	Tifos    *tifos.Service
	TifosApp *tifos.App
}

func setupServices(database *sql.DB, publisher events.Publisher) *Services {
	// Database layer → Repository layer → App layer → Service layer

	// Groups
	groupQueries := groupsdb.New(database)
	groupsRepo := groups.NewRepository(groupQueries)
	groupsApp := groups.NewApp(groupsRepo)
	groupsService := groups.NewService(groupsApp)

	// Tifos
	tifoQueries := tifosdb.New(database)
	tifosRepo := tifos.NewRepository(database, tifoQueries)
	tifosApp := tifos.NewApp(tifosRepo, publisher)
	tifosService := tifos.NewService(tifosApp)

	return &Services{
		Groups:   groupsService,
		Tifos:    tifosService,
		TifosApp: tifosApp,
	}
}
