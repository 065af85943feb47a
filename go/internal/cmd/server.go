package main

import (
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/tiforama/go/internal/gateway"
	"github.com/mcdev12/tiforama/go/internal/groups"
	"github.com/mcdev12/tiforama/go/internal/tifos"
	"github.com/mcdev12/tiforama/go/internal/timesync"
)

func setupServer(port string, services *Services, gw *gateway.Service, clock timesync.Clock) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	registerServices(mux, services)
	gw.RegisterRoutes(mux)
	mux.Handle("/api/time", timesync.NewHandler(clock))
	setupHealthCheck(mux)

	handler := c.Handler(mux)

	return &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

func registerServices(mux *http.ServeMux, services *Services) {
	groupServicePath, groupServiceHandler := groups.NewGroupServiceHandler(services.Groups)
	mux.Handle(groupServicePath, groupServiceHandler)

	tifoServicePath, tifoServiceHandler := tifos.NewTifoServiceHandler(services.Tifos)
	mux.Handle(tifoServicePath, tifoServiceHandler)
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
