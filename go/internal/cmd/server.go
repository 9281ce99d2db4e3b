package main

import (
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/grpcreflect"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/footy-auction/go/internal/auth"
	"github.com/mcdev12/footy-auction/go/internal/countdown"
)

func setupServer(cfg *Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	c := cors.New(corsOptions(cfg.Server.AllowedOrigins))

	registerServices(mux, services)
	setupReflection(mux)
	setupHealthCheck(mux)

	handler := c.Handler(auth.CapabilityMiddleware(services.Sessions)(mux))

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: origins,
		AllowedHeaders: []string{"*"},
	}
	// Browsers refuse credentialed requests to a wildcard origin.
	for _, o := range origins {
		if o == "*" {
			return opts
		}
	}
	opts.AllowCredentials = true
	return opts
}

func registerServices(mux *http.ServeMux, services *Services) {
	services.Countdown.RegisterRoutes(mux)
	services.Auth.RegisterRoutes(mux)
	services.Admin.RegisterRoutes(mux)
	services.Teams.RegisterRoutes(mux)

	rpcPath, rpcHandler := countdown.NewRPCHandler(services.Synchronizer)
	mux.Handle(rpcPath, rpcHandler)
}

func setupReflection(mux *http.ServeMux) {
	reflector := grpcreflect.NewStaticReflector(
		countdown.CountdownServiceName,
	)
	mux.Handle(grpcreflect.NewHandlerV1(reflector))
	mux.Handle(grpcreflect.NewHandlerV1Alpha(reflector))
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
