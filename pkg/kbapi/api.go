// Package kbapi assembles the bridge's HTTP surface: a chi router with huma
// operations mounted on it.
package kbapi

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	Title   = "Cool Shop Knowledge Hub bridge"
	Version = "1.0.0"
)

type Api struct {
	Api    huma.API
	Router *chi.Mux
}

func NewApi() *Api {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	config := huma.DefaultConfig(Title, Version)
	config.Info.Description = "Installs the Cool Shop Knowledge Hub into Ada bots over OAuth and removes it on signed uninstall."

	api := humachi.New(router, config)

	return &Api{Api: api, Router: router}
}
