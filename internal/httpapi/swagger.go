//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/swaggo/swag"
	httpSwagger "github.com/swaggo/http-swagger"
)

// commandDoc is a hand-maintained OpenAPI document for the command routes.
const commandDoc = `{
  "swagger": "2.0",
  "info": {"title": "llamadesk API", "version": "1.0"},
  "basePath": "/",
  "paths": {
    "/window/show": {"post": {"summary": "Show the main window", "responses": {"204": {"description": "shown"}}}},
    "/cancel": {"post": {"summary": "Request cancellation of the running operation", "responses": {"204": {"description": "requested"}}}},
    "/models/load": {"post": {"summary": "Load a model", "parameters": [{"in": "query", "name": "async", "type": "boolean"}], "responses": {"204": {"description": "loaded"}, "202": {"description": "started"}, "409": {"description": "invalid state"}, "500": {"description": "engine failure"}}}},
    "/inference": {"post": {"summary": "Run inference; tokens are streamed on /events", "responses": {"204": {"description": "finished"}, "400": {"description": "missing prompt or negative max_token_count"}, "409": {"description": "invalid state or cancelled"}, "503": {"description": "model not loaded"}}}},
    "/inference/defaults": {"get": {"summary": "Default sampling parameters", "responses": {"200": {"description": "parameters"}}}},
    "/events": {"get": {"summary": "Server-sent event stream", "produces": ["text/event-stream"], "responses": {"200": {"description": "stream"}}}},
    "/models": {"get": {"summary": "List model files", "responses": {"200": {"description": "models"}}}},
    "/status": {"get": {"summary": "Current action and counters", "responses": {"200": {"description": "status"}}}}
  }
}`

type commandSpec struct{}

func (commandSpec) ReadDoc() string { return commandDoc }

func init() {
	swag.Register(swag.Name, commandSpec{})
}

// MountSwagger mounts the Swagger UI and doc.json under /swagger.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}
