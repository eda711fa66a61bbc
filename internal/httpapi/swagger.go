//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "basePath": "{{.BasePath}}",
    "paths": {
        "/status": {"get": {"produces": ["application/json"], "summary": "Channels, polls and panels", "responses": {"200": {"description": "OK"}}}},
        "/models": {"get": {"produces": ["application/json"], "summary": "Model names", "responses": {"200": {"description": "OK"}}}},
        "/models/{name}": {
            "get": {"produces": ["application/json"], "summary": "Model state", "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown model"}}},
            "patch": {"consumes": ["application/json"], "produces": ["application/json"], "summary": "Validated partial update", "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}, {"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}], "responses": {"200": {"description": "OK"}, "400": {"description": "Rejected update"}, "404": {"description": "Unknown model"}}}
        },
        "/panels": {"get": {"produces": ["application/json"], "summary": "Panel names", "responses": {"200": {"description": "OK"}}}},
        "/panels/{name}": {"get": {"produces": ["application/json"], "summary": "Latest accepted panel data", "parameters": [{"name": "name", "in": "path", "required": true, "type": "string"}], "responses": {"200": {"description": "OK"}, "404": {"description": "Unknown panel"}}}},
        "/refresh": {"post": {"produces": ["application/json"], "summary": "Re-request every panel and wait", "responses": {"200": {"description": "OK"}, "504": {"description": "Timed out"}}}}
    }
}`

// SwaggerInfo holds the exported Swagger document.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "livedash API",
	Description:      "Control surface for a live dashboard session.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// MountSwagger serves the Swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
