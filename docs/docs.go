// Package docs registers the OpenAPI description of the results API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Credentials",
                        "name": "credentials",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handlers.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.LoginResponse"}},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        },
        "/runs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Runs"],
                "summary": "List runs",
                "parameters": [
                    {"type": "integer", "description": "Page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Page offset", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/runs/active": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Runs"],
                "summary": "Runs in progress",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/runs/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Runs"],
                "summary": "Get a run",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Run"}},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/runs/{id}/windows": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Runs"],
                "summary": "List the windows of a run",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Page offset", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/runs/{id}/events": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Runs"],
                "summary": "Persisted events of a run",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Maximum events", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/runs/{id}/results": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Runs"],
                "summary": "Final algorithm results of a run",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/runs/{id}/series": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Metrics"],
                "summary": "Metric series of a run",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "default": "f1", "description": "Metric name", "name": "metric", "in": "query"},
                    {"type": "string", "default": "cumulative", "description": "current, cumulative or weighted", "name": "scope", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        }
    },
    "definitions": {
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"type": "object", "additionalProperties": {"type": "string"}},
                "status": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handlers.LoginResponse": {
            "type": "object",
            "properties": {
                "expires_in": {"type": "integer"},
                "token": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "models.Run": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "input_file": {"type": "string"},
                "format": {"type": "string"},
                "mode": {"type": "string"},
                "window_width": {"type": "integer"},
                "alpha": {"type": "number"},
                "algorithms": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string"},
                "error": {"type": "string"},
                "windows": {"type": "integer"},
                "lines_read": {"type": "integer"},
                "duration": {"type": "integer"},
                "started_at": {"type": "string"},
                "finished_at": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Botnet Detectors Comparer API",
	Description:      "Stored evaluation runs, per-window results and the live window feed.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
