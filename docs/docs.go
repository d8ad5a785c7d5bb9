// Package docs holds the Swagger document served at /swagger/index.html.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Exchange credentials for a bearer token",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.LoginResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/v1/videos": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["videos"],
                "summary": "List videos, newest first",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Video"}}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Stores the link and queues transcription, research and drafting.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["videos"],
                "summary": "Submit a video link",
                "parameters": [
                    {"description": "Video link", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.CreateVideoRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/api.CreateVideoResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/v1/videos/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["videos"],
                "summary": "Get a video",
                "parameters": [{"type": "integer", "description": "Video ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Video"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["videos"],
                "summary": "Delete a video",
                "parameters": [{"type": "integer", "description": "Video ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/v1/videos/{id}/retry": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Re-runs research only when a transcription exists, otherwise the full workflow.",
                "produces": ["application/json"],
                "tags": ["videos"],
                "summary": "Retry a video",
                "parameters": [{"type": "integer", "description": "Video ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/api.RetryResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/v1/videos/{id}/research": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["videos"],
                "summary": "Replace research notes and redraft",
                "parameters": [
                    {"type": "integer", "description": "Video ID", "name": "id", "in": "path", "required": true},
                    {"description": "Research notes", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.UpdateResearchRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/models.Video"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/api/v1/settings/transcriber": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Get the transcription worker URL",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.TranscriberSettingsResponse"}}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["settings"],
                "summary": "Set the transcription worker URL",
                "parameters": [
                    {"description": "Worker URL", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.TranscriberSettingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.TranscriberSettingsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}}},
        "api.LoginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {"password": {"type": "string"}, "username": {"type": "string"}}
        },
        "api.LoginResponse": {
            "type": "object",
            "properties": {"expires_at": {"type": "string"}, "token": {"type": "string"}}
        },
        "api.CreateVideoRequest": {
            "type": "object",
            "required": ["url"],
            "properties": {"url": {"type": "string"}}
        },
        "api.CreateVideoResponse": {
            "type": "object",
            "properties": {"task_id": {"type": "string"}, "video": {"$ref": "#/definitions/models.Video"}}
        },
        "api.RetryResponse": {
            "type": "object",
            "properties": {"id": {"type": "integer"}, "mode": {"type": "string"}}
        },
        "api.UpdateResearchRequest": {
            "type": "object",
            "required": ["research_notes"],
            "properties": {"research_notes": {"type": "string"}}
        },
        "api.TranscriberSettingsRequest": {"type": "object", "properties": {"url": {"type": "string"}}},
        "api.TranscriberSettingsResponse": {"type": "object", "properties": {"url": {"type": "string"}}},
        "models.Video": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "drafts": {"type": "array", "items": {"type": "string"}},
                "id": {"type": "integer"},
                "last_error": {"type": "string"},
                "research_notes": {"type": "string"},
                "sources": {"type": "array", "items": {}},
                "status": {"type": "string"},
                "transcription": {"type": "string"},
                "updated_at": {"type": "string"},
                "url": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "clipthread API",
	Description:      "Turns short-form video links into researched, cited post drafts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
