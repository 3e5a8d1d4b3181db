// Package docs holds the OpenAPI document for the RestaurantAI API.
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
            "get": {"tags": ["health"], "summary": "Liveness probe", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/auth/login": {
            "post": {
                "tags": ["auth"], "summary": "Operator login",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AuthResponse"}}, "401": {"description": "Unauthorized"}}
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"], "summary": "Refresh access token",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.RefreshTokenRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.AuthResponse"}}, "401": {"description": "Unauthorized"}}
            }
        },
        "/api/v1/dashboard": {
            "get": {"security": [{"Bearer": []}], "tags": ["dashboard"], "summary": "Analytics dashboard", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/dashboard/metrics": {
            "get": {"security": [{"Bearer": []}], "tags": ["dashboard"], "summary": "Aggregated metrics", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/dashboard/legacy": {
            "get": {"security": [{"Bearer": []}], "tags": ["dashboard"], "summary": "Whole-dataset analysis", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/pipeline/run": {
            "post": {
                "security": [{"Bearer": []}], "tags": ["pipeline"], "summary": "Incremental run",
                "consumes": ["multipart/form-data"], "produces": ["application/json"],
                "parameters": [{"type": "file", "name": "file", "in": "formData"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/pipeline/reprocess": {
            "post": {
                "security": [{"Bearer": []}], "tags": ["pipeline"], "summary": "Reprocess everything",
                "consumes": ["multipart/form-data"], "produces": ["application/json"],
                "parameters": [{"type": "file", "name": "file", "in": "formData"}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/catalog": {
            "get": {"security": [{"Bearer": []}], "tags": ["catalog"], "summary": "Tag catalog", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/catalog/tags": {
            "post": {
                "security": [{"Bearer": []}], "tags": ["catalog"], "summary": "Add or update a catalog tag",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AddTagRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/api/v1/catalog/pending": {
            "get": {"security": [{"Bearer": []}], "tags": ["catalog"], "summary": "Tags awaiting review", "produces": ["application/json"], "responses": {"200": {"description": "OK"}}}
        },
        "/api/v1/catalog/pending/{tag}": {
            "delete": {
                "security": [{"Bearer": []}], "tags": ["catalog"], "summary": "Dismiss a pending tag",
                "parameters": [{"type": "string", "name": "tag", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/v1/leads": {
            "get": {
                "security": [{"Bearer": []}], "tags": ["leads"], "summary": "List leads", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "min_score", "in": "query"},
                    {"type": "string", "name": "categories", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/v1/leads/run": {
            "post": {
                "security": [{"Bearer": []}], "tags": ["leads"], "summary": "Score leads",
                "consumes": ["multipart/form-data"], "produces": ["application/json"],
                "parameters": [{"type": "file", "name": "file", "in": "formData"}],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/v1/leads/{id}/approve": {
            "post": {
                "security": [{"Bearer": []}], "tags": ["leads"], "summary": "Approve a lead",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/dto.ApproveLeadRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/api/v1/leads/export": {
            "get": {"security": [{"Bearer": []}], "tags": ["leads"], "summary": "Export leads as CSV", "produces": ["text/csv"], "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "dto.LoginRequest": {"type": "object", "properties": {"username": {"type": "string"}, "password": {"type": "string"}}},
        "dto.RefreshTokenRequest": {"type": "object", "properties": {"refresh_token": {"type": "string"}}},
        "dto.AuthResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"}, "refresh_token": {"type": "string"},
                "token_type": {"type": "string"}, "expires_in": {"type": "integer"}, "username": {"type": "string"}
            }
        },
        "dto.AddTagRequest": {
            "type": "object",
            "properties": {
                "tag": {"type": "string"}, "category": {"type": "string"},
                "synonyms": {"type": "array", "items": {"type": "string"}}, "enabled": {"type": "boolean"}
            }
        },
        "dto.ApproveLeadRequest": {"type": "object", "properties": {"promotion": {"type": "string"}}}
    },
    "securityDefinitions": {
        "Bearer": {"description": "Type \"Bearer\" followed by a space and JWT token.", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "RestaurantAI API",
	Description:      "Incremental tag analytics over restaurant customer feedback",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
