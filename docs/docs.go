// Package docs registers the OpenAPI document served under /swagger/. It
// follows the layout swag init writes, so regenerating from the handler
// annotations replaces it in place.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "Healthy or degraded", "schema": {"$ref": "#/definitions/api.HealthResponse"}},
                    "503": {"description": "Unhealthy", "schema": {"$ref": "#/definitions/api.HealthResponse"}}
                }
            }
        },
        "/v1/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Engine status",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SuccessResponse"}}}
            }
        },
        "/v1/profile": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Profile"],
                "summary": "Get loot profile",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SuccessResponse"}}}
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Profile"],
                "summary": "Update loot profile",
                "parameters": [{"description": "Switches to change", "name": "profile", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.ProfileUpdate"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SuccessResponse"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/v1/journal": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Loot"],
                "summary": "Recent loot actions",
                "parameters": [{"type": "integer", "default": 50, "description": "Number of entries, newest first", "name": "limit", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SuccessResponse"}},
                    "503": {"description": "Journal is not open", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/v1/highlights/{serial}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Highlight"],
                "summary": "Highlight of an item",
                "parameters": [{"type": "string", "description": "Item serial, decimal or 0x hex", "name": "serial", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SuccessResponse"}},
                    "404": {"description": "Item is not highlighted", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/v1/highlight/recheck": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Highlight"],
                "summary": "Re-evaluate every known item",
                "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/api.SuccessResponse"}}}
            }
        },
        "/v1/highlight/rules": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Rules"],
                "summary": "List rules",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SuccessResponse"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Rules"],
                "summary": "Create a rule",
                "parameters": [{"description": "Highlight rule", "name": "rule", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.HighlightRule"}}],
                "responses": {
                    "200": {"description": "An equivalent rule already exists", "schema": {"$ref": "#/definitions/api.SuccessResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/api.SuccessResponse"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/v1/autoloot/entries": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Rules"],
                "summary": "List rules",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SuccessResponse"}}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Rules"],
                "summary": "Create a rule",
                "parameters": [{"description": "Auto-loot entry", "name": "rule", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.LootEntry"}}],
                "responses": {
                    "200": {"description": "An equivalent rule already exists", "schema": {"$ref": "#/definitions/api.SuccessResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/api.SuccessResponse"}},
                    "422": {"description": "Validation failed", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/v1/containers/{serial}/loot": {
            "post": {
                "produces": ["application/json"],
                "tags": ["Loot"],
                "summary": "Loot a container now",
                "parameters": [{"type": "string", "description": "Container serial", "name": "serial", "in": "path", "required": true}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/api.SuccessResponse"}},
                    "404": {"description": "Container not found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/v1/settings/{name}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Settings"],
                "summary": "Get a setting",
                "parameters": [{"type": "string", "description": "Setting name", "name": "name", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SuccessResponse"}},
                    "404": {"description": "Setting is not set", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Settings"],
                "summary": "Store a setting",
                "parameters": [
                    {"type": "string", "description": "Setting name", "name": "name", "in": "path", "required": true},
                    {"description": "Value", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.SettingRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SuccessResponse"}}}
            }
        },
        "/v1/friends/{serial}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Friends"],
                "summary": "Add or rename a friend",
                "parameters": [
                    {"type": "string", "description": "Mobile serial", "name": "serial", "in": "path", "required": true},
                    {"description": "Friend name", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.FriendRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SuccessResponse"}}}
            }
        },
        "/v1/world/items": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["World"],
                "summary": "Feed item snapshots",
                "parameters": [{"description": "Items to store", "name": "items", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.ItemSnapshot"}}}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/api.SuccessResponse"}},
                    "422": {"description": "Item serial is required", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/v1/world/cursor": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["World"],
                "summary": "Report the cursor state",
                "parameters": [{"description": "Whether an item is held", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.CursorRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SuccessResponse"}}}
            }
        },
        "/v1/events": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["World"],
                "summary": "Feed game events",
                "parameters": [{"description": "Events in arrival order", "name": "events", "in": "body", "required": true, "schema": {"type": "array", "items": {"$ref": "#/definitions/api.EventRequest"}}}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/api.SuccessResponse"}},
                    "422": {"description": "Unknown event type", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/v1/moves/take": {
            "post": {
                "produces": ["application/json"],
                "tags": ["World"],
                "summary": "Collect requested item moves",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SuccessResponse"}}}
            }
        }
    },
    "definitions": {
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "VALIDATION_FAILED"},
                "details": {},
                "message": {"type": "string", "example": "Invalid input provided"},
                "status": {"type": "string", "example": "error"}
            }
        },
        "api.SuccessResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "status": {"type": "string", "example": "success"}
            }
        },
        "api.HealthResponse": {
            "type": "object",
            "properties": {
                "components": {"type": "object"},
                "status": {"type": "string", "example": "healthy"},
                "timestamp": {"type": "string", "example": "2026-01-01T12:00:00Z"},
                "uptime": {"type": "string", "example": "1h2m3s"}
            }
        },
        "api.ProfileUpdate": {
            "type": "object",
            "properties": {
                "action_delay_ms": {"type": "integer"},
                "auto_open_range": {"type": "integer"},
                "autoloot": {"type": "boolean"},
                "loot_human_corpses": {"type": "boolean"},
                "scavenger": {"type": "boolean"}
            }
        },
        "api.SettingRequest": {"type": "object", "properties": {"value": {"type": "string"}}},
        "api.FriendRequest": {"type": "object", "properties": {"name": {"type": "string"}}},
        "api.CursorRequest": {"type": "object", "properties": {"holding": {"type": "boolean"}}},
        "api.EventRequest": {
            "type": "object",
            "properties": {
                "serial": {"type": "integer"},
                "type": {"type": "string", "example": "container_opened"}
            }
        },
        "domain.PropertyLine": {
            "type": "object",
            "properties": {
                "first": {"type": "number"},
                "name": {"type": "string"},
                "second": {"type": "number"},
                "text": {"type": "string", "example": "Luck 150"}
            }
        },
        "domain.ItemSnapshot": {
            "type": "object",
            "properties": {
                "graphic": {"type": "integer"},
                "name": {"type": "string"},
                "properties": {"type": "array", "items": {"$ref": "#/definitions/domain.PropertyLine"}},
                "serial": {"type": "integer"}
            }
        },
        "domain.PropertyRule": {
            "type": "object",
            "properties": {
                "min_value": {"type": "number"},
                "name": {"type": "string"},
                "optional": {"type": "boolean"}
            }
        },
        "domain.HighlightRule": {
            "type": "object",
            "properties": {
                "exclude": {"type": "array", "items": {"type": "string"}},
                "graphic": {"type": "integer"},
                "color": {"type": "string", "example": "#FFD700"},
                "hue": {"type": "integer"},
                "id": {"type": "string"},
                "item_names": {"type": "array", "items": {"type": "string"}},
                "known_properties_only": {"type": "boolean"},
                "loot_on_match": {"type": "boolean"},
                "max_properties": {"type": "integer"},
                "min_properties": {"type": "integer"},
                "name": {"type": "string"},
                "overweight": {"type": "boolean"},
                "properties": {"type": "array", "items": {"$ref": "#/definitions/domain.PropertyRule"}},
                "rarities": {"type": "array", "items": {"type": "string"}},
                "regex": {"type": "string"},
                "slots": {"type": "integer"}
            }
        },
        "domain.LootEntry": {
            "type": "object",
            "properties": {
                "graphic": {"type": "integer"},
                "hue": {"type": "integer"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "regex": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Auto-Loot Engine API",
	Description:      "Control API for the grid highlight and auto-loot engine: rules, settings, friends and the host game-state feed",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
