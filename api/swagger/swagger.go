package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Showtime API",
        "description": "Cinema showtime scheduling: bookings, conflict detection and forecast generation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Movies", "description": "Title catalog"},
        {"name": "Cinemas", "description": "Rooms and pricing tiers"},
        {"name": "Bookings", "description": "Showings, conflicts and slots"},
        {"name": "Forecasts", "description": "Slate generation and predictions"},
        {"name": "Commands", "description": "Named operation dispatch"}
    ],
    "paths": {
        "/movies": {
            "get": {
                "tags": ["Movies"],
                "summary": "List movies",
                "parameters": [
                    {"name": "title", "in": "query", "type": "string"},
                    {"name": "genre", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Movies"],
                "summary": "Create movie",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateMovieRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/movies/{id}": {
            "get": {
                "tags": ["Movies"],
                "summary": "Get movie",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Movies"],
                "summary": "Update movie",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateMovieRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Movies"],
                "summary": "Delete movie",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/cinemas": {
            "get": {
                "tags": ["Cinemas"],
                "summary": "List rooms",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Cinemas"],
                "summary": "Create room",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCinemaRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cinemas/{id}/available-slots": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List free slots of a room on a day",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string"},
                    {"name": "movie_id", "in": "query", "required": true, "type": "string"},
                    {"name": "interval", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/cinema-types": {
            "get": {
                "tags": ["Cinemas"],
                "summary": "List pricing tiers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings",
                "parameters": [
                    {"name": "date_from", "in": "query", "required": true, "type": "string"},
                    {"name": "date_to", "in": "query", "required": true, "type": "string"},
                    {"name": "cinema_id", "in": "query", "type": "string"},
                    {"name": "movie_id", "in": "query", "type": "string"},
                    {"name": "forecast_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Bookings"],
                "summary": "Create booking",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/conflicts": {
            "post": {
                "tags": ["Bookings"],
                "summary": "Check a candidate booking for conflicts",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckConflictsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Get booking",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Bookings"],
                "summary": "Update booking",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateBookingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Bookings"],
                "summary": "Cancel booking",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/forecasts": {
            "get": {
                "tags": ["Forecasts"],
                "summary": "List forecasts",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Forecasts"],
                "summary": "Create forecast and generate its slate",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateForecastRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forecasts/{id}": {
            "get": {
                "tags": ["Forecasts"],
                "summary": "Get forecast",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Forecasts"],
                "summary": "Delete forecast and its generated slate",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/forecasts/{id}/regenerate": {
            "post": {
                "tags": ["Forecasts"],
                "summary": "Re-run a terminal forecast",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/forecasts/{id}/prediction": {
            "get": {
                "tags": ["Forecasts"],
                "summary": "Get prediction metrics",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/commands": {
            "post": {
                "tags": ["Commands"],
                "summary": "Execute a named scheduling command",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CommandEnvelope"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "CreateMovieRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "duration_minutes": {"type": "integer"},
                "genre": {"type": "string"},
                "rating": {"type": "string"},
                "description": {"type": "string"},
                "release_date": {"type": "string"}
            },
            "required": ["title", "duration_minutes"]
        },
        "UpdateMovieRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "duration_minutes": {"type": "integer"},
                "genre": {"type": "string"},
                "rating": {"type": "string"},
                "description": {"type": "string"},
                "release_date": {"type": "string"}
            }
        },
        "CreateCinemaRequest": {
            "type": "object",
            "properties": {
                "room_number": {"type": "integer"},
                "cinema_type_id": {"type": "string"},
                "total_seats": {"type": "integer"},
                "location": {"type": "string"},
                "features": {"type": "object"}
            },
            "required": ["room_number", "cinema_type_id", "total_seats"]
        },
        "CreateBookingRequest": {
            "type": "object",
            "properties": {
                "movie_id": {"type": "string"},
                "cinema_id": {"type": "string"},
                "time_slot": {"type": "string"},
                "unit_price": {"type": "number"},
                "service_fee": {"type": "number"},
                "max_sales": {"type": "integer"}
            },
            "required": ["movie_id", "cinema_id", "time_slot"]
        },
        "UpdateBookingRequest": {
            "type": "object",
            "properties": {
                "time_slot": {"type": "string"},
                "unit_price": {"type": "number"},
                "service_fee": {"type": "number"},
                "max_sales": {"type": "integer"},
                "status": {"type": "string"}
            }
        },
        "CheckConflictsRequest": {
            "type": "object",
            "properties": {
                "movie_id": {"type": "string"},
                "cinema_id": {"type": "string"},
                "room_number": {"type": "integer"},
                "time_slot": {"type": "string"},
                "exclude_id": {"type": "string"}
            },
            "required": ["movie_id", "time_slot"]
        },
        "CreateForecastRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "date_range_start": {"type": "string"},
                "date_range_end": {"type": "string"},
                "optimization_parameters": {"$ref": "#/definitions/OptimizationParameters"},
                "created_by": {"type": "string"}
            },
            "required": ["name", "date_range_start", "date_range_end"]
        },
        "OptimizationParameters": {
            "type": "object",
            "properties": {
                "revenue_goal": {"type": "number"},
                "occupancy_goal": {"type": "number"},
                "movie_preferences": {"type": "object"}
            }
        },
        "CommandEnvelope": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "arguments": {"type": "object"}
            },
            "required": ["name"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"},
                "has_prev": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
