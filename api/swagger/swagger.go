package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Course Registration & Grading API",
        "description": "Eligibility, section allocation, term ledger and GPA engine",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Registration", "description": "Eligible offerings and registration batches"},
        {"name": "Grades", "description": "Score entry and term finalization"},
        {"name": "Term Clock", "description": "Active academic year, term and registration window"},
        {"name": "Sections", "description": "Section administration"}
    ],
    "paths": {
        "/students/{id}/eligible-offerings": {
            "get": {
                "tags": ["Registration"],
                "summary": "List offerings a student may register for",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/registrations": {
            "post": {
                "tags": ["Registration"],
                "summary": "Submit a registration batch",
                "description": "Items are applied independently in order. An item with no section ids withdraws from the offering.",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegistrationBatch"}}
                ],
                "responses": {
                    "200": {"description": "Per-item results", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed batch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Registration closed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/scores": {
            "put": {
                "tags": ["Grades"],
                "summary": "Record coursework and exam scores",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScoreInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid scores", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Enrollment not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/{id}/finalize": {
            "post": {
                "tags": ["Grades"],
                "summary": "Recompute GPA, CGPA and earned hours of one student term",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Term not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/terms/finalize": {
            "post": {
                "tags": ["Grades"],
                "summary": "Finalize every student term of an academic year and term",
                "parameters": [
                    {"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/FinalizeTermRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/term-clock": {
            "get": {
                "tags": ["Term Clock"],
                "summary": "Get the current term clock",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Term Clock"],
                "summary": "Create the term clock",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TermClockInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Clock already exists", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Term Clock"],
                "summary": "Update the term clock",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TermClockInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/offerings/{id}/sections": {
            "post": {
                "tags": ["Sections"],
                "summary": "Add a section to an offering",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Capacity or time slot rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "RegistrationItem": {
            "type": "object",
            "required": ["offering_id"],
            "properties": {
                "offering_id": {"type": "string"},
                "section_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "RegistrationBatch": {
            "type": "object",
            "required": ["items"],
            "properties": {
                "items": {"type": "array", "minItems": 1, "items": {"$ref": "#/definitions/RegistrationItem"}}
            }
        },
        "ScoreInput": {
            "type": "object",
            "properties": {
                "coursework": {"type": "integer", "minimum": 0},
                "exam": {"type": "integer", "minimum": 0},
                "coursework_max": {"type": "integer", "minimum": 0},
                "exam_max": {"type": "integer", "minimum": 0}
            }
        },
        "FinalizeTermRequest": {
            "type": "object",
            "properties": {
                "academic_year": {"type": "string"},
                "term": {"type": "string", "enum": ["fall", "spring", "summer"]}
            }
        },
        "TermClockInput": {
            "type": "object",
            "required": ["academic_year", "term"],
            "properties": {
                "academic_year": {"type": "string"},
                "term": {"type": "string", "enum": ["fall", "spring", "summer"]},
                "registration_open": {"type": "boolean"}
            }
        },
        "TimeSlotRequest": {
            "type": "object",
            "properties": {
                "day": {"type": "integer", "minimum": 0, "maximum": 5},
                "start_period": {"type": "integer", "minimum": 1, "maximum": 12},
                "end_period": {"type": "integer", "minimum": 1, "maximum": 12},
                "educator_id": {"type": "string"},
                "location": {"type": "string"}
            }
        },
        "CreateSectionRequest": {
            "type": "object",
            "required": ["name", "type", "capacity"],
            "properties": {
                "name": {"type": "string"},
                "type": {"type": "string", "enum": ["LEC", "LAB", "TUT"]},
                "capacity": {"type": "integer", "minimum": 1},
                "time_slots": {"type": "array", "items": {"$ref": "#/definitions/TimeSlotRequest"}}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
