package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMIS Results API",
        "description": "Marks entry, eligibility and results aggregation for secondary schools",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Marks", "description": "Marks entry"},
        {"name": "Eligibility", "description": "Subject eligibility checks"},
        {"name": "Results", "description": "Aggregated results and rankings"},
        {"name": "Reports", "description": "Report cards and class sheets"},
        {"name": "Selections", "description": "O-Level optional subject selections"},
        {"name": "Assignments", "description": "Teacher-subject assignments"},
        {"name": "Exports", "description": "Asynchronous CSV exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current user profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/marks": {
            "post": {
                "tags": ["Marks"],
                "summary": "Enter marks for one student",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnterMarkRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation failed"},
                    "403": {"description": "Not assigned to this subject in this class"}
                }
            }
        },
        "/marks/batch": {
            "post": {
                "tags": ["Marks"],
                "summary": "Enter marks for many students",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnterBatchMarksRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/eligibility": {
            "get": {
                "tags": ["Eligibility"],
                "summary": "Check one student's eligibility for a subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "query", "required": true, "type": "string"},
                    {"name": "subjectId", "in": "query", "required": true, "type": "string"},
                    {"name": "academicYearId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/eligibility/classes/{classId}": {
            "get": {
                "tags": ["Eligibility"],
                "summary": "Check a whole class against a subject",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "subjectId", "in": "query", "required": true, "type": "string"},
                    {"name": "academicYearId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/results/students/{studentId}/exams/{examId}": {
            "get": {
                "tags": ["Results"],
                "summary": "Aggregated results for one student in an exam",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "examId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/results/classes/{classId}/exams/{examId}": {
            "get": {
                "tags": ["Results"],
                "summary": "Ranked results for a class in an exam",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "examId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/students/{studentId}/exams/{examId}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Student report card for an exam",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "examId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/classes/{classId}/exams/{examId}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Ranked class sheet for an exam",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "classId", "in": "path", "required": true, "type": "string"},
                    {"name": "examId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/selections": {
            "post": {
                "tags": ["Selections"],
                "summary": "Record an O-Level student's optional subject selection",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SelectSubjectsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Existing selection returned", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/selections/students/{studentId}": {
            "get": {
                "tags": ["Selections"],
                "summary": "Fetch a student's selection for an academic year",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "studentId", "in": "path", "required": true, "type": "string"},
                    {"name": "academicYearId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments": {
            "post": {
                "tags": ["Assignments"],
                "summary": "Assign a teacher to a subject in a class",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateAssignmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/{id}/status": {
            "patch": {
                "tags": ["Assignments"],
                "summary": "Activate or deactivate an assignment",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetAssignmentStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assignments/teachers/{teacherId}": {
            "get": {
                "tags": ["Assignments"],
                "summary": "List assignments for a teacher",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "teacherId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a class-results CSV export",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RequestExportPayload"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Poll an export job",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/download/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export via signed token",
                "produces": ["application/octet-stream"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "CSV file"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "EnterMarkRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "exam_id": {"type": "string"},
                "marks": {"type": "number"},
                "comment": {"type": "string"},
                "is_principal": {"type": "boolean"},
                "is_subsidiary": {"type": "boolean"}
            },
            "required": ["student_id", "subject_id", "exam_id", "marks"]
        },
        "BatchMarkItem": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "marks": {"type": "number"},
                "comment": {"type": "string"}
            },
            "required": ["student_id", "marks"]
        },
        "EnterBatchMarksRequest": {
            "type": "object",
            "properties": {
                "subject_id": {"type": "string"},
                "exam_id": {"type": "string"},
                "items": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/BatchMarkItem"}
                }
            },
            "required": ["subject_id", "exam_id", "items"]
        },
        "SelectSubjectsRequest": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "academic_year_id": {"type": "string"},
                "core_subject_ids": {"type": "array", "items": {"type": "string"}},
                "optional_subject_ids": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["student_id", "academic_year_id", "optional_subject_ids"]
        },
        "CreateAssignmentRequest": {
            "type": "object",
            "properties": {
                "teacher_id": {"type": "string"},
                "subject_id": {"type": "string"},
                "class_id": {"type": "string"}
            },
            "required": ["teacher_id", "subject_id", "class_id"]
        },
        "SetAssignmentStatusRequest": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["ACTIVE", "INACTIVE"]}
            },
            "required": ["status"]
        },
        "RequestExportPayload": {
            "type": "object",
            "properties": {
                "classId": {"type": "string"},
                "examId": {"type": "string"}
            },
            "required": ["classId", "examId"]
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
