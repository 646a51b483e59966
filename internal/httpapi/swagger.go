//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

// apiDoc serves the hand-maintained OpenAPI 2.0 document.
type apiDoc struct{}

func (apiDoc) ReadDoc() string { return openAPIDoc }

func init() {
	swag.Register(swag.Name, apiDoc{})
}

// MountSwagger serves the Swagger UI under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

const openAPIDoc = `{
  "swagger": "2.0",
  "info": {
    "title": "localqa API",
    "description": "Ask questions against locally stored GGUF models.",
    "version": "1.0"
  },
  "basePath": "/",
  "schemes": ["http"],
  "consumes": ["application/json"],
  "produces": ["application/json"],
  "paths": {
    "/models": {
      "get": {"summary": "List known models", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ModelsResponse"}}}},
      "post": {
        "summary": "Add a model file by path",
        "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/PathRequest"}}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/MessageResponse"}}, "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
      }
    },
    "/models/refresh": {
      "post": {"summary": "Merge configured and scanned models", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ModelsResponse"}}}}
    },
    "/models/refresh/cancel": {
      "post": {"summary": "Cancel a running refresh", "responses": {"204": {"description": "No Content"}}}
    },
    "/state": {
      "get": {"summary": "Observable state", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/StateResponse"}}}}
    },
    "/selection": {
      "put": {
        "summary": "Select a registered model",
        "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/PathRequest"}}],
        "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/StateResponse"}}, "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}}
      }
    },
    "/question": {
      "put": {
        "summary": "Set the pending question",
        "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/QuestionRequest"}}],
        "responses": {"204": {"description": "No Content"}}
      },
      "delete": {"summary": "Clear the pending question", "responses": {"204": {"description": "No Content"}}}
    },
    "/ask": {
      "post": {
        "summary": "Submit a question",
        "parameters": [{"in": "body", "name": "body", "required": false, "schema": {"$ref": "#/definitions/QuestionRequest"}}],
        "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/AskResponse"}}, "409": {"description": "Rejected", "schema": {"$ref": "#/definitions/AskResponse"}}}
      }
    },
    "/ask/cancel": {
      "post": {"summary": "Cancel the in-flight ask", "responses": {"202": {"description": "Accepted", "schema": {"$ref": "#/definitions/MessageResponse"}}, "409": {"description": "Nothing in flight", "schema": {"$ref": "#/definitions/ErrorResponse"}}}}
    },
    "/answer": {
      "get": {"summary": "Copy the latest answer", "produces": ["text/plain"], "responses": {"200": {"description": "OK"}, "204": {"description": "No answer"}}}
    }
  },
  "definitions": {
    "ModelDescriptor": {"type": "object", "properties": {"name": {"type": "string"}, "file_path": {"type": "string"}, "description": {"type": "string"}, "is_user_added": {"type": "boolean"}}},
    "ModelsResponse": {"type": "object", "properties": {"models": {"type": "array", "items": {"$ref": "#/definitions/ModelDescriptor"}}, "selected": {"type": "string"}}},
    "PathRequest": {"type": "object", "properties": {"path": {"type": "string"}}},
    "QuestionRequest": {"type": "object", "properties": {"question": {"type": "string"}}},
    "AskResponse": {"type": "object", "properties": {"accepted": {"type": "boolean"}, "state": {"type": "string"}}},
    "MessageResponse": {"type": "object", "properties": {"message": {"type": "string"}}},
    "StateResponse": {"type": "object", "properties": {
      "state": {"type": "string"}, "last_outcome": {"type": "string"}, "selected": {"$ref": "#/definitions/ModelDescriptor"},
      "question": {"type": "string"}, "answer": {"type": "string"}, "is_processing": {"type": "boolean"},
      "is_loading_models": {"type": "boolean"}, "request_id": {"type": "string"}, "model_count": {"type": "integer"}}},
    "ErrorResponse": {"type": "object", "properties": {"error": {"type": "string"}, "code": {"type": "integer"}}}
  }
}`
