package ltpanel

import (
	"fmt"
	"net/http"
)

// OpenAPIHandler serves the OpenAPI 3.0 spec at GET /openapi.json
func OpenAPIHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, openAPISpec)
}

// DocsHandler serves the Redoc UI at GET /
func DocsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, redocHTML)
}

const openAPISpec = `{
  "openapi": "3.0.3",
  "info": {
    "title": "ltpanel API",
    "description": "Check text with a LanguageTool-compatible service, suppress matches with a personal dictionary and ignored rules, apply replacements.",
    "version": "1.0.0"
  },
  "paths": {
    "/v1/sessions": {
      "post": {
        "summary": "Open a session",
        "description": "Creates a session for the given text and runs the first check. Server files and page fetching are only available when the server enables them.",
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": { "$ref": "#/components/schemas/Source" },
              "examples": {
                "text": { "value": { "text": "This is teh text." } },
                "page": { "value": { "url": "https://example.com/post" } }
              }
            }
          }
        },
        "responses": {
          "201": { "description": "Session opened and checked", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Session" } } } },
          "400": { "description": "Invalid request or nothing to check" },
          "403": { "description": "path/html outside the configured file root, or url without text while page fetching is disabled" },
          "422": { "description": "Site not supported or page unavailable; the session exists and can be rechecked" },
          "502": { "description": "The checking service failed; view.kind names the failure" }
        }
      }
    },
    "/v1/sessions/{id}": {
      "get": { "summary": "Last view", "responses": { "200": { "description": "Session state", "content": { "application/json": { "schema": { "$ref": "#/components/schemas/Session" } } } }, "404": { "description": "Unknown session" } } },
      "delete": { "summary": "Close the session", "responses": { "204": { "description": "Closed" } } }
    },
    "/v1/sessions/{id}/check": {
      "post": { "summary": "Recheck", "responses": { "200": { "description": "Checked" }, "409": { "description": "A check is already running" } } }
    },
    "/v1/sessions/{id}/actions": {
      "post": {
        "summary": "Run an action",
        "description": "enable-rule, ignore-rule, add-word and apply-replacement commit and then recheck the whole text.",
        "requestBody": {
          "required": true,
          "content": {
            "application/json": {
              "schema": { "$ref": "#/components/schemas/Action" },
              "examples": {
                "add-word": { "value": { "kind": "add-word", "word": "Kubernetes" } },
                "ignore-rule": { "value": { "kind": "ignore-rule", "ruleId": "EN_A_VS_AN", "description": "Use of a vs. an" } },
                "apply-replacement": { "value": { "kind": "apply-replacement", "offset": 8, "errorText": "teh", "replacement": "the" } }
              }
            }
          }
        },
        "responses": {
          "200": { "description": "Action done" },
          "400": { "description": "Invalid action" },
          "403": { "description": "import-word-list path outside the configured file root" },
          "404": { "description": "enable-rule found no ignored rule" },
          "409": { "description": "A check is already running" }
        }
      }
    },
    "/v1/sessions/{id}/panel": {
      "get": { "summary": "Last view as HTML", "responses": { "200": { "description": "HTML fragment" } } }
    },
    "/health": {
      "get": { "summary": "Health", "responses": { "200": { "description": "OK", "content": { "application/json": { "example": { "status": "ok", "service": "ltpanel" } } } } } }
    }
  },
  "components": {
    "schemas": {
      "Source": {
        "type": "object",
        "properties": {
          "text": { "type": "string", "description": "Text to check, editable in memory" },
          "path": { "type": "string", "description": "Server-local plain-text file, editable" },
          "url":  { "type": "string", "description": "Page URL; fetched and read-only unless text is given" },
          "html": { "type": "string", "description": "Server-local copy of the page at url" }
        }
      },
      "Action": {
        "type": "object",
        "required": ["kind"],
        "properties": {
          "kind": { "type": "string", "enum": ["enable-rule", "ignore-rule", "add-word", "apply-replacement", "dismiss-shortcut-hint", "set-server-url", "import-word-list"] },
          "ruleId": { "type": "string" },
          "description": { "type": "string" },
          "language": { "type": "string", "description": "enable-rule: only remove the entry for this short language code" },
          "word": { "type": "string" },
          "offset": { "type": "integer", "description": "UTF-16 code units from the start of the text" },
          "errorText": { "type": "string" },
          "replacement": { "type": "string" },
          "serverUrl": { "type": "string" },
          "path": { "type": "string" }
        }
      },
      "Session": {
        "type": "object",
        "properties": {
          "id": { "type": "string", "format": "uuid" },
          "state": { "type": "string", "enum": ["idle", "checking", "displaying", "mutating", "rechecking", "closed"] },
          "view": { "$ref": "#/components/schemas/View" },
          "text": { "type": "string" },
          "error": { "type": "string" }
        }
      },
      "View": {
        "type": "object",
        "properties": {
          "status": { "type": "string", "enum": ["pending", "failed", "notice", "done"] },
          "kind": { "type": "string", "enum": ["noResponseFromServer", "noValidResponseFromServer", "timeoutError", "networkError", "siteNotSupported", "freshInstallReload"] },
          "message": { "type": "string" },
          "version": { "type": "integer" },
          "checkedAt": { "type": "string", "format": "date-time" },
          "model": {
            "type": "object",
            "properties": {
              "entries": { "type": "array", "items": { "type": "object" } },
              "summary": { "type": "object" }
            }
          }
        }
      }
    }
  }
}`

const redocHTML = `<!DOCTYPE html>
<html>
<head>
  <title>ltpanel API Docs</title>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <style>body { margin: 0; padding: 0; }</style>
</head>
<body>
  <redoc spec-url="/openapi.json" expand-responses="200" hide-download-button></redoc>
  <script src="https://cdn.jsdelivr.net/npm/redoc@latest/bundles/redoc.standalone.js"></script>
</body>
</html>`
