// Package docs registers the Budgeteer OpenAPI spec with swag. Regenerate
// the full spec from the handler annotations with:
//
//	swag init -g cmd/api/main.go -o internal/docs
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
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Register a new user", "responses": {"201": {"description": "User registered"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Log in by username or email", "responses": {"200": {"description": "Token pair"}}}},
        "/auth/refresh": {"post": {"tags": ["auth"], "summary": "Rotate a refresh token", "responses": {"200": {"description": "New token pair"}}}},
        "/profile": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Get profile", "responses": {"200": {"description": "Profile"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Update profile", "responses": {"200": {"description": "Updated profile"}}}
        },
        "/profile/theme/toggle": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Toggle theme", "responses": {"200": {"description": "Updated profile"}}}},
        "/incomes": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["incomes"], "summary": "List incomes", "responses": {"200": {"description": "Paginated incomes"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["incomes"], "summary": "Create income", "responses": {"201": {"description": "Income created"}}}
        },
        "/incomes/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["incomes"], "summary": "Get income", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Income"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["incomes"], "summary": "Update income", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Updated income"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["incomes"], "summary": "Delete income", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Income deleted"}}}
        },
        "/expenses": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["expenses"], "summary": "List expenses", "responses": {"200": {"description": "Paginated expenses"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["expenses"], "summary": "Create expense", "responses": {"201": {"description": "Expense created"}}}
        },
        "/expenses/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["expenses"], "summary": "Get expense", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Expense"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["expenses"], "summary": "Update expense", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Updated expense"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["expenses"], "summary": "Delete expense", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Expense deleted"}}}
        },
        "/recurring": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["recurring"], "summary": "List recurring transactions", "responses": {"200": {"description": "Paginated templates"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["recurring"], "summary": "Create recurring transaction", "responses": {"201": {"description": "Template created"}}}
        },
        "/recurring/process": {"post": {"security": [{"BearerAuth": []}], "tags": ["recurring"], "summary": "Process due recurring transactions", "responses": {"200": {"description": "Created entries and skipped templates"}}}},
        "/recurring/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["recurring"], "summary": "Get recurring transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Template"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["recurring"], "summary": "Update recurring transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Updated template"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["recurring"], "summary": "Delete recurring transaction", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Template deleted"}}}
        },
        "/groups": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["groups"], "summary": "List groups", "responses": {"200": {"description": "Paginated groups"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["groups"], "summary": "Create group", "responses": {"201": {"description": "Group created"}}}
        },
        "/groups/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["groups"], "summary": "Get group", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Group with members"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["groups"], "summary": "Delete group", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Group deleted"}}}
        },
        "/groups/{id}/members": {"post": {"security": [{"BearerAuth": []}], "tags": ["groups"], "summary": "Add group member", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Member added"}}}},
        "/groups/{id}/members/{user_id}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["groups"], "summary": "Remove group member", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "user_id", "in": "path", "required": true}], "responses": {"200": {"description": "Member removed"}}}},
        "/groups/{id}/expenses": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["shared-expenses"], "summary": "List shared expenses", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Paginated expenses"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["shared-expenses"], "summary": "Create shared expense", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Expense with shares"}}}
        },
        "/groups/{id}/expenses/{expense_id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["shared-expenses"], "summary": "Get shared expense", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "expense_id", "in": "path", "required": true}], "responses": {"200": {"description": "Expense with shares"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["shared-expenses"], "summary": "Delete shared expense", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "expense_id", "in": "path", "required": true}], "responses": {"200": {"description": "Expense deleted"}}}
        },
        "/groups/{id}/settlements": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["settlements"], "summary": "List settlements", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Paginated settlements"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["settlements"], "summary": "Record settlement", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"201": {"description": "Settlement recorded"}}}
        },
        "/groups/{id}/balances": {"get": {"security": [{"BearerAuth": []}], "tags": ["groups"], "summary": "Group balances", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "Balances"}}}},
        "/dashboard": {"get": {"security": [{"BearerAuth": []}], "tags": ["dashboard"], "summary": "Dashboard", "responses": {"200": {"description": "Dashboard"}}}},
        "/export": {"get": {"security": [{"BearerAuth": []}], "produces": ["text/csv", "application/pdf"], "tags": ["dashboard"], "summary": "Export data", "responses": {"200": {"description": "Export attachment"}}}},
        "/internal/scheduler/run": {"post": {"security": [{"APIKeyAuth": []}], "tags": ["internal"], "summary": "Run scheduler", "responses": {"200": {"description": "Run summary"}}}}
    },
    "securityDefinitions": {
        "APIKeyAuth": {"type": "apiKey", "name": "X-API-Key", "in": "header"},
        "BearerAuth": {"description": "Type \"Bearer\" followed by a space and JWT token.", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Budgeteer API",
	Description:      "Budgeteer tracks personal income and expenses, splits shared group expenses and materializes recurring transactions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
