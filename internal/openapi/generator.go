// Package openapi describes the console HTTP surface as an OpenAPI document.
package openapi

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// View is a guarded console page.
type View struct {
	Name       string
	Path       string
	Permission string
}

// Generate builds the OpenAPI 3.1 document for the console API. views lists
// the guarded pages in the order they should appear.
func Generate(baseURL, version string, views []View) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Asset Console API",
			Description: "Sign-in, session and role-based access for the asset console.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	doc.Components = &components
	addComponentSchemas(doc)

	doc.Paths = openapi3.NewPaths()

	doc.Paths.Set("/api/v1/session", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"session"},
			Summary:     "Sign in",
			OperationID: "login",
			RequestBody: &openapi3.RequestBodyRef{
				Value: &openapi3.RequestBody{
					Required: true,
					Content:  openapi3.NewContentWithJSONSchemaRef(ref("LoginRequest")),
				},
			},
			Responses: newResponses("200", "Signed in", ref("Session"),
				http.StatusBadRequest, http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusBadGateway),
		},
		Get: &openapi3.Operation{
			Tags:        []string{"session"},
			Summary:     "Describe the active session",
			OperationID: "currentSession",
			Parameters: openapi3.Parameters{
				{Value: openapi3.NewQueryParameter("include_token").
					WithDescription("Add the token's unverified claims").
					WithSchema(openapi3.NewBoolSchema())},
			},
			Responses: newResponses("200", "Active session", ref("Session"), http.StatusUnauthorized),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"session"},
			Summary:     "Sign out",
			OperationID: "logout",
			Responses: newResponses("200", "Signed out", objectSchema(openapi3.Schemas{
				"success": boolSchema(),
				"message": stringSchema(),
			})),
		},
	})

	doc.Paths.Set("/api/v1/navigation", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"session"},
			Summary:     "Menu entries the active session may open",
			OperationID: "navigation",
			Responses: newResponses("200", "Navigation", objectSchema(openapi3.Schemas{
				"resource": arrayOf(ref("NavItem")),
			})),
		},
	})

	doc.Paths.Set("/api/v1/permissions/{permission}", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"session"},
			Summary:     "Check one permission",
			OperationID: "checkPermission",
			Parameters: openapi3.Parameters{
				{Value: openapi3.NewPathParameter("permission").WithSchema(openapi3.NewStringSchema())},
			},
			Responses: newResponses("200", "Permission check", objectSchema(openapi3.Schemas{
				"permission":    stringSchema(),
				"authenticated": boolSchema(),
				"granted":       boolSchema(),
			})),
		},
	})

	doc.Paths.Set("/api/v1/roles", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"roles"},
			Summary:     "List the role table",
			OperationID: "listRoles",
			Responses: newResponses("200", "Roles", objectSchema(openapi3.Schemas{
				"resource": arrayOf(objectSchema(openapi3.Schemas{
					"role":        stringSchema(),
					"permissions": arrayOf(stringSchema()),
				})),
				"meta": objectSchema(openapi3.Schemas{
					"count": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}},
				}),
			})),
		},
	})

	for _, v := range views {
		addViewPath(doc, v)
	}

	probe := objectSchema(openapi3.Schemas{"status": stringSchema()})
	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"health"},
			Summary:     "Liveness probe",
			OperationID: "healthz",
			Responses:   newResponses("200", "Alive", probe),
		},
	})
	doc.Paths.Set("/readyz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"health"},
			Summary:     "Readiness probe; fails until the persisted session is restored",
			OperationID: "readyz",
			Responses:   newResponses("200", "Ready", probe, http.StatusServiceUnavailable),
		},
	})

	return doc
}

func addViewPath(doc *openapi3.T, v View) {
	desc := "Requires a signed-in session"
	if v.Permission != "" {
		desc = fmt.Sprintf("Requires the %q permission", v.Permission)
	}
	op := &openapi3.Operation{
		Tags:        []string{"views"},
		Summary:     fmt.Sprintf("Open the %s view", v.Name),
		Description: desc,
		OperationID: "view_" + v.Name,
		Responses: newResponses("200", "View admitted", objectSchema(openapi3.Schemas{
			"view": stringSchema(),
			"user": ref("Identity"),
		}), http.StatusUnauthorized, http.StatusForbidden, http.StatusServiceUnavailable),
	}
	seeOther := "Redirect to the sign-in page or the default page"
	op.Responses.Set("303", &openapi3.ResponseRef{Value: &openapi3.Response{Description: &seeOther}})
	doc.Paths.Set(v.Path, &openapi3.PathItem{Get: op})
}

func addComponentSchemas(doc *openapi3.T) {
	s := doc.Components.Schemas

	s["ErrorResponse"] = objectSchema(openapi3.Schemas{
		"error": objectSchema(openapi3.Schemas{
			"code":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
			"message": stringSchema(),
			"context": objectSchema(nil),
		}),
	})

	s["LoginRequest"] = objectSchema(openapi3.Schemas{
		"username": stringSchema(),
		"password": formattedString("password"),
	}, "username", "password")

	s["Identity"] = objectSchema(openapi3.Schemas{
		"user_id":   stringSchema(),
		"username":  stringSchema(),
		"email":     stringSchema(),
		"full_name": stringSchema(),
		"roles":     arrayOf(stringSchema()),
	}, "user_id", "username", "roles")

	s["NavItem"] = objectSchema(openapi3.Schemas{
		"label":      stringSchema(),
		"path":       stringSchema(),
		"permission": stringSchema(),
	})

	s["TokenInfo"] = objectSchema(openapi3.Schemas{
		"is_jwt":     boolSchema(),
		"subject":    stringSchema(),
		"issuer":     stringSchema(),
		"issued_at":  formattedString("date-time"),
		"expires_at": formattedString("date-time"),
	})

	s["Session"] = objectSchema(openapi3.Schemas{
		"user":        ref("Identity"),
		"permissions": arrayOf(stringSchema()),
		"navigation":  arrayOf(ref("NavItem")),
		"token":       ref("TokenInfo"),
	}, "user", "permissions")
}

// newResponses builds a response set with one success entry and the listed
// error statuses, all sharing the ErrorResponse schema.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef, errorStatuses ...int) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := ref("ErrorResponse")
	for _, code := range errorStatuses {
		desc := http.StatusText(code)
		responses.Set(fmt.Sprint(code), &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}

	return responses
}
