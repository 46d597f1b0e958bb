package api

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
)

// =============================================================================
// OpenAPI Generation
// =============================================================================

// openAPIGenerator produces the OpenAPI 3.0 document by reflecting on the
// request and response types of this package.
type openAPIGenerator struct {
	mu         sync.Mutex
	cachedSpec *openapi3.T
}

func newOpenAPIGenerator() *openAPIGenerator {
	return &openAPIGenerator{}
}

// Handler returns an HTTP handler that serves the OpenAPI specification.
func (g *openAPIGenerator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		spec := g.generate()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if err := json.NewEncoder(w).Encode(spec); err != nil {
			http.Error(w, "Failed to encode OpenAPI spec", http.StatusInternalServerError)
		}
	}
}

func (g *openAPIGenerator) generate() *openapi3.T {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cachedSpec != nil {
		return g.cachedSpec
	}

	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Carwise API",
			Version:     "1.0.0",
			Description: "Automotive services marketplace API",
		},
		Paths: &openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}

	// Schemas reflected from the package's wire types.
	schemas := map[string]interface{}{
		"CreateListingRequest":   CreateListingRequest{},
		"UpdateListingRequest":   UpdateListingRequest{},
		"UpdateSlugRequest":      UpdateSlugRequest{},
		"UpsertFuelPriceRequest": UpsertFuelPriceRequest{},
		"Listing":                ListingResponse{},
		"ListingList":            ListListingsResponse{},
		"SlugPreview":            SlugPreviewResponse{},
		"FuelPriceList":          ListFuelPricesResponse{},
		"Error":                  ErrorResponse{},
	}
	for name, model := range schemas {
		spec.Components.Schemas[name] = extractSchema(model)
	}

	idParam := &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name:     "id",
			In:       "path",
			Required: true,
			Schema: &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"},
			},
		},
	}
	kindParam := func(in string, required bool) *openapi3.ParameterRef {
		return &openapi3.ParameterRef{
			Value: &openapi3.Parameter{
				Name:     "kind",
				In:       in,
				Required: required,
				Schema: &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"string"},
						Enum: []interface{}{"mechanic", "carwash", "evacuator", "post"},
					},
				},
			},
		}
	}

	spec.Paths.Set("/api/v1/listings", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listListings",
			Summary:     "List listings",
			Tags:        []string{"Listings"},
			Parameters: openapi3.Parameters{
				kindParam("query", false),
				queryParam("limit", "integer"),
				queryParam("offset", "integer"),
			},
			Responses: jsonResponses("ListingList"),
		},
		Post: &openapi3.Operation{
			OperationID: "createListing",
			Summary:     "Create a listing",
			Tags:        []string{"Listings"},
			RequestBody: jsonRequestBody("CreateListingRequest"),
			Responses:   jsonResponses("Listing"),
		},
	})

	spec.Paths.Set("/api/v1/listings/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Get: &openapi3.Operation{
			OperationID: "getListing",
			Summary:     "Get a listing",
			Tags:        []string{"Listings"},
			Responses:   jsonResponses("Listing"),
		},
		Put: &openapi3.Operation{
			OperationID: "updateListing",
			Summary:     "Update a listing",
			Tags:        []string{"Listings"},
			RequestBody: jsonRequestBody("UpdateListingRequest"),
			Responses:   jsonResponses("Listing"),
		},
		Delete: &openapi3.Operation{
			OperationID: "deleteListing",
			Summary:     "Delete a listing",
			Tags:        []string{"Listings"},
			Responses:   &openapi3.Responses{},
		},
	})

	spec.Paths.Set("/api/v1/listings/{id}/slug", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Put: &openapi3.Operation{
			OperationID: "updateListingSlug",
			Summary:     "Set a manual slug",
			Tags:        []string{"Slugs"},
			RequestBody: jsonRequestBody("UpdateSlugRequest"),
			Responses:   jsonResponses("Listing"),
		},
	})

	spec.Paths.Set("/api/v1/listings/{id}/slug/reset", &openapi3.PathItem{
		Parameters: openapi3.Parameters{idParam},
		Post: &openapi3.Operation{
			OperationID: "resetListingSlug",
			Summary:     "Reset the slug to automatic generation",
			Tags:        []string{"Slugs"},
			Responses:   jsonResponses("Listing"),
		},
	})

	spec.Paths.Set("/api/v1/slug/preview", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "previewSlug",
			Summary:     "Preview the slug for a display name",
			Tags:        []string{"Slugs"},
			Parameters: openapi3.Parameters{
				kindParam("query", true),
				queryParam("name", "string"),
				queryParam("exclude_id", "integer"),
			},
			Responses: jsonResponses("SlugPreview"),
		},
	})

	spec.Paths.Set("/api/v1/resolve/{kind}/{slug}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{
			kindParam("path", true),
			&openapi3.ParameterRef{
				Value: &openapi3.Parameter{
					Name:     "slug",
					In:       "path",
					Required: true,
					Schema: &openapi3.SchemaRef{
						Value: &openapi3.Schema{Type: &openapi3.Types{"string"}},
					},
				},
			},
		},
		Get: &openapi3.Operation{
			OperationID: "resolveListing",
			Summary:     "Resolve a slug or legacy numeric id to a listing",
			Tags:        []string{"Slugs"},
			Responses:   jsonResponses("Listing"),
		},
	})

	spec.Paths.Set("/api/v1/fuel-prices", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listFuelPrices",
			Summary:     "List fuel prices",
			Tags:        []string{"FuelPrices"},
			Responses:   jsonResponses("FuelPriceList"),
		},
		Put: &openapi3.Operation{
			OperationID: "upsertFuelPrice",
			Summary:     "Create or update a fuel price",
			Tags:        []string{"FuelPrices"},
			RequestBody: jsonRequestBody("UpsertFuelPriceRequest"),
			Responses:   &openapi3.Responses{},
		},
	})

	g.cachedSpec = spec
	return spec
}

func queryParam(name, typ string) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{
		Value: &openapi3.Parameter{
			Name: name,
			In:   "query",
			Schema: &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{typ}},
			},
		},
	}
}

func jsonRequestBody(schemaName string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content: openapi3.Content{
				"application/json": &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{
						Ref: "#/components/schemas/" + schemaName,
					},
				},
			},
		},
	}
}

func jsonResponses(schemaName string) *openapi3.Responses {
	responses := &openapi3.Responses{}
	desc := "Successful response"
	responses.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &desc,
			Content: openapi3.Content{
				"application/json": &openapi3.MediaType{
					Schema: &openapi3.SchemaRef{
						Ref: "#/components/schemas/" + schemaName,
					},
				},
			},
		},
	})
	return responses
}

// =============================================================================
// Schema Reflection
// =============================================================================

// extractSchema extracts an OpenAPI schema from a Go struct.
func extractSchema(model interface{}) *openapi3.SchemaRef {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: make(openapi3.Schemas),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := field.Name
		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				name = parts[0]
			}
		}

		propSchema := goTypeToSchema(field.Type)
		if propSchema != nil {
			schema.Properties[name] = propSchema
		}
	}

	return &openapi3.SchemaRef{Value: schema}
}

// goTypeToSchema converts a Go type to an OpenAPI schema.
func goTypeToSchema(t reflect.Type) *openapi3.SchemaRef {
	switch t.Kind() {
	case reflect.String:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}}

	case reflect.Int64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64"}}

	case reflect.Float32:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}, Format: "float"}}

	case reflect.Float64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}, Format: "double"}}

	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}

	case reflect.Slice, reflect.Array:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: goTypeToSchema(t.Elem()),
			},
		}

	case reflect.Map:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: goTypeToSchema(t.Elem())},
			},
		}

	case reflect.Ptr:
		schema := goTypeToSchema(t.Elem())
		if schema != nil && schema.Value != nil {
			schema.Value.Nullable = true
		}
		return schema

	case reflect.Struct:
		if t == reflect.TypeOf(time.Time{}) {
			return &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date-time"},
			}
		}
		return extractSchema(reflect.New(t).Interface())

	default:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}
}
