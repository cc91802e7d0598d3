package handlers

import (
	"encoding/json"
	"net/http"

	"airfare-dashboard/internal/aggregate"
	"airfare-dashboard/internal/charts"
)

func queryParam(name, description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      schema,
	}
}

func pathParam(name, description string, values []string) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "path",
		"description": description,
		"required":    true,
		"schema":      map[string]interface{}{"type": "string", "enum": values},
	}
}

func jsonResponse(description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		},
	}
}

var errorSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"error":   map[string]string{"type": "string"},
		"message": map[string]string{"type": "string"},
		"code":    map[string]string{"type": "integer"},
	},
}

var carriersParam = queryParam("carriers",
	"Comma separated carrier names; aggregates are recomputed over those carriers only",
	map[string]interface{}{"type": "string"})

// OpenAPISpec returns the OpenAPI 3.0 specification for the Airfare Dashboard API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	tabs := make([]string, 0, len(charts.Tabs))
	for _, tab := range charts.Tabs {
		tabs = append(tabs, string(tab))
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Airfare Dashboard API",
			"description": "Derived airline fare tables and chart descriptions computed from a quarterly fare dataset",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Airfare Dashboard Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8050", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/tables/{name}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get a derived table",
					"description": "Rows of one aggregate table, sorted by their grouping keys",
					"parameters": []map[string]interface{}{
						pathParam("name", "Table name", aggregate.TableNames),
						carriersParam,
					},
					"responses": map[string]interface{}{
						"200": jsonResponse("Table rows", map[string]interface{}{
							"type":  "array",
							"items": map[string]string{"type": "object"},
						}),
						"304": map[string]string{"description": "Not modified since the given ETag"},
						"404": jsonResponse("Unknown table or no matching carriers", errorSchema),
					},
				},
			},
			"/api/charts": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "List chart tabs",
					"responses": map[string]interface{}{
						"200": jsonResponse("Chart tabs", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"tabs": map[string]string{"type": "array"},
							},
						}),
					},
				},
			},
			"/api/charts/{tab}": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get a chart description",
					"description": "Typed rendering description (series, axes, layout) of one dashboard tab",
					"parameters": []map[string]interface{}{
						pathParam("tab", "Dashboard tab", tabs),
						carriersParam,
						queryParam("year", "Slider year for tab5 (default: first year)",
							map[string]interface{}{"type": "integer"}),
						queryParam("smooth", "Rolling mean window added to line charts",
							map[string]interface{}{"type": "integer", "enum": []int{2, 3}}),
					},
					"responses": map[string]interface{}{
						"200": jsonResponse("Chart description", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"tab":    map[string]string{"type": "string"},
								"kind":   map[string]interface{}{"type": "string", "enum": []string{"line", "bar", "geo"}},
								"title":  map[string]string{"type": "string"},
								"series": map[string]string{"type": "array"},
							},
						}),
						"304": map[string]string{"description": "Not modified since the given ETag"},
						"400": jsonResponse("Invalid year or smooth", errorSchema),
						"404": jsonResponse("Unknown tab or no matching carriers", errorSchema),
					},
				},
			},
			"/api/carriers": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "List carriers",
					"responses": map[string]interface{}{
						"200": jsonResponse("Distinct carrier names", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"carriers": map[string]interface{}{"type": "array", "items": map[string]string{"type": "string"}},
								"total":    map[string]string{"type": "integer"},
							},
						}),
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running and describe the loaded dataset",
					"responses": map[string]interface{}{
						"200": jsonResponse("API is healthy", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"status":  map[string]string{"type": "string"},
								"dataset": map[string]string{"type": "object"},
							},
						}),
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
