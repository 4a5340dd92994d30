// Package docs NewsLens API
//
// NewsLens is an article analysis and recommendation service that ingests RSS
// feeds, runs AI bias and embedding analysis in the background, and serves
// personalized article recommendations.
//
//	Schemes: http, https
//	Host: localhost:8080
//	BasePath: /api/v1
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs

import "github.com/swaggo/swag"

// @title NewsLens API
// @version 1.0
// @description Article analysis and recommendation service with background AI processing
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

func init() {
	swag.Register(swag.Name, &swag.Spec{
		InfoInstanceName: "swagger",
		SwaggerTemplate:  docTemplate,
	})
}

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "NewsLens API",
        "description": "Article analysis and recommendation service with background AI processing",
        "version": "1.0.0",
        "contact": {
            "name": "API Support",
            "url": "http://www.swagger.io/support",
            "email": "support@swagger.io"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        }
    },
    "host": "localhost:8080",
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "consumes": ["application/json"],
    "produces": ["application/json"],
    "paths": {
        "/health": {
            "get": {
                "description": "Health check endpoint",
                "summary": "Health Check",
                "operationId": "healthCheck",
                "responses": {
                    "200": {
                        "description": "Service is healthy",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "status": {
                                    "type": "string",
                                    "example": "healthy"
                                },
                                "service": {
                                    "type": "string",
                                    "example": "newslens"
                                },
                                "poller_active": {
                                    "type": "boolean"
                                },
                                "indexed_count": {
                                    "type": "integer"
                                }
                            }
                        }
                    }
                }
            }
        },
        "/analysis/articles/{id}": {
            "post": {
                "description": "Trigger background AI analysis for an article. Returns immediately; poll the GET endpoint for the outcome.",
                "summary": "Trigger Analysis",
                "operationId": "triggerAnalysis",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "description": "Article ID"
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Analysis started",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "article_id": {
                                    "type": "integer"
                                },
                                "status": {
                                    "type": "string",
                                    "example": "PENDING"
                                }
                            }
                        }
                    },
                    "200": {
                        "description": "Analysis already done or in flight"
                    },
                    "404": {
                        "description": "Article not found"
                    }
                }
            },
            "get": {
                "description": "Get the analysis record for an article",
                "summary": "Get Analysis Record",
                "operationId": "getAnalysisRecord",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "description": "Article ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Analysis record",
                        "schema": {
                            "$ref": "#/definitions/AnalysisRecord"
                        }
                    },
                    "404": {
                        "description": "Article not found"
                    }
                }
            }
        },
        "/recommendations/similar/{id}": {
            "get": {
                "description": "Get articles similar to the given article by embedding cosine similarity",
                "summary": "Similar Articles",
                "operationId": "recommendSimilar",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "description": "Article ID"
                    },
                    {
                        "name": "k",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Maximum number of recommendations"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Recommendations",
                        "schema": {
                            "$ref": "#/definitions/RecommendationList"
                        }
                    },
                    "404": {
                        "description": "Article not found or not analyzed"
                    }
                }
            }
        },
        "/recommendations/user/{user_id}": {
            "get": {
                "description": "Get personalized recommendations for a user. Uses category preferences for new users and a read-history profile otherwise.",
                "summary": "User Recommendations",
                "operationId": "recommendForUser",
                "parameters": [
                    {
                        "name": "user_id",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "description": "User ID"
                    },
                    {
                        "name": "k",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Maximum number of recommendations"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Recommendations",
                        "schema": {
                            "$ref": "#/definitions/RecommendationList"
                        }
                    }
                }
            }
        },
        "/recommendations/category": {
            "get": {
                "description": "Get recent recommendable articles matching the given categories",
                "summary": "Category Recommendations",
                "operationId": "recommendByCategory",
                "parameters": [
                    {
                        "name": "categories",
                        "in": "query",
                        "required": true,
                        "type": "string",
                        "description": "Comma-separated category names"
                    },
                    {
                        "name": "k",
                        "in": "query",
                        "required": false,
                        "type": "integer",
                        "description": "Maximum number of recommendations"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Recommendations",
                        "schema": {
                            "$ref": "#/definitions/RecommendationList"
                        }
                    },
                    "400": {
                        "description": "Missing categories parameter"
                    }
                }
            }
        },
        "/users/{user_id}/read/{article_id}": {
            "post": {
                "description": "Record that a user read an article",
                "summary": "Record Read",
                "operationId": "recordRead",
                "parameters": [
                    {
                        "name": "user_id",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "description": "User ID"
                    },
                    {
                        "name": "article_id",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "description": "Article ID"
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Read recorded"
                    },
                    "404": {
                        "description": "Article not found"
                    }
                }
            }
        },
        "/users/{user_id}/categories": {
            "put": {
                "description": "Replace a user's preferred categories",
                "summary": "Set Preferred Categories",
                "operationId": "setPreferredCategories",
                "parameters": [
                    {
                        "name": "user_id",
                        "in": "path",
                        "required": true,
                        "type": "integer",
                        "description": "User ID"
                    },
                    {
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "categories": {
                                    "type": "array",
                                    "items": {
                                        "type": "string"
                                    }
                                }
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Preferences updated"
                    },
                    "400": {
                        "description": "Invalid request body"
                    }
                }
            }
        },
        "/ingest/status": {
            "get": {
                "description": "Get background feed poller status",
                "summary": "Ingest Status",
                "operationId": "getIngestStatus",
                "responses": {
                    "200": {
                        "description": "Poller status",
                        "schema": {
                            "type": "object",
                            "properties": {
                                "is_polling": {
                                    "type": "boolean"
                                },
                                "last_polled": {
                                    "type": "object",
                                    "additionalProperties": {
                                        "type": "string",
                                        "format": "date-time"
                                    }
                                }
                            }
                        }
                    }
                }
            }
        },
        "/ingest/force-poll/{source}": {
            "post": {
                "description": "Force poll a specific feed source",
                "summary": "Force Poll Source",
                "operationId": "forcePollSource",
                "parameters": [
                    {
                        "name": "source",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Source name"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Poll initiated"
                    },
                    "404": {
                        "description": "Source not found"
                    }
                }
            }
        },
        "/stats": {
            "get": {
                "description": "Get database and index statistics",
                "summary": "Service Stats",
                "operationId": "getStats",
                "responses": {
                    "200": {
                        "description": "Statistics",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "500": {
                        "description": "Internal server error"
                    }
                }
            }
        }
    },
    "definitions": {
        "AnalysisRecord": {
            "type": "object",
            "properties": {
                "article_id": {
                    "type": "integer",
                    "description": "Article ID"
                },
                "status": {
                    "type": "string",
                    "description": "Analysis status",
                    "enum": ["PENDING", "PROCESSING", "COMPLETED", "FILTERED", "FAILED"]
                },
                "bias_label": {
                    "type": "string",
                    "description": "Bias classification label",
                    "enum": ["NEUTRAL", "BIASED", "UNKNOWN"]
                },
                "bias_score": {
                    "type": "number",
                    "description": "Bias confidence score between 0 and 1"
                },
                "cluster_id": {
                    "type": "integer",
                    "description": "Bias cluster ID, set only for filtered articles"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "updated_at": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "Recommendation": {
            "type": "object",
            "properties": {
                "article_id": {
                    "type": "integer",
                    "description": "Article ID"
                },
                "title": {
                    "type": "string",
                    "description": "Article title"
                },
                "origin_link": {
                    "type": "string",
                    "description": "Article URL"
                },
                "score": {
                    "type": "number",
                    "description": "Cosine similarity score, zero for category matches"
                }
            }
        },
        "RecommendationList": {
            "type": "object",
            "properties": {
                "count": {
                    "type": "integer",
                    "description": "Number of recommendations"
                },
                "recommendations": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Recommendation"
                    }
                }
            }
        }
    },
    "tags": [
        {
            "name": "Health",
            "description": "Health check endpoints"
        },
        {
            "name": "Analysis",
            "description": "Article analysis endpoints"
        },
        {
            "name": "Recommendations",
            "description": "Recommendation endpoints"
        },
        {
            "name": "Users",
            "description": "User activity endpoints"
        },
        {
            "name": "Ingest",
            "description": "Feed ingestion endpoints"
        }
    ]
}`
