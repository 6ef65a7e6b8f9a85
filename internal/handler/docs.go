package handler

import (
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-yaml"
)

// Minimal HTML that loads Swagger UI from a CDN and points to /openapi.yaml.
//
//go:embed swagger.html
var swaggerHTML []byte

//go:embed openapi.yaml
var openapiYAML []byte

var (
	openapiJSONOnce sync.Once
	openapiJSONBody []byte
	openapiJSONErr  error
)

// OpenAPIDocumentJSON converts the embedded YAML document once and caches the result.
func OpenAPIDocumentJSON() ([]byte, error) {
	openapiJSONOnce.Do(func() {
		openapiJSONBody, openapiJSONErr = yaml.YAMLToJSON(openapiYAML)
		if openapiJSONErr != nil {
			openapiJSONErr = fmt.Errorf("convert openapi yaml: %w", openapiJSONErr)
		}
	})
	return openapiJSONBody, openapiJSONErr
}

// RegisterDocs mounts documentation endpoints at the root:
//   - GET /openapi.yaml: the embedded OpenAPI document
//   - GET /openapi.json: the same document as JSON
//   - GET /docs: Swagger UI rendering of the document
func RegisterDocs(r gin.IRoutes) {
	r.GET(OpenAPIYAML, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", openapiYAML)
	})
	r.GET(OpenAPIJSON, func(c *gin.Context) {
		body, err := OpenAPIDocumentJSON()
		if err != nil {
			_ = c.Error(err)
			c.String(http.StatusInternalServerError, "failed to render openapi document")
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	})
	r.GET(DocsPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", swaggerHTML)
	})
}
