// Package api holds the published OpenAPI description of the HTTP surface.
package api

import _ "embed"

// OpenAPI is the raw openapi.yaml document served at /docs/openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte
