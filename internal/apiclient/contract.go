package apiclient

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

//go:embed openapi.yaml
var defaultContract []byte

// Contract validates backend responses against an OpenAPI 3 document
type Contract struct {
	router routers.Router
}

// DefaultContract loads the embedded course API document for baseURL
func DefaultContract(baseURL string) (*Contract, error) {
	return LoadContract(defaultContract, baseURL)
}

// LoadContractFile loads an OpenAPI document from disk for baseURL
func LoadContractFile(path, baseURL string) (*Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read API contract: %w", err)
	}
	return LoadContract(data, baseURL)
}

// LoadContract parses and validates an OpenAPI document. Its servers are
// replaced by baseURL so routes match the backend actually in use.
func LoadContract(data []byte, baseURL string) (*Contract, error) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load API contract: %w", err)
	}
	doc.Servers = openapi3.Servers{{URL: baseURL}}

	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("API contract is invalid: %w", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build API contract router: %w", err)
	}
	return &Contract{router: router}, nil
}

// ValidateResponse checks a response body against the operation matching req.
// Requests the document does not describe are not validated.
func (c *Contract) ValidateResponse(ctx context.Context, req *http.Request, resp *http.Response, body []byte) error {
	route, pathParams, err := c.router.FindRoute(req)
	if err != nil {
		return nil
	}

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		},
		Status: resp.StatusCode,
		Header: resp.Header,
		Options: &openapi3filter.Options{
			IncludeResponseStatus: true,
		},
	}
	input.SetBodyBytes(body)

	return openapi3filter.ValidateResponse(ctx, input)
}
