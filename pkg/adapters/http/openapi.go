package http

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
)

//go:embed openapi.yaml
var rawSpec []byte

// GetSwagger parses and validates the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

// validator checks requests against the operation declared for a chi route
// pattern. chi resolves the route, so no OpenAPI router is needed.
type validator struct {
	doc *openapi3.T
}

func (v *validator) route(method, pattern string) (*routers.Route, error) {
	item := v.doc.Paths.Find(pattern)
	if item == nil {
		return nil, fmt.Errorf("path %s is not declared", pattern)
	}
	op := item.GetOperation(method)
	if op == nil {
		return nil, fmt.Errorf("%s %s is not declared", method, pattern)
	}
	return &routers.Route{
		Spec:      v.doc,
		Path:      pattern,
		PathItem:  item,
		Method:    method,
		Operation: op,
	}, nil
}

// wrap returns h guarded by request validation. A pattern missing from the
// document is a programming error and fails at startup.
func (v *validator) wrap(method, pattern string, h http.HandlerFunc) (http.HandlerFunc, error) {
	route, err := v.route(method, pattern)
	if err != nil {
		return nil, err
	}
	return func(w http.ResponseWriter, r *http.Request) {
		params := map[string]string{}
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			for i, key := range rctx.URLParams.Keys {
				params[key] = rctx.URLParams.Values[i]
			}
		}
		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: params,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		h(w, r)
	}, nil
}
