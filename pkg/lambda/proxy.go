package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// NewRequest converts an API Gateway proxy event into an http.Request
func NewRequest(ctx context.Context, event events.APIGatewayProxyRequest) (*http.Request, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to decode request body: %w", err)
		}
		body = decoded
	}

	u := url.URL{Path: event.Path}
	query := url.Values{}
	for k, vs := range event.MultiValueQueryStringParameters {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	for k, v := range event.QueryStringParameters {
		if _, ok := query[k]; !ok {
			query.Set(k, v)
		}
	}
	u.RawQuery = query.Encode()

	method := event.HTTPMethod
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	for k, vs := range event.MultiValueHeaders {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for k, v := range event.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}

	req.ContentLength = int64(len(body))
	req.RemoteAddr = event.RequestContext.Identity.SourceIP
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	}

	return req, nil
}

// Serve runs event through handler and converts the recorded response
func Serve(ctx context.Context, handler http.Handler, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	req, err := NewRequest(ctx, event)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusBadRequest,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"error":"validation_failed","message":"malformed request"}`,
		}, nil
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	return toProxyResponse(w), nil
}

func toProxyResponse(w *httptest.ResponseRecorder) events.APIGatewayProxyResponse {
	resp := events.APIGatewayProxyResponse{
		StatusCode:        w.Code,
		Headers:           map[string]string{},
		MultiValueHeaders: map[string][]string{},
	}
	for k, vs := range w.Header() {
		resp.MultiValueHeaders[k] = vs
		if len(vs) > 0 {
			resp.Headers[k] = vs[0]
		}
	}

	body := w.Body.Bytes()
	if isTextual(w.Header().Get("Content-Type")) {
		resp.Body = string(body)
	} else {
		resp.Body = base64.StdEncoding.EncodeToString(body)
		resp.IsBase64Encoded = true
	}
	return resp
}

func isTextual(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/") ||
		strings.Contains(ct, "json") ||
		strings.Contains(ct, "xml") ||
		strings.Contains(ct, "javascript")
}
