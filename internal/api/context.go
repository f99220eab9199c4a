package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/terra-clan/cookoff-engine/internal/models"
)

type contextKey string

const clientContextKey contextKey = "api_client"

// ClientFromContext extracts ApiClient from context
func ClientFromContext(ctx context.Context) *models.ApiClient {
	client, ok := ctx.Value(clientContextKey).(*models.ApiClient)
	if !ok {
		return nil
	}
	return client
}

// ContextWithClient adds ApiClient to context
func ContextWithClient(ctx context.Context, client *models.ApiClient) context.Context {
	return context.WithValue(ctx, clientContextKey, client)
}

// clientRateLimitKey identifies the caller for throttling: the
// authenticated client when known, the remote address otherwise
func clientRateLimitKey(r *http.Request) string {
	if client := ClientFromContext(r.Context()); client != nil {
		return "client:" + strconv.Itoa(client.ID)
	}
	return addressRateLimitKey(r)
}

func addressRateLimitKey(r *http.Request) string {
	return "addr:" + r.RemoteAddr
}
