// Package http provides the HTTP client used to talk to upload nodes,
// payment services, gateways and the asset registry.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Timeout handling
//   - JSON request and response helpers
//   - Typed errors carrying the HTTP status
//
// # Basic Usage
//
//	client := http.NewClient()
//
//	// Fetch and decode JSON
//	var out struct{ ID string `json:"id"` }
//	err := client.GetJSON(ctx, url, nil, &out)
//
//	// Post a signed data item
//	body, err := client.PostBytes(ctx, url, raw, http.Header{
//	    "Content-Type": "application/octet-stream",
//	})
//
// # Errors
//
// Non-2xx responses are returned as *StatusError, so callers can
// inspect the status code:
//
//	if http.StatusCode(err) == 402 {
//	    // insufficient balance
//	}
package http
