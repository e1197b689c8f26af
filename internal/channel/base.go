package channel

import (
	"context"
	"fmt"
	"time"

	xhttp "SignalDesk/pkg/http"
)

// httpBase centralizes client construction and JSON POST handling for
// the channel integrations.
type httpBase struct {
	baseURL string
	token   string
	client  *xhttp.Client
}

func newHTTPBase(baseURL, token string, timeout time.Duration) *httpBase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpBase{
		baseURL: baseURL,
		token:   token,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// postJSON posts payload to path under baseURL and decodes JSON into dest
// (dest may be nil when the response body is irrelevant).
func (b *httpBase) postJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	if b.baseURL == "" {
		return fmt.Errorf("channel endpoint not configured")
	}
	headers := map[string]string{"Content-Type": "application/json"}
	if b.token != "" {
		headers["Authorization"] = "Bearer " + b.token
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     b.baseURL + path,
		Headers: headers,
		Body:    payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	return nil
}
