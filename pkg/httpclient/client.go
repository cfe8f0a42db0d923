package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wavelink/authcore/pkg/logger"
	"go.uber.org/zap"
)

// RequestConfig describes one outbound HTTP call.
type RequestConfig struct {
	Method     string
	URL        string
	Headers    map[string]string
	Form       url.Values // POSTed as application/x-www-form-urlencoded when set
	Body       []byte
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DoWithRetry performs the request with exponential backoff. Retries are
// attempted on transport errors and 5xx responses only; 4xx responses are
// returned to the caller immediately.
func DoWithRetry(ctx context.Context, config RequestConfig) ([]byte, int, error) {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	maxRetries := config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	retryDelay := config.RetryDelay
	if retryDelay == 0 {
		retryDelay = time.Second
	}

	client := &http.Client{Timeout: timeout}

	var respBody []byte
	var statusCode int
	var lastErr error

	backoff := retryDelay

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		var bodyReader io.Reader
		contentType := ""
		switch {
		case config.Form != nil:
			bodyReader = strings.NewReader(config.Form.Encode())
			contentType = "application/x-www-form-urlencoded"
		case config.Body != nil:
			bodyReader = bytes.NewReader(config.Body)
			contentType = "application/json"
		}

		req, err := http.NewRequestWithContext(ctx, config.Method, config.URL, bodyReader)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to build request: %w", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("Accept", "application/json")
		for key, value := range config.Headers {
			req.Header.Set(key, value)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
		} else {
			respBody, err = io.ReadAll(resp.Body)
			resp.Body.Close()
			statusCode = resp.StatusCode
			if err != nil {
				lastErr = err
			} else if statusCode < 500 {
				return respBody, statusCode, nil
			} else {
				lastErr = fmt.Errorf("upstream returned status %d", statusCode)
			}
		}

		if attempt < maxRetries {
			logger.GetLogger().Warn("HTTP request failed, retrying",
				zap.String("url", config.URL),
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return respBody, statusCode, lastErr
}
