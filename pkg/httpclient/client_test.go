package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoWithRetrySuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	body, status, err := DoWithRetry(context.Background(), RequestConfig{
		Method: "GET",
		URL:    server.URL,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestDoWithRetryRecoversFromServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	body, status, err := DoWithRetry(context.Background(), RequestConfig{
		Method:     "GET",
		URL:        server.URL,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "recovered", string(body))
	assert.EqualValues(t, 2, calls.Load())
}

func TestDoWithRetryDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	_, status, err := DoWithRetry(context.Background(), RequestConfig{
		Method:     "GET",
		URL:        server.URL,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.EqualValues(t, 1, calls.Load(), "4xx responses must not be retried")
}

func TestDoWithRetryExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, status, err := DoWithRetry(context.Background(), RequestConfig{
		Method:     "GET",
		URL:        server.URL,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	})
	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.EqualValues(t, 3, calls.Load())
}

func TestDoWithRetryPostsForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostFormValue("grant_type"))
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	form := url.Values{}
	form.Set("grant_type", "authorization_code")

	_, status, err := DoWithRetry(context.Background(), RequestConfig{
		Method: "POST",
		URL:    server.URL,
		Form:   form,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

func TestDoWithRetryHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := DoWithRetry(ctx, RequestConfig{
		Method:     "GET",
		URL:        server.URL,
		MaxRetries: 5,
		RetryDelay: time.Second,
	})
	assert.ErrorIs(t, err, context.Canceled)
}
