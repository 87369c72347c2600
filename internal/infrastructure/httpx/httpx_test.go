package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func httpClientRT(rt http.RoundTripper) *http.Client {
	return &http.Client{Transport: rt, Timeout: 2 * time.Second}
}

func respond(r *http.Request, code int, body string) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(strings.NewReader(body)), Header: make(http.Header), Request: r}
}

type resp struct {
	OK bool `json:"ok"`
}

func TestPostJSON_Retry500Then200(t *testing.T) {
	var calls atomic.Int32
	core, logs := observer.New(zap.WarnLevel)
	c := &Client{
		Logger: zap.New(core),
		HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
			var in map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			require.Equal(t, "ping", in["method"])
			if calls.Add(1) == 1 {
				return respond(r, 500, "err"), nil
			}
			return respond(r, 200, `{"ok": true}`), nil
		})),
	}

	var out resp
	err := c.PostJSON(context.Background(), "http://rpc.local", map[string]string{"method": "ping"}, &out)
	require.NoError(t, err)
	require.True(t, out.OK)
	require.Equal(t, int32(2), calls.Load())
	require.Equal(t, 1, logs.FilterMessage("httpx.server_error").Len())
}

type tempTimeoutErr struct{}

func (tempTimeoutErr) Error() string   { return "timeout" }
func (tempTimeoutErr) Timeout() bool   { return true }
func (tempTimeoutErr) Temporary() bool { return true }

func TestPostJSON_RetryNetTimeoutThen200(t *testing.T) {
	var calls atomic.Int32
	c := &Client{HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		if calls.Add(1) == 1 {
			return nil, tempTimeoutErr{}
		}
		return respond(r, 200, `{"ok": true}`), nil
	}))}

	var out resp
	require.NoError(t, c.PostJSON(context.Background(), "http://rpc.local", struct{}{}, &out))
	require.True(t, out.OK)
	require.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestPostJSON_NoRetryOn400(t *testing.T) {
	var calls atomic.Int32
	c := &Client{HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(r, 400, "bad"), nil
	}))}

	var out resp
	err := c.PostJSON(context.Background(), "http://rpc.local", struct{}{}, &out)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, 400, se.Code)
	require.Equal(t, "bad", se.Body)
	require.Equal(t, int32(1), calls.Load())
}

func TestPostJSON_NoRetryOnDecodeError(t *testing.T) {
	var calls atomic.Int32
	c := &Client{HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
		calls.Add(1)
		return respond(r, 200, "{not json"), nil
	}))}

	var out resp
	err := c.PostJSON(context.Background(), "http://rpc.local", struct{}{}, &out)
	require.ErrorContains(t, err, "decode response")
	require.Equal(t, int32(1), calls.Load())
}

func TestPostJSON_GivesUpAfterMaxElapsed(t *testing.T) {
	c := &Client{
		MaxElapsed: 300 * time.Millisecond,
		HTTP: httpClientRT(rtFunc(func(r *http.Request) (*http.Response, error) {
			return respond(r, 503, ""), nil
		})),
	}
	var out resp
	err := c.PostJSON(context.Background(), "http://rpc.local", struct{}{}, &out)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, 503, se.Code)
}
