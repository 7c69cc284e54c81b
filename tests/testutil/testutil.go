// Package testutil holds the assertions the integration suite shares for
// reading API envelopes and waiting on asynchronous event handlers.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rentnest/backend/internal/interfaces/http/dto"
)

// DecodeEnvelope parses a response body as {"success","data","error","meta"}
func DecodeEnvelope(t testing.TB, body []byte) dto.Response {
	t.Helper()
	var env dto.Response
	require.NoError(t, json.Unmarshal(body, &env), "response is not an envelope: %s", body)
	return env
}

// DataAs decodes the envelope's data member into T
func DataAs[T any](t testing.TB, body []byte) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &env), "cannot decode data: %s", body)
	return env.Data
}

// ToJSONReader marshals v into a request body
func ToJSONReader(t testing.TB, v any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

// RequireEventually polls cond every interval and fails the test if it is
// still false after timeout. The async event bus delivers on its own
// goroutines, so effects such as alert emails land some time after the request.
func RequireEventually(t testing.TB, cond func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.After(timeout)
	for !cond() {
		select {
		case <-deadline:
			require.Fail(t, "condition not met within "+timeout.String(), msgAndArgs...)
			return
		case <-ticker.C:
		}
	}
}
