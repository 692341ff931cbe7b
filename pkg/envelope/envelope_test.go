package envelope

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixClock(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestWrite(t *testing.T) {
	fixClock(t)
	w := httptest.NewRecorder()

	Write(w, http.StatusCreated, "created", func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Str("abc") })
		})
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "created", body["message"])
	assert.Equal(t, float64(201), body["statusCode"])
	assert.Equal(t, "2025-03-01T12:00:00Z", body["timestamp"])
	assert.Equal(t, map[string]any{"id": "abc"}, body["data"])
}

func TestWrite_NoData(t *testing.T) {
	w := httptest.NewRecorder()
	Write(w, http.StatusOK, "ok", nil)

	body := decode(t, w)
	_, hasData := body["data"]
	assert.False(t, hasData)
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusBadRequest, "validation failed",
		Field{Name: "quantity", Message: "must be between 1 and 1000"},
	)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(400), body["statusCode"])
	require.Len(t, body["errors"], 1)
	assert.Equal(t, map[string]any{
		"field":   "quantity",
		"message": "must be between 1 and 1000",
	}, body["errors"].([]any)[0])
}

func TestError_NoFields(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusNotFound, "order not found")

	body := decode(t, w)
	_, hasErrors := body["errors"]
	assert.False(t, hasErrors)
	assert.Equal(t, "order not found", body["message"])
}
