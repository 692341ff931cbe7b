// Package envelope writes the uniform JSON response wrapper:
//
//	{"success": true, "message": "...", "statusCode": 200, "timestamp": "...", "data": ...}
//
// Error responses carry "errors" (field details) instead of "data".
package envelope

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
)

// Field is a single invalid input field reported in an error envelope.
type Field struct {
	Name    string
	Message string
}

// now is replaced in tests.
var now = time.Now

// Write encodes a success envelope. data may be nil, in which case the
// "data" key is omitted.
func Write(w http.ResponseWriter, status int, message string, data func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	header(e, status < http.StatusBadRequest, status, message)
	if data != nil {
		e.FieldStart("data")
		data(e)
	}
	e.ObjEnd()
	flush(w, status, e)
}

// Error encodes a failure envelope with optional field errors.
func Error(w http.ResponseWriter, status int, message string, fields ...Field) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ObjStart()
	header(e, false, status, message)
	if len(fields) > 0 {
		e.FieldStart("errors")
		e.ArrStart()
		for _, f := range fields {
			e.ObjStart()
			e.FieldStart("field")
			e.Str(f.Name)
			e.FieldStart("message")
			e.Str(f.Message)
			e.ObjEnd()
		}
		e.ArrEnd()
	}
	e.ObjEnd()
	flush(w, status, e)
}

func header(e *jx.Encoder, ok bool, status int, message string) {
	e.FieldStart("success")
	e.Bool(ok)
	e.FieldStart("message")
	e.Str(message)
	e.FieldStart("statusCode")
	e.Int(status)
	e.FieldStart("timestamp")
	e.Str(now().UTC().Format(time.RFC3339))
}

func flush(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
