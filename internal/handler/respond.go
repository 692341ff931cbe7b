package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/paging"
	"github.com/xenking/storefront/pkg/envelope"
)

const maxBodySize = 1 << 20

// errMalformedBody is returned when a request body is not the expected JSON
// object.
var errMalformedBody = apperr.Validation("malformed request body")

// handlerFunc is an HTTP handler that reports failures as errors.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindDuplicate:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err to a status and writes the error envelope.
// Unclassified errors are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		envelope.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if e.Kind == apperr.KindUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="storefront"`)
	}
	fields := make([]envelope.Field, 0, len(e.Fields))
	for _, f := range e.Fields {
		fields = append(fields, envelope.Field{Name: f.Field, Message: f.Message})
	}
	envelope.Error(w, statusOf(e.Kind), e.Message, fields...)
}

func ok(w http.ResponseWriter, message string, data func(e *jx.Encoder)) error {
	envelope.Write(w, http.StatusOK, message, data)
	return nil
}

func created(w http.ResponseWriter, message string, data func(e *jx.Encoder)) error {
	envelope.Write(w, http.StatusCreated, message, data)
	return nil
}

func noContent(w http.ResponseWriter) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// fields maps JSON keys of a request object to decoders. Unknown keys are
// skipped and null values leave the target untouched.
type fields map[string]func(d *jx.Decoder) error

func decodeBody(r *http.Request, f fields) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}
	if len(body) == 0 {
		return errMalformedBody
	}
	d := jx.DecodeBytes(body)
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		fn, ok := f[string(key)]
		if !ok {
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		return fn(d)
	}); err != nil {
		var invalid *apperr.Error
		if errors.As(err, &invalid) {
			return invalid
		}
		return errMalformedBody
	}
	return nil
}

func str(p *string) func(*jx.Decoder) error {
	return func(d *jx.Decoder) error {
		v, err := d.Str()
		*p = v
		return err
	}
}

func optStr(p **string) func(*jx.Decoder) error {
	return func(d *jx.Decoder) error {
		v, err := d.Str()
		*p = &v
		return err
	}
}

func integer(p *int) func(*jx.Decoder) error {
	return func(d *jx.Decoder) error {
		v, err := d.Int()
		*p = v
		return err
	}
}

func boolean(p *bool) func(*jx.Decoder) error {
	return func(d *jx.Decoder) error {
		v, err := d.Bool()
		*p = v
		return err
	}
}

func optBool(p **bool) func(*jx.Decoder) error {
	return func(d *jx.Decoder) error {
		v, err := d.Bool()
		*p = &v
		return err
	}
}

// money accepts a JSON number or a numeric string.
func money(field string, p *decimal.Decimal) func(*jx.Decoder) error {
	return func(d *jx.Decoder) error {
		n, err := d.Num()
		if err != nil {
			return err
		}
		v, err := decimal.NewFromString(strings.Trim(n.String(), `"`))
		if err != nil {
			return apperr.InvalidFields([]apperr.FieldError{{Field: field, Message: "must be a number"}})
		}
		*p = v
		return nil
	}
}

// date accepts RFC 3339 timestamps and plain YYYY-MM-DD dates (UTC).
func date(field string, p *time.Time) func(*jx.Decoder) error {
	return func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t, err = time.Parse(time.DateOnly, s)
		}
		if err != nil {
			return apperr.InvalidFields([]apperr.FieldError{{Field: field, Message: "must be a date"}})
		}
		*p = t
		return nil
	}
}

// queryInt reads an optional positive integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, apperr.InvalidFields([]apperr.FieldError{{Field: name, Message: "must be a positive integer"}})
	}
	return v, nil
}

// pageParams reads ?page= and ?size= (or ?pageSize=).
func pageParams(r *http.Request) (paging.Params, error) {
	page, err := queryInt(r, "page")
	if err != nil {
		return paging.Params{}, err
	}
	sizeKey := "size"
	if r.URL.Query().Has("pageSize") {
		sizeKey = "pageSize"
	}
	size, err := queryInt(r, sizeKey)
	if err != nil {
		return paging.Params{}, err
	}
	return paging.Params{Page: page, Size: size}.Normalize(), nil
}
