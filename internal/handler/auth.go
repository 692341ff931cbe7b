package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/user"
)

func (h *Handler) public(fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			writeError(w, r, err)
		}
	})
}

// authed requires a valid bearer token and stores the principal in the
// request context.
func (h *Handler) authed(fn handlerFunc) http.Handler {
	return h.public(func(w http.ResponseWriter, r *http.Request) error {
		p, err := h.bearer(r)
		if err != nil {
			return err
		}
		ctx := auth.WithPrincipal(r.Context(), p)
		ctx = zctx.With(ctx, zap.String("user_id", p.UserID))
		return fn(w, r.WithContext(ctx))
	})
}

// admin is authed plus the Admin role.
func (h *Handler) admin(fn handlerFunc) http.Handler {
	return h.authed(func(w http.ResponseWriter, r *http.Request) error {
		if !principal(r).IsAdmin() {
			return auth.ErrForbidden
		}
		return fn(w, r)
	})
}

func (h *Handler) bearer(r *http.Request) (auth.Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.Principal{}, auth.ErrUnauthenticated
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	return h.Tokens.Verify(strings.TrimSpace(token))
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

// ownerOnly rejects callers that are neither userID nor an admin.
func ownerOnly(r *http.Request, userID string) error {
	if !principal(r).CanAccessUser(userID) {
		return auth.ErrForbidden
	}
	return nil
}

func registerFields(req *user.RegisterRequest) fields {
	return fields{
		"fullName": str(&req.FullName),
		"username": str(&req.Username),
		"password": str(&req.Password),
		"email":    str(&req.Email),
		"phone":    str(&req.Phone),
		"address":  str(&req.Address),
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) error {
	var req user.RegisterRequest
	if err := decodeBody(r, registerFields(&req)); err != nil {
		return err
	}
	u, err := h.Users.Register(r.Context(), req)
	if err != nil {
		return err
	}
	tok, err := h.issue(u)
	if err != nil {
		return err
	}
	return created(w, "user registered", encodeSession(u, tok))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) error {
	var username, password string
	if err := decodeBody(r, fields{
		"username": str(&username),
		"password": str(&password),
	}); err != nil {
		return err
	}
	u, err := h.Users.Authenticate(r.Context(), username, password)
	if err != nil {
		return err
	}
	tok, err := h.issue(u)
	if err != nil {
		return err
	}
	return ok(w, "login successful", encodeSession(u, tok))
}

func (h *Handler) issue(u *user.User) (*auth.Token, error) {
	tok, err := h.Tokens.Issue(auth.Principal{UserID: u.ID, Username: u.Username, Role: u.RoleName})
	if err != nil {
		return nil, errors.Wrap(err, "issue token")
	}
	return tok, nil
}

func encodeSession(u *user.User, tok *auth.Token) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("token")
		e.Str(tok.Value)
		e.FieldStart("tokenType")
		e.Str("Bearer")
		e.FieldStart("expiresAt")
		encodeTime(e, tok.ExpiresAt)
		e.FieldStart("user")
		encodeUser(e, *u)
		e.ObjEnd()
	}
}
