package tokens

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/alexb007/munaz-backend/internal/app/system/authutil"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// maxCredentialBody bounds how much of a login body is read.
const maxCredentialBody = 64 << 10

// VerificationError means the presented credentials were not accepted.
// Reason is for server logs only.
type VerificationError struct {
	Reason string
	Err    error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return "verification failed: " + e.Reason + ": " + e.Err.Error()
	}
	return "verification failed: " + e.Reason
}

func (e *VerificationError) Unwrap() error { return e.Err }

func rejected(reason string, err error) error {
	return &VerificationError{Reason: reason, Err: err}
}

// IsVerificationError reports whether err is a credential rejection rather
// than an infrastructure fault.
func IsVerificationError(err error) bool {
	var ve *VerificationError
	return errors.As(err, &ve)
}

// UserByID loads users for bearer verification. A missing user is
// mongo.ErrNoDocuments.
type UserByID interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// UserByUsername loads users for password verification.
type UserByUsername interface {
	FindByUsername(ctx context.Context, username string) (*models.User, bool, error)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Bearer (access token)                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// BearerVerifier accepts "Authorization: Bearer <access token>".
type BearerVerifier struct {
	issuer *Issuer
	users  UserByID
}

func NewBearerVerifier(issuer *Issuer, users UserByID) *BearerVerifier {
	return &BearerVerifier{issuer: issuer, users: users}
}

// Verify returns the token's user and the raw token.
func (v *BearerVerifier) Verify(r *http.Request) (*models.User, string, error) {
	raw, err := bearerToken(r)
	if err != nil {
		return nil, "", err
	}

	claims, err := v.issuer.Parse(raw, TypeAccess)
	if err != nil {
		return nil, "", rejected("invalid token", err)
	}
	oid, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, "", rejected("invalid subject", err)
	}

	u, err := v.users.GetByID(r.Context(), oid)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, "", rejected("user not found", nil)
	}
	if err != nil {
		return nil, "", fmt.Errorf("load token user: %w", err)
	}
	if !u.IsActive() {
		return nil, "", rejected("user disabled", nil)
	}
	return u, raw, nil
}

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", rejected("missing authorization header", nil)
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", rejected("malformed authorization header", nil)
	}
	return strings.TrimSpace(parts[1]), nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Password (token endpoint)                                                   |
*─────────────────────────────────────────────────────────────────────────────*/

// PasswordVerifier accepts a username/password body and issues an access token.
type PasswordVerifier struct {
	issuer *Issuer
	users  UserByUsername
}

func NewPasswordVerifier(issuer *Issuer, users UserByUsername) *PasswordVerifier {
	return &PasswordVerifier{issuer: issuer, users: users}
}

// Verify checks the credentials in the body. The body is restored afterwards.
func (v *PasswordVerifier) Verify(r *http.Request) (*models.User, string, error) {
	username, password, ok := readCredentials(r)
	if !ok || username == "" || password == "" {
		return nil, "", rejected("missing credentials", nil)
	}

	u, found, err := v.users.FindByUsername(r.Context(), username)
	if err != nil {
		return nil, "", fmt.Errorf("load login user: %w", err)
	}
	if !found {
		authutil.BurnCompare(password)
		return nil, "", rejected("unknown username", nil)
	}
	if !authutil.CheckPassword(password, u.PasswordHash) {
		return nil, "", rejected("wrong password", nil)
	}
	if !u.IsActive() {
		return nil, "", rejected("user disabled", nil)
	}

	access, err := v.issuer.IssueAccess(u)
	if err != nil {
		return nil, "", err
	}
	return u, access, nil
}

// readCredentials decodes username/password from a JSON or form body.
func readCredentials(r *http.Request) (username, password string, ok bool) {
	if r.Body == nil {
		return "", "", false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCredentialBody))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
	if err != nil || len(body) == 0 {
		return "", "", false
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var in struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.Unmarshal(body, &in); err != nil {
			return "", "", false
		}
		return in.Username, in.Password, true
	case "application/x-www-form-urlencoded":
		vals, err := url.ParseQuery(string(body))
		if err != nil {
			return "", "", false
		}
		return vals.Get("username"), vals.Get("password"), true
	}
	return "", "", false
}
