package helpers

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	Role        string `json:"role"`
	Email       string `json:"email"`
	AppMetadata struct {
		Provider  string   `json:"provider"`
		Providers []string `json:"providers"`
		Roles     []string `json:"roles,omitempty"`
	} `json:"app_metadata"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// TokenValidator verifies access tokens issued by the identity provider. A
// shared secret selects HS256; otherwise keys come from the provider JWKS,
// fetched on first use.
type TokenValidator struct {
	secret  []byte
	jwksURL string

	mu   sync.Mutex
	jwks *keyfunc.JWKS
}

func NewTokenValidator(supabaseURL, secret string) *TokenValidator {
	return &TokenValidator{
		secret:  []byte(secret),
		jwksURL: strings.TrimRight(supabaseURL, "/") + "/auth/v1/.well-known/jwks.json",
	}
}

func (v *TokenValidator) keyfunc() (jwt.Keyfunc, error) {
	if len(v.secret) > 0 {
		return func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return v.secret, nil
		}, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.jwks == nil {
		jwks, err := keyfunc.Get(v.jwksURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshTimeout:    10 * time.Second,
			RefreshUnknownKID: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load JWKS: %w", err)
		}
		v.jwks = jwks
	}
	return v.jwks.Keyfunc, nil
}

func (v *TokenValidator) Validate(tokenStr string) (*CustomClaims, error) {
	kf, err := v.keyfunc()
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, kf, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Close stops the JWKS background refresh.
func (v *TokenValidator) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.jwks != nil {
		v.jwks.EndBackground()
		v.jwks = nil
	}
}

func IsPasswordStrong(password string) bool {
	if len(password) < 8 {
		return false
	}
	hasLower := regexp.MustCompile(`[a-z]`).MatchString(password)
	hasUpper := regexp.MustCompile(`[A-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`\d`).MatchString(password)
	hasSpecial := regexp.MustCompile(`[@$!%*?&#._-]`).MatchString(password)
	return hasLower && hasUpper && hasNumber && hasSpecial
}

// StringTrim trims and collapses inner whitespace runs.
func StringTrim(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// NormalizeImagePath strips the "static/" prefix stored for locally served uploads.
func NormalizeImagePath(path *string) *string {
	if path == nil {
		return nil
	}
	p := strings.TrimPrefix(*path, "static/")
	return &p
}

// DefaultAvatarURL builds a generated initials avatar for users without one.
func DefaultAvatarURL(firstName, lastName string) string {
	name := strings.TrimSpace(firstName + " " + lastName)
	if name == "" {
		name = "User"
	}
	return "https://ui-avatars.com/api/?background=random&name=" + url.QueryEscape(name)
}
