package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultGoogleLeeway  = 30 * time.Second
	defaultJWKSCacheTTL  = 5 * time.Minute
	defaultJWKSTimeout   = 5 * time.Second
	googleIssuer         = "accounts.google.com"
	googleIssuerWithHTTP = "https://accounts.google.com"
)

var (
	// ErrInvalidIDToken is returned for any ID token that cannot be verified.
	ErrInvalidIDToken = errors.New("invalid google token")

	errUnknownKey = errors.New("unknown token key")
)

// GoogleIdentity is the verified payload of a Google ID token.
type GoogleIdentity struct {
	Subject    string
	Email      string
	Name       string
	GivenName  string
	FamilyName string
}

type googleClaims struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	jwt.RegisteredClaims
}

// GoogleVerifierConfig configures Google ID token verification.
type GoogleVerifierConfig struct {
	ClientID   string
	JWKSURL    string
	Leeway     time.Duration
	HTTPClient *http.Client
}

// GoogleVerifier validates Google ID tokens (RS256 + JWKS). Keys are fetched
// on first use, cached for the Cache-Control max-age of the JWKS response
// and refetched when a token names an unknown kid.
type GoogleVerifier struct {
	clientID   string
	jwksURL    string
	leeway     time.Duration
	httpClient *http.Client

	mu         sync.RWMutex
	rsaKeys    map[string]any
	keysExpire time.Time
}

// NewGoogleVerifier creates a verifier. It does not contact Google until the first Verify.
func NewGoogleVerifier(cfg GoogleVerifierConfig) (*GoogleVerifier, error) {
	jwksURL := strings.TrimSpace(cfg.JWKSURL)
	if jwksURL == "" {
		return nil, errors.New("google verifier requires jwksURL")
	}
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultGoogleLeeway
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultJWKSTimeout}
	}
	return &GoogleVerifier{
		clientID:   strings.TrimSpace(cfg.ClientID),
		jwksURL:    jwksURL,
		leeway:     leeway,
		httpClient: client,
	}, nil
}

// Verify checks signature, audience, issuer and expiry and returns the identity.
// Every verification failure wraps ErrInvalidIDToken.
func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*GoogleIdentity, error) {
	if v.clientID == "" {
		return nil, fmt.Errorf("%w: google client id not configured", ErrInvalidIDToken)
	}
	if v.keysExpired() {
		if err := v.refreshJWKS(ctx); err != nil {
			return nil, fmt.Errorf("fetch google keys: %w", err)
		}
	}

	claims, err := v.parse(token)
	if errors.Is(err, errUnknownKey) {
		if refreshErr := v.refreshJWKS(ctx); refreshErr != nil {
			return nil, fmt.Errorf("fetch google keys: %w", refreshErr)
		}
		claims, err = v.parse(token)
	}
	if err != nil {
		return nil, errors.Join(ErrInvalidIDToken, err)
	}

	if claims.Issuer != googleIssuer && claims.Issuer != googleIssuerWithHTTP {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidIDToken, claims.Issuer)
	}
	email := strings.TrimSpace(claims.Email)
	if email == "" || claims.Subject == "" {
		return nil, fmt.Errorf("%w: token carries no email", ErrInvalidIDToken)
	}
	return &GoogleIdentity{
		Subject:    claims.Subject,
		Email:      email,
		Name:       strings.TrimSpace(claims.Name),
		GivenName:  claims.GivenName,
		FamilyName: claims.FamilyName,
	}, nil
}

func (v *GoogleVerifier) parse(token string) (*googleClaims, error) {
	claims := &googleClaims{}
	keys := v.copyKeys()
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := keys[strings.TrimSpace(kid)]
		if !ok {
			return nil, errUnknownKey
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.clientID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (v *GoogleVerifier) keysExpired() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.rsaKeys) == 0 || time.Now().UTC().After(v.keysExpire)
}

func (v *GoogleVerifier) copyKeys() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[string]any, len(v.rsaKeys))
	for kid, key := range v.rsaKeys {
		out[kid] = key
	}
	return out
}

func (v *GoogleVerifier) refreshJWKS(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	var payload struct {
		Keys []struct {
			Kty string `json:"kty"`
			Kid string `json:"kid"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}

	keys := make(map[string]any, len(payload.Keys))
	for _, k := range payload.Keys {
		if !strings.EqualFold(strings.TrimSpace(k.Kty), "RSA") {
			continue
		}
		kid := strings.TrimSpace(k.Kid)
		if kid == "" {
			continue
		}
		pub, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("jwks contains no usable rsa keys")
	}

	ttl := parseCacheMaxAge(resp.Header.Get("Cache-Control"))
	if ttl <= 0 {
		ttl = defaultJWKSCacheTTL
	}

	v.mu.Lock()
	v.rsaKeys = keys
	v.keysExpire = time.Now().UTC().Add(ttl)
	v.mu.Unlock()
	return nil
}

func parseRSAPublicKey(nRaw, eRaw string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(nRaw))
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(eRaw))
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	if n.Sign() <= 0 || !e.IsInt64() || e.Int64() <= 0 {
		return nil, errors.New("invalid rsa key")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

func parseCacheMaxAge(cacheControl string) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		raw, ok := strings.CutPrefix(part, "max-age=")
		if !ok {
			continue
		}
		secs, err := time.ParseDuration(strings.TrimSpace(raw) + "s")
		if err != nil {
			return 0
		}
		return secs
	}
	return 0
}
