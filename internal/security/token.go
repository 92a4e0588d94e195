package security

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidToken is returned for any bearer token that fails verification
var ErrInvalidToken = errors.New("invalid token")

// Identity is what the identity provider tells us about the caller
type Identity struct {
	Subject string
	Name    string
	Email   string
}

type identityClaims struct {
	jwt.RegisteredClaims
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TokenVerifier validates identity provider access tokens. RS256 tokens are
// checked against the provider's JWKS; HS256 tokens against a shared secret.
type TokenVerifier struct {
	issuer     string
	audience   string
	hmacSecret []byte
	keys       *keySet
	methods    []string
}

// NewTokenVerifier creates a verifier. At least one of jwksURL and
// hmacSecret must be set.
func NewTokenVerifier(issuer, audience, jwksURL, hmacSecret string) (*TokenVerifier, error) {
	v := &TokenVerifier{issuer: issuer, audience: audience}
	if jwksURL != "" {
		v.keys = newKeySet(jwksURL, http.DefaultClient)
		v.methods = append(v.methods, jwt.SigningMethodRS256.Alg())
	}
	if hmacSecret != "" {
		v.hmacSecret = []byte(hmacSecret)
		v.methods = append(v.methods, jwt.SigningMethodHS256.Alg())
	}
	if len(v.methods) == 0 {
		return nil, errors.New("token verifier needs AUTH_JWKS_URL, AUTH_ISSUER or AUTH_HMAC_SECRET")
	}
	return v, nil
}

// Verify parses and validates a raw bearer token
func (v *TokenVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &identityClaims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		switch token.Method.Alg() {
		case jwt.SigningMethodHS256.Alg():
			return v.hmacSecret, nil
		case jwt.SigningMethodRS256.Alg():
			kid, _ := token.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing key id")
			}
			return v.keys.key(ctx, kid)
		default:
			return nil, fmt.Errorf("unexpected signing method %s", token.Method.Alg())
		}
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Identity{Subject: claims.Subject, Name: claims.Name, Email: claims.Email}, nil
}

// keySet caches the RSA keys of a JWKS endpoint. Keys are refetched after
// keySetTTL, and unknown key IDs trigger a refetch, in both cases at most
// once per minRefresh. When a refetch fails the cached key keeps serving.
type keySet struct {
	url    string
	client *http.Client
	now    func() time.Time
	group  singleflight.Group

	mu          sync.Mutex
	keys        map[string]*rsa.PublicKey
	fetchedAt   time.Time
	attemptedAt time.Time
}

const (
	keySetTTL  = time.Hour
	minRefresh = time.Minute
)

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func newKeySet(url string, client *http.Client) *keySet {
	return &keySet{url: url, client: client, now: time.Now, keys: map[string]*rsa.PublicKey{}}
}

func (s *keySet) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	s.mu.Lock()
	cached, ok := s.keys[kid]
	now := s.now()
	stale := s.fetchedAt.IsZero() || !ok || now.Sub(s.fetchedAt) >= keySetTTL
	due := stale && now.Sub(s.attemptedAt) >= minRefresh
	s.mu.Unlock()

	if due {
		_, err, _ := s.group.Do("refresh", func() (interface{}, error) {
			return nil, s.refresh(ctx)
		})
		if err != nil {
			if ok {
				return cached, nil
			}
			return nil, fmt.Errorf("failed to fetch signing keys: %w", err)
		}
		s.mu.Lock()
		cached, ok = s.keys[kid]
		s.mu.Unlock()
	}

	if !ok {
		return nil, fmt.Errorf("signing key %q not found", kid)
	}
	return cached, nil
}

// refresh fetches the key set without holding s.mu and swaps it in on success
func (s *keySet) refresh(ctx context.Context) error {
	s.mu.Lock()
	s.attemptedAt = s.now()
	s.mu.Unlock()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(request)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var set jwkSet
	if err := json.Unmarshal(body, &set); err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" {
			continue
		}
		pub, err := k.rsaPublicKey()
		if err != nil {
			return fmt.Errorf("key %q: %w", k.Kid, err)
		}
		keys[k.Kid] = pub
	}

	s.mu.Lock()
	s.keys = keys
	s.fetchedAt = s.now()
	s.mu.Unlock()
	return nil
}

func (k jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	modulusBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	exponentBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	exponent := 0
	for _, b := range exponentBytes {
		exponent = exponent*256 + int(b)
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(modulusBytes),
		E: exponent,
	}, nil
}
