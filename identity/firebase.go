package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const defaultIdentityEndpoint = "https://identitytoolkit.googleapis.com/v1"

// FirebaseClient talks to the Google Identity Toolkit REST API and verifies
// Firebase ID tokens locally against Google's published signing certificates.
type FirebaseClient struct {
	apiKey       string
	projectID    string
	endpoint     string
	checkRevoked bool
	httpClient   *http.Client
	keys         *keyCache
	now          func() time.Time
}

// NewFirebaseClient builds a client from environment configuration.
func NewFirebaseClient() (*FirebaseClient, error) {
	apiKey := os.Getenv("FIREBASE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("FIREBASE_API_KEY not set")
	}
	projectID := os.Getenv("FIREBASE_PROJECT_ID")
	if projectID == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID not set")
	}

	endpoint := os.Getenv("FIREBASE_IDENTITY_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultIdentityEndpoint
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}

	return &FirebaseClient{
		apiKey:       apiKey,
		projectID:    projectID,
		endpoint:     strings.TrimRight(endpoint, "/"),
		checkRevoked: os.Getenv("FIREBASE_CHECK_REVOKED") == "true",
		httpClient:   httpClient,
		keys:         newKeyCache(os.Getenv("FIREBASE_CERTS_URL"), httpClient),
		now:          time.Now,
	}, nil
}

// VerifyToken verifies an ID token's RS256 signature against Google's
// securetoken certificates and checks the issuer, audience, subject and
// expiry claims. With FIREBASE_CHECK_REVOKED set it additionally checks the
// account state and token validity window via accounts:lookup.
func (c *FirebaseClient) VerifyToken(ctx context.Context, idToken string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))

	token, err := parser.Parse(idToken, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("missing kid header")
		}
		return c.keys.key(ctx, kid)
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}
		if errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrInvalidToken)
	}

	issuer := "https://securetoken.google.com/" + c.projectID
	if iss, _ := mapClaims["iss"].(string); iss != issuer {
		return nil, fmt.Errorf("%w: unexpected issuer", ErrInvalidToken)
	}
	if aud, _ := mapClaims["aud"].(string); aud != c.projectID {
		return nil, fmt.Errorf("%w: unexpected audience", ErrInvalidToken)
	}
	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	claims := &Claims{Subject: sub}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if authTime, ok := mapClaims["auth_time"].(float64); ok {
		claims.AuthTime = time.Unix(int64(authTime), 0)
	}

	if c.checkRevoked {
		if err := c.checkRevocation(ctx, idToken, claims); err != nil {
			return nil, err
		}
	}

	return claims, nil
}

// CreateAccount creates a remote account and returns its subject id.
func (c *FirebaseClient) CreateAccount(ctx context.Context, email, password string) (string, error) {
	var out struct {
		LocalID string `json:"localId"`
	}
	err := c.post(ctx, "accounts:signUp", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.LocalID == "" {
		return "", fmt.Errorf("%w: signUp response missing localId", ErrUnavailable)
	}
	return out.LocalID, nil
}

// SignIn exchanges email/password credentials for an ID token.
func (c *FirebaseClient) SignIn(ctx context.Context, email, password string) (string, error) {
	var out struct {
		IDToken string `json:"idToken"`
	}
	err := c.post(ctx, "accounts:signInWithPassword", map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return "", err
	}
	if out.IDToken == "" {
		return "", fmt.Errorf("%w: signIn response missing idToken", ErrUnavailable)
	}
	return out.IDToken, nil
}

func (c *FirebaseClient) checkRevocation(ctx context.Context, idToken string, claims *Claims) error {
	var out struct {
		Users []struct {
			Disabled   bool   `json:"disabled"`
			ValidSince string `json:"validSince"`
		} `json:"users"`
	}
	if err := c.post(ctx, "accounts:lookup", map[string]interface{}{"idToken": idToken}, &out); err != nil {
		return err
	}
	if len(out.Users) == 0 {
		return fmt.Errorf("%w: account not found", ErrInvalidToken)
	}
	user := out.Users[0]
	if user.Disabled {
		return fmt.Errorf("%w: account disabled", ErrRevokedToken)
	}
	if user.ValidSince != "" && !claims.AuthTime.IsZero() {
		if secs, err := strconv.ParseInt(user.ValidSince, 10, 64); err == nil {
			if claims.AuthTime.Before(time.Unix(secs, 0)) {
				return fmt.Errorf("%w: token issued before tokens were invalidated", ErrRevokedToken)
			}
		}
	}
	return nil
}

// post issues a JSON request to an Identity Toolkit endpoint and maps the
// provider's error codes onto the classified sentinel errors.
func (c *FirebaseClient) post(ctx context.Context, action string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", action, err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", c.endpoint, action, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Errorf("%w: %s: %v", ErrTimeout, action, err)
		}
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, action, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading %s response: %v", ErrUnavailable, action, err)
	}

	if resp.StatusCode >= 300 {
		return classifyAPIError(action, respBody, resp.Status)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: decoding %s response: %v", ErrUnavailable, action, err)
		}
	}
	return nil
}

func classifyAPIError(action string, body []byte, status string) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)
	message := apiErr.Error.Message
	if message == "" {
		message = status
	}

	// Provider error codes carry suffixes like "EMAIL_EXISTS : ...".
	code := message
	if i := strings.IndexAny(code, " :"); i >= 0 {
		code = code[:i]
	}

	switch code {
	case "EMAIL_EXISTS":
		return fmt.Errorf("%w: %s", ErrEmailExists, message)
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS":
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, message)
	case "USER_DISABLED":
		return fmt.Errorf("%w: %s", ErrRevokedToken, message)
	case "TOKEN_EXPIRED":
		return fmt.Errorf("%w: %s", ErrExpiredToken, message)
	case "INVALID_ID_TOKEN", "USER_NOT_FOUND":
		return fmt.Errorf("%w: %s", ErrInvalidToken, message)
	}
	return fmt.Errorf("%w: %s failed: %s", ErrUnavailable, action, message)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
