package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/descope/virtualwebauthn"
	"github.com/justinas/nosurf"
	"github.com/myrjola/casefile/internal/errors"
	"io"
	"log/slog"
	"net/http"
	"time"
)

type Client struct {
	client        *http.Client
	url           string
	rp            virtualwebauthn.RelyingParty
	authenticator virtualwebauthn.Authenticator
	csrfToken     string
}

// APIError is the JSON error body the API responds with on failure.
type APIError struct {
	Status  int    `json:"-"`
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Kind, e.Message)
}

// NewClient creates a Webauthn-aware HTTP client.
//
// rpID and rpOrigin should correspond to the Webauthn setup on the server.
func NewClient(url, rpID, rpOrigin string) (*Client, error) {
	jar, err := newUnsafeCookieJar()
	if err != nil {
		return nil, errors.Wrap(err, "create unsafe cookie jar")
	}
	return &Client{
		client:        &http.Client{Jar: jar},
		url:           url,
		rp:            virtualwebauthn.RelyingParty{Name: "Casefile", ID: rpID, Origin: rpOrigin},
		authenticator: virtualwebauthn.NewAuthenticator(),
		csrfToken:     "",
	}, nil
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			c.url+urlPath,
			nil,
		); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = c.client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if err = resp.Body.Close(); err != nil {
					return errors.Wrap(err, "close response body")
				}
				return nil
			}
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// CSRFToken fetches a CSRF token from the server. The token is remembered and sent with every later request.
func (c *Client) CSRFToken(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.DoJSON(ctx, http.MethodGet, "/api/csrf", nil, &out); err != nil {
		return "", errors.Wrap(err, "get csrf token")
	}
	if out.Token == "" {
		return "", errors.New("empty csrf token")
	}
	c.csrfToken = out.Token
	return out.Token, nil
}

// Do sends body to urlPath. A non-nil body is sent as raw bytes when it is a []byte and as JSON otherwise.
func (c *Client) Do(ctx context.Context, method, urlPath string, body any) (*http.Response, error) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, errors.Wrap(err, "marshal request body")
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, reader)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.csrfToken != "" {
		req.Header.Set(nosurf.HeaderName, c.csrfToken)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request", slog.String("method", method), slog.String("path", urlPath))
	}
	return resp, nil
}

// DoJSON sends body to urlPath and decodes the JSON response into out, which may be nil. A response with a status
// outside 2xx is returned as an [*APIError].
func (c *Client) DoJSON(ctx context.Context, method, urlPath string, body, out any) error {
	resp, err := c.Do(ctx, method, urlPath, body)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Kind: "", Message: string(data)}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err = json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "decode response body", slog.String("path", urlPath))
	}
	return nil
}

// Register registers a new WebAuthn credential with the server which also logs the client in.
func (c *Client) Register(ctx context.Context) error {
	if _, err := c.CSRFToken(ctx); err != nil {
		return err
	}

	var (
		err     error
		attOpts *virtualwebauthn.AttestationOptions
	)
	if attOpts, err = c.startRegistration(ctx); err != nil {
		return errors.Wrap(err, "start registration")
	}

	var credential *virtualwebauthn.Credential
	if credential, err = c.finishRegistration(ctx, attOpts); err != nil {
		return errors.Wrap(err, "finish registration")
	}

	// At this point, our credential is ready for logging in.
	c.authenticator.AddCredential(*credential)
	// This option is needed for making Passkey login work.
	c.authenticator.Options.UserHandle = []byte(attOpts.UserID)
	return nil
}

// startRegistration starts the registration process and returns the attestation options needed for finishRegistration.
func (c *Client) startRegistration(ctx context.Context) (*virtualwebauthn.AttestationOptions, error) {
	body, err := c.postForBody(ctx, "/api/registration/start")
	if err != nil {
		return nil, err
	}
	var attOpts *virtualwebauthn.AttestationOptions
	if attOpts, err = virtualwebauthn.ParseAttestationOptions(body); err != nil {
		return nil, errors.Wrap(err, "parse attestation options")
	}
	return attOpts, nil
}

// finishRegistration finishes the registration process and returns the new credential that can be used for logging in.
func (c *Client) finishRegistration(
	ctx context.Context,
	attOpts *virtualwebauthn.AttestationOptions,
) (*virtualwebauthn.Credential, error) {
	credential := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	attestationResponse := virtualwebauthn.CreateAttestationResponse(c.rp, c.authenticator, credential, *attOpts)
	if err := c.DoJSON(ctx, http.MethodPost, "/api/registration/finish", []byte(attestationResponse), nil); err != nil {
		return nil, err
	}
	return &credential, nil
}

// Login logs in to the server given there is a registered WebAuthn credential.
func (c *Client) Login(ctx context.Context) error {
	if _, err := c.CSRFToken(ctx); err != nil {
		return err
	}
	body, err := c.postForBody(ctx, "/api/login/start")
	if err != nil {
		return errors.Wrap(err, "start login")
	}
	var asOpts *virtualwebauthn.AssertionOptions
	if asOpts, err = virtualwebauthn.ParseAssertionOptions(body); err != nil {
		return errors.Wrap(err, "parse assertion options")
	}
	if len(c.authenticator.Credentials) == 0 {
		return errors.New("no credential registered")
	}
	credential := c.authenticator.Credentials[0]
	asResp := virtualwebauthn.CreateAssertionResponse(c.rp, c.authenticator, credential, *asOpts)
	if err = c.DoJSON(ctx, http.MethodPost, "/api/login/finish", []byte(asResp), nil); err != nil {
		return errors.Wrap(err, "finish login")
	}
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.DoJSON(ctx, http.MethodPost, "/api/logout", nil, nil); err != nil {
		return errors.Wrap(err, "logout")
	}
	return nil
}

// postForBody posts an empty body to urlPath and returns the response body of a successful response.
func (c *Client) postForBody(ctx context.Context, urlPath string) (string, error) {
	var raw json.RawMessage
	if err := c.DoJSON(ctx, http.MethodPost, urlPath, nil, &raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
