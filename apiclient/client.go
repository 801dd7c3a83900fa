package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/niva/core"
)

// Doer sends HTTP requests; *http.Client is one.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource provides the session's auth token ("" when logged out); *session.Manager is one.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// soft failures (`success: false` on 2xx) are only honoured on these endpoints
var softFailurePrefixes = []string{"/auth/", "/initiate/"}

type (
	Request struct {
		Method       string // default GET
		Endpoint     string // relative to the base URL, eg. "/feedback/user/"
		Query        url.Values
		Body         interface{} // JSON encoded
		Form         *MultipartForm
		AuthRequired bool
	}

	FormFile struct {
		Field    string
		Filename string
		Content  io.Reader
	}

	// MultipartForm is a multipart/form-data body. Fields are written in order.
	MultipartForm struct {
		Fields [][2]string
		Files  []FormFile
	}
)

func (f *MultipartForm) Add(name, value string) {
	f.Fields = append(f.Fields, [2]string{name, value})
}

func (f *MultipartForm) AddFile(field, filename string, content io.Reader) {
	f.Files = append(f.Files, FormFile{Field: field, Filename: filename, Content: content})
}

func (f *MultipartForm) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, fld := range f.Fields {
		if err := w.WriteField(fld[0], fld[1]); err != nil {
			return nil, "", err
		}
	}
	for _, file := range f.Files {
		part, err := w.CreateFormFile(file.Field, file.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, "", errors.Wrapf(err, "reading %s", file.Filename)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Client is the single gateway to the backend REST API.
type Client struct {
	baseURL string
	http    Doer
	tokens  TokenSource
	logger  core.Logger
}

func New(baseURL string, doer Doer, tokens TokenSource, logger core.Logger) *Client {
	if doer == nil {
		doer = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    doer,
		tokens:  tokens,
		logger:  logger,
	}
}

// NewFromConfig builds a Client on a dedicated *http.Client honouring conf.API.Timeout.
func NewFromConfig(conf *core.Config, tokens TokenSource, logger core.Logger) *Client {
	return New(conf.API.BaseURL, &http.Client{Timeout: conf.API.Timeout}, tokens, logger)
}

func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (*Envelope, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Endpoint: endpoint, Query: query, AuthRequired: true})
}

func (c *Client) Post(ctx context.Context, endpoint string, body interface{}) (*Envelope, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: endpoint, Body: body, AuthRequired: true})
}

func (c *Client) Delete(ctx context.Context, endpoint string) (*Envelope, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Endpoint: endpoint, AuthRequired: true})
}

func (c *Client) PostMultipart(ctx context.Context, endpoint string, form *MultipartForm) (*Envelope, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: endpoint, Form: form, AuthRequired: true})
}

func (c *Client) token(ctx context.Context, required bool) (string, error) {
	if c.tokens == nil {
		if required {
			return "", ErrNoToken
		}
		return "", nil
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		if required {
			return "", errors.Wrap(err, "reading auth token")
		}
		c.logger.Warn("apiclient: reading auth token failed", err)
		return "", nil
	}
	if required && token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (c *Client) newRequest(ctx context.Context, r Request, token, requestID string) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	u := c.baseURL + r.Endpoint
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case r.Form != nil:
		var err error
		if body, contentType, err = r.Form.encode(); err != nil {
			return nil, errors.Wrap(err, "encoding multipart body")
		}
	case r.Body != nil:
		b, err := json.Marshal(r.Body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding JSON body")
		}
		body, contentType = bytes.NewReader(b), "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	return req, nil
}

// Do sends r and normalizes the response. Failures are always *APIError, except for ErrNoToken,
// request building errors and context cancellation.
func (c *Client) Do(ctx context.Context, r Request) (*Envelope, error) {
	token, err := c.token(ctx, r.AuthRequired)
	if err != nil {
		return nil, err
	}

	requestID := uuid.New().String()
	req, err := c.newRequest(ctx, r, token, requestID)
	if err != nil {
		return nil, err
	}
	apiErr := func(kind Kind, status int, msg string, cause error) *APIError {
		return &APIError{
			Kind:      kind,
			Method:    req.Method,
			Endpoint:  r.Endpoint,
			Status:    status,
			Message:   msg,
			RequestID: requestID,
			Err:       cause,
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		e := apiErr(KindTransport, 0, "", err)
		c.logger.Error("apiclient: request failed", e, c.logData(req, requestID, 0, start))
		return nil, e
	}
	defer resp.Body.Close()

	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		e := apiErr(KindTransport, resp.StatusCode, "", errors.Wrap(err, "reading response body"))
		c.logger.Error("apiclient: reading response failed", e, c.logData(req, requestID, resp.StatusCode, start))
		return nil, e
	}

	var env *Envelope
	switch {
	case strings.Contains(resp.Header.Get("Content-Type"), "application/json"):
		if env, err = newEnvelope(resp.StatusCode, body); err != nil {
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				// an unreadable error body is still a status failure
				env = textEnvelope(resp.StatusCode, "")
				break
			}
			return nil, apiErr(KindDecode, resp.StatusCode, "", errors.Wrap(err, "decoding response"))
		}
	case resp.StatusCode == http.StatusNoContent:
		env, _ = newEnvelope(resp.StatusCode, []byte(`{"success": true}`))
	default:
		env = textEnvelope(resp.StatusCode, strings.TrimSpace(string(body)))
	}
	env.RequestID = requestID

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		e := apiErr(KindStatus, resp.StatusCode, env.errorMessage(), nil)
		c.logger.Debug("apiclient: request rejected", e, c.logData(req, requestID, resp.StatusCode, start))
		return nil, e
	}
	if isSoftFailureEndpoint(r.Endpoint) {
		if ok, present := env.Success(); present && !ok {
			return nil, apiErr(KindSoft, resp.StatusCode, env.MessageOr("API request failed"), nil)
		}
	}
	return env, nil
}

func (c *Client) logData(req *http.Request, requestID string, status int, start time.Time) map[string]interface{} {
	return map[string]interface{}{
		"method":     req.Method,
		"url":        req.URL.Path,
		"status":     status,
		"request_id": requestID,
		"duration":   time.Since(start).String(),
	}
}

func isSoftFailureEndpoint(endpoint string) bool {
	for _, p := range softFailurePrefixes {
		if strings.Contains(endpoint, p) {
			return true
		}
	}
	return false
}
