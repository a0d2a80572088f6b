package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20
)

// Client envuelve *http.Client con helpers comunes para adapters y para el CLI.
type Client struct {
	HTTP    *http.Client
	BaseURL string // opcional; si se define, DoJSON puede recibir paths relativos

	// Headers se mandan en todos los requests (p.ej. Authorization, X-Api-Key).
	Headers map[string]string
}

func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		HTTP: &http.Client{
			Timeout: timeout,
		},
	}
}

func NewWithBaseURL(baseURL string, timeout time.Duration) (*Client, error) {
	c := New(timeout)
	if strings.TrimSpace(baseURL) == "" {
		return c, nil
	}
	u, err := url.ParseRequestURI(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c.BaseURL = strings.TrimRight(baseURL, "/")
	return c, nil
}

// NewWithTransport permite inyectar un Transport (p.ej. para tests).
func NewWithTransport(timeout time.Duration, tr http.RoundTripper) *Client {
	c := New(timeout)
	if tr != nil {
		c.HTTP.Transport = tr
	}
	return c
}

// HTTPError representa una respuesta no-2xx. Si el cuerpo es el error JSON
// estándar de la API, Message y Fields vienen decodificados.
type HTTPError struct {
	StatusCode int
	Body       string
	Message    string
	Fields     map[string]string
}

func (e *HTTPError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
	case e.Body != "":
		return fmt.Sprintf("http error: status=%d body=%s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("http error: status=%d", e.StatusCode)
	}
}

// StatusOf devuelve el status HTTP si err es (o envuelve) un *HTTPError.
func StatusOf(err error) (int, bool) {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode, true
	}
	return 0, false
}

// DoJSON hace un request JSON.
// in == nil => sin body. out == nil => ignora la respuesta.
// Retorna *HTTPError si el status no es 2xx.
func (c *Client) DoJSON(
	ctx context.Context,
	method string,
	pathOrURL string,
	headers map[string]string,
	in any,
	out any,
) error {
	if c == nil || c.HTTP == nil {
		return errors.New("httpclient: nil client")
	}

	fullURL, err := c.resolveURL(pathOrURL)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("httpclient: marshal json: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("httpclient: new request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	setHeaders(req, c.Headers)
	setHeaders(req, headers)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp.StatusCode, raw)
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("httpclient: unmarshal json: %w", err)
	}
	return nil
}

func newHTTPError(status int, raw []byte) *HTTPError {
	he := &HTTPError{StatusCode: status, Body: strings.TrimSpace(string(raw))}
	var eb struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if json.Unmarshal(raw, &eb) == nil {
		he.Message = eb.Error
		he.Fields = eb.Fields
	}
	return he
}

func setHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		req.Header.Set(k, v)
	}
}

func (c *Client) resolveURL(pathOrURL string) (string, error) {
	pathOrURL = strings.TrimSpace(pathOrURL)
	if pathOrURL == "" {
		return "", errors.New("httpclient: empty url")
	}

	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL, nil
	}

	if strings.TrimSpace(c.BaseURL) == "" {
		return "", errors.New("httpclient: relative path requires BaseURL")
	}

	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.BaseURL + pathOrURL, nil
}
