package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"zoolingo/capture"
)

const (
	DefaultTimeout = 30 * time.Second

	processPath = "/api/process-audio"
	demoPath    = "/api/demo/"
	healthPath  = "/health"
)

type Config struct {
	// Origin is the backend base URL, e.g. http://localhost:8000. Empty
	// means no backend: audio submissions fail and demos are simulated.
	Origin  string
	Timeout time.Duration
	Seed    uint64
}

// Submission is the outcome of one request, with timings for diagnostics.
type Submission struct {
	Result  Result
	Metrics *NetworkMetrics
}

type Client struct {
	origin *url.URL
	http   *TracedClient
	sim    *Simulator
	ids    *idSource
	now    func() time.Time
}

func New(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	c := &Client{
		http: NewTracedClient(cfg.Timeout),
		sim:  NewSimulator(cfg.Seed),
		ids:  &idSource{},
		now:  time.Now,
	}
	// Simulated and backend results share one ID sequence.
	c.sim.ids = c.ids
	if cfg.Origin != "" {
		u, err := url.Parse(strings.TrimRight(cfg.Origin, "/"))
		if err != nil {
			return nil, fmt.Errorf("parsing backend origin: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("backend origin %q: scheme must be http or https", cfg.Origin)
		}
		c.origin = u
	}
	return c, nil
}

func (c *Client) Origin() string {
	if c.origin == nil {
		return ""
	}
	return c.origin.String()
}

// Simulator exposes the local demo fallback, mainly so callers can tune the
// delay.
func (c *Client) Simulator() *Simulator { return c.sim }

type resultData struct {
	Animal      string  `json:"animal"`
	Emotion     string  `json:"emotion"`
	Translation string  `json:"translation"`
	Confidence  float64 `json:"confidence"`
	AudioURL    *string `json:"audio_url"`
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"` // FastAPI error responses
	Data    *resultData     `json:"data"`
}

func (e envelope) reason(statusCode int) string {
	if e.Message != "" {
		return e.Message
	}
	var detail string
	if len(e.Detail) > 0 && json.Unmarshal(e.Detail, &detail) == nil && detail != "" {
		return detail
	}
	if len(e.Detail) > 0 {
		return string(e.Detail)
	}
	return fmt.Sprintf("backend returned HTTP %d", statusCode)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (c *Client) url(path string) string {
	return c.origin.String() + path
}

// SubmitAudio uploads one payload and returns its translation. Exactly one
// attempt is made. Failures are *ProcessingError or *ConnectionError.
func (c *Client) SubmitAudio(ctx context.Context, p capture.Payload) (Submission, error) {
	if c.origin == nil {
		return Submission{}, &ConnectionError{Err: errors.New("no backend configured")}
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(p.Name)))
	h.Set("Content-Type", p.MediaType)
	part, err := w.CreatePart(h)
	if err != nil {
		return Submission{}, err
	}
	if _, err := part.Write(p.Data); err != nil {
		return Submission{}, err
	}
	if err := w.Close(); err != nil {
		return Submission{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(processPath), &body)
	if err != nil {
		return Submission{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Submission{}, &ConnectionError{Err: err}
	}
	res, err := c.decode(resp)
	return Submission{Result: res, Metrics: resp.Metrics}, err
}

func (c *Client) decode(resp *TracedResponse) (Result, error) {
	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return Result{}, &ProcessingError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unreadable response (HTTP %d)", resp.StatusCode),
		}
	}
	if env.Status != "success" {
		return Result{}, &ProcessingError{StatusCode: resp.StatusCode, Message: env.reason(resp.StatusCode)}
	}
	if resp.StatusCode >= 300 {
		return Result{}, &ProcessingError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("backend returned HTTP %d", resp.StatusCode),
		}
	}
	if env.Data == nil {
		return Result{}, &ProcessingError{StatusCode: resp.StatusCode, Message: "response has no result"}
	}

	now := c.now()
	r := Result{
		ID:          c.ids.next(now),
		Animal:      Animal(env.Data.Animal),
		Emotion:     Emotion(env.Data.Emotion),
		Translation: env.Data.Translation,
		Confidence:  clampConfidence(env.Data.Confidence),
		CreatedAt:   now,
	}
	if env.Data.AudioURL != nil && *env.Data.AudioURL != "" {
		r.AudioURL = c.ResolveURL(*env.Data.AudioURL)
	}
	return r, nil
}

// ResolveURL makes a reply reference absolute against the backend origin.
func (c *Client) ResolveURL(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() || c.origin == nil {
		return ref
	}
	return c.origin.ResolveReference(u).String()
}

// SubmitDemo asks the backend for a canned result and falls back to the
// local simulation on any failure. It never returns an error.
func (c *Client) SubmitDemo(ctx context.Context, d Demo) Submission {
	if c.origin != nil {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(demoPath+url.PathEscape(d.ID())), nil)
		if err == nil {
			req.Header.Set("Accept", "application/json")
			if resp, err := c.http.Do(req); err == nil && resp.StatusCode < 300 {
				if res, err := c.decode(resp); err == nil {
					return Submission{Result: res, Metrics: resp.Metrics}
				}
			}
		}
	}
	return Submission{Result: c.sim.Simulate(ctx, d)}
}

// Health reports whether the backend answers its health check.
func (c *Client) Health(ctx context.Context) error {
	if c.origin == nil {
		return &ConnectionError{Err: errors.New("no backend configured")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(healthPath), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &ProcessingError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("health check returned HTTP %d", resp.StatusCode)}
	}
	return nil
}

// FetchReply downloads a spoken reply and returns it with its content type.
func (c *Client) FetchReply(ctx context.Context, ref string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ResolveURL(ref), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", &ConnectionError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", &ProcessingError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("reply download returned HTTP %d", resp.StatusCode)}
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
