package eta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ahmedelazaizi/invoiceportaleta/pkg/config"
)

// Paths of the authority's REST surface.
const (
	pathToken       = "/connect/token"
	pathSubmissions = "/api/v1/documentsubmissions"
	pathCancel      = "/api/v1/documentsubmissions/cancel"
	pathBulk        = "/api/v1/documentsubmissions/bulk"
	pathTaxpayers   = "/api/v1/taxpayers/"
	pathDocuments   = "/api/v1/documents/"
)

var (
	okRead   = []int{http.StatusOK}
	okCreate = []int{http.StatusOK, http.StatusCreated, http.StatusAccepted}
)

// Client talks to the Egyptian Tax Authority e-invoicing API. It is the only
// component that performs network I/O: token exchange, submissions, status
// polls, cancellations and the document read surface all go through the same
// retry policy (do). Safe for concurrent use.
type Client struct {
	cfg    config.ETAConfig
	http   *http.Client
	signer *Signer
	tokens *TokenSource
	retry  RetryPolicy
	log    zerolog.Logger
}

var _ Gateway = (*Client)(nil)

// NewClient builds the authority client from configuration. Zero-valued retry
// and timeout settings fall back to the defaults.
func NewClient(cfg config.ETAConfig, log zerolog.Logger) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 2 * time.Second
	}
	if cfg.TokenTimeout <= 0 {
		cfg.TokenTimeout = 30 * time.Second
	}
	if cfg.StatusTimeout <= 0 {
		cfg.StatusTimeout = 30 * time.Second
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 60 * time.Second
	}
	if cfg.BulkTimeout <= 0 {
		cfg.BulkTimeout = 120 * time.Second
	}
	if cfg.PrintoutTimeout <= 0 {
		cfg.PrintoutTimeout = 60 * time.Second
	}

	c := &Client{
		cfg: cfg,
		// No client-wide timeout: each attempt carries its own deadline.
		http:   &http.Client{},
		signer: NewSigner(cfg.ClientSecret),
		retry:  RetryPolicy{MaxAttempts: cfg.MaxAttempts, BaseDelay: cfg.RetryBaseDelay},
		log:    log.With().Str("component", "eta_client").Logger(),
	}
	c.tokens = NewTokenSource(c.exchangeToken, cfg.TokenSafetyMargin)
	return c
}

// ── Token exchange ────────────────────────────────────────────────────────────

// exchangeToken performs the client-credentials exchange under the shared
// retry policy. Called by the TokenSource while it holds the refresh lock.
func (c *Client) exchangeToken(ctx context.Context) (string, int, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	encoded := form.Encode()

	body, err := c.do(ctx, "token", c.cfg.TokenTimeout, okRead, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(pathToken), strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return "", 0, err
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", 0, fmt.Errorf("decode token response: %w", err)
	}
	if out.AccessToken == "" {
		return "", 0, fmt.Errorf("token response without access_token")
	}
	c.log.Debug().Int("expires_in", out.ExpiresIn).Msg("access token refreshed")
	return out.AccessToken, out.ExpiresIn, nil
}

// ── Submissions ───────────────────────────────────────────────────────────────

// SubmitDocument sends one canonical document. The payload is marshalled once
// and those exact bytes are both signed and transmitted.
func (c *Client) SubmitDocument(ctx context.Context, doc *CanonicalDocument) (*SubmissionResponse, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("eta: marshal document: %w", err)
	}
	return c.postSigned(ctx, "submit", c.endpoint(pathSubmissions), c.cfg.SubmitTimeout, payload)
}

// SubmitDocuments sends several documents in one bulk envelope, signed as one unit.
func (c *Client) SubmitDocuments(ctx context.Context, docs []*CanonicalDocument) (*SubmissionResponse, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("eta: empty document batch")
	}
	payload, err := json.Marshal(bulkEnvelope{Documents: docs})
	if err != nil {
		return nil, fmt.Errorf("eta: marshal bulk envelope: %w", err)
	}
	return c.postSigned(ctx, "bulk_submit", c.endpoint(pathBulk), c.cfg.BulkTimeout, payload)
}

// postSigned runs one signed submission call and decodes the response.
func (c *Client) postSigned(ctx context.Context, op, endpoint string, timeout time.Duration, payload []byte) (*SubmissionResponse, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	signature := c.signer.Sign(payload)

	body, err := c.do(ctx, op, timeout, okCreate, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Signature", signature)
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	out := &SubmissionResponse{Raw: json.RawMessage(body)}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("eta: decode %s response: %w", op, err)
	}
	c.log.Info().Str("op", op).Str("submission_id", out.SubmissionID).Msg("document accepted by authority")
	return out, nil
}

// GetSubmissionStatus polls the remote lifecycle stage of a submission.
func (c *Client) GetSubmissionStatus(ctx context.Context, submissionID string) (*StatusResponse, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, "status", c.cfg.StatusTimeout, okRead, func(ctx context.Context) (*http.Request, error) {
		return c.getJSON(ctx, c.endpoint(pathSubmissions+"/"+url.PathEscape(submissionID)), token)
	})
	if err != nil {
		return nil, err
	}

	out := &StatusResponse{Raw: json.RawMessage(body)}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("eta: decode status response: %w", err)
	}
	return out, nil
}

// CancelDocument asks the authority to cancel a submitted document.
func (c *Client) CancelDocument(ctx context.Context, submissionID, reason string) (*CancelResponse, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]string{
		"submissionId": submissionID,
		"reason":       reason,
	})
	if err != nil {
		return nil, fmt.Errorf("eta: marshal cancel request: %w", err)
	}

	body, err := c.do(ctx, "cancel", c.cfg.StatusTimeout, okRead, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(pathCancel), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	out := &CancelResponse{Raw: json.RawMessage(body)}
	_ = json.Unmarshal(body, out) // status field is optional in the cancel body
	c.log.Info().Str("submission_id", submissionID).Msg("document cancelled at authority")
	return out, nil
}

// ── Read/query surface ────────────────────────────────────────────────────────

// VerifyTaxpayer checks a tax registration number against the authority's
// registry. 404 means "not registered" and is a valid outcome, not an error.
func (c *Client) VerifyTaxpayer(ctx context.Context, taxID string) (*TaxpayerInfo, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var status int
	body, err := c.doWithStatus(ctx, "taxpayer", c.cfg.StatusTimeout, []int{http.StatusOK, http.StatusNotFound}, &status,
		func(ctx context.Context) (*http.Request, error) {
			return c.getJSON(ctx, c.endpoint(pathTaxpayers+url.PathEscape(taxID)), token)
		})
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return &TaxpayerInfo{Found: false}, nil
	}
	return &TaxpayerInfo{Found: true, Raw: json.RawMessage(body)}, nil
}

// GetDocument fetches the full document details by its authority uuid.
func (c *Client) GetDocument(ctx context.Context, documentUUID string) (json.RawMessage, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, "document", c.cfg.StatusTimeout, okRead, func(ctx context.Context) (*http.Request, error) {
		return c.getJSON(ctx, c.endpoint(pathDocuments+url.PathEscape(documentUUID)), token)
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// GetDocumentPrintout downloads the rendered document ("pdf" or "html") as
// binary content. Longest timeout of the read surface.
func (c *Client) GetDocumentPrintout(ctx context.Context, documentUUID, format string) ([]byte, error) {
	if format != "pdf" && format != "html" {
		return nil, fmt.Errorf("eta: invalid printout format %q (want pdf or html)", format)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, "printout", c.cfg.PrintoutTimeout, okRead, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.endpoint(pathDocuments+url.PathEscape(documentUUID)+"/printout"), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/"+format)
		return req, nil
	})
}

// RecentDocuments lists the latest documents, paginated.
func (c *Client) RecentDocuments(ctx context.Context, pageSize, pageNumber int) (json.RawMessage, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	endpoint := c.endpoint(pathDocuments+"recent") +
		"?pageSize=" + strconv.Itoa(pageSize) + "&pageNumber=" + strconv.Itoa(pageNumber)
	body, err := c.do(ctx, "recent", c.cfg.StatusTimeout, okRead, func(ctx context.Context) (*http.Request, error) {
		return c.getJSON(ctx, endpoint, token)
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// SearchDocuments queries documents by arbitrary criteria, paginated.
func (c *Client) SearchDocuments(ctx context.Context, criteria map[string]any, pageSize, pageNumber int) (json.RawMessage, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	if criteria == nil {
		criteria = map[string]any{}
	}
	criteria["pageSize"] = pageSize
	criteria["pageNumber"] = pageNumber
	payload, err := json.Marshal(criteria)
	if err != nil {
		return nil, fmt.Errorf("eta: marshal search criteria: %w", err)
	}

	body, err := c.do(ctx, "search", c.cfg.StatusTimeout, okRead, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(pathDocuments+"search"), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// ── Shared call machinery ─────────────────────────────────────────────────────

// do executes one logical operation under the retry policy. Each attempt gets
// a fresh request (body readers cannot be replayed) and its own deadline.
func (c *Client) do(ctx context.Context, op string, timeout time.Duration, okStatuses []int,
	newRequest func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var status int
	return c.doWithStatus(ctx, op, timeout, okStatuses, &status, newRequest)
}

func (c *Client) doWithStatus(ctx context.Context, op string, timeout time.Duration, okStatuses []int, status *int,
	newRequest func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	var lastBody []byte

	err := c.retry.Do(ctx, retryableOutcome, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		req, err := newRequest(attemptCtx)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			c.log.Warn().Str("op", op).Err(err).Msg("transport failure, will retry if attempts remain")
			return &transportError{Op: op, Err: err}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &transportError{Op: op, Err: err}
		}
		lastBody = body
		*status = resp.StatusCode

		for _, ok := range okStatuses {
			if resp.StatusCode == ok {
				return nil
			}
		}
		c.log.Warn().Str("op", op).Int("status", resp.StatusCode).Msg("authority returned non-success status")
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	})
	if err != nil {
		return nil, err
	}
	return lastBody, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, token string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.cfg.APIURL, "/") + path
}
