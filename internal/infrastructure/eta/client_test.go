package eta

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmedelazaizi/invoiceportaleta/pkg/config"
)

const (
	testClientID     = "client-id"
	testClientSecret = "client-secret"
	testAccessToken  = "access-token-1"
)

func newTestClient(serverURL string) *Client {
	return NewClient(config.ETAConfig{
		APIURL:         serverURL,
		ClientID:       testClientID,
		ClientSecret:   testClientSecret,
		MaxAttempts:    3,
		RetryBaseDelay: time.Millisecond,
	}, zerolog.Nop())
}

// serveToken answers the client-credentials exchange on /connect/token and
// delegates everything else to next.
func serveToken(t *testing.T, next http.HandlerFunc) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/connect/token" {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
			assert.Equal(t, testClientID, r.PostForm.Get("client_id"))
			assert.Equal(t, testClientSecret, r.PostForm.Get("client_secret"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"` + testAccessToken + `","expires_in":3600}`))
			return
		}
		next(w, r)
	}
}

func TestClient_SubmitDocument(t *testing.T) {
	var gotSignature, gotAuth string
	var gotBody []byte

	srv := httptest.NewServer(serveToken(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/documentsubmissions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotSignature = r.Header.Get("X-Signature")
		var err error
		gotBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"submissionId":"sub-42","status":"submitted"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	doc := &CanonicalDocument{InternalID: "INV-1", DocumentType: DocumentTypeInvoice}

	resp, err := c.SubmitDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "sub-42", resp.SubmissionID)
	assert.Equal(t, "submitted", resp.Status)
	assert.JSONEq(t, `{"submissionId":"sub-42","status":"submitted"}`, string(resp.Raw))

	assert.Equal(t, "Bearer "+testAccessToken, gotAuth)

	// The signature must cover the exact bytes the server received.
	assert.Equal(t, NewSigner(testClientSecret).Sign(gotBody), gotSignature)
	var echoed CanonicalDocument
	require.NoError(t, json.Unmarshal(gotBody, &echoed))
	assert.Equal(t, "INV-1", echoed.InternalID)
}

func TestClient_SubmitDocument_RetriesThenFails(t *testing.T) {
	var submits atomic.Int32

	srv := httptest.NewServer(serveToken(t, func(w http.ResponseWriter, r *http.Request) {
		submits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.SubmitDocument(context.Background(), &CanonicalDocument{InternalID: "INV-1"})

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusInternalServerError, ae.StatusCode)
	assert.Equal(t, `{"error":"internal"}`, ae.Body)
	assert.Equal(t, int32(3), submits.Load())
}

func TestClient_SubmitDocument_RecoversOnRetry(t *testing.T) {
	var submits atomic.Int32

	srv := httptest.NewServer(serveToken(t, func(w http.ResponseWriter, r *http.Request) {
		if submits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"submissionId":"sub-7","status":"submitted"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.SubmitDocument(context.Background(), &CanonicalDocument{InternalID: "INV-1"})
	require.NoError(t, err)
	assert.Equal(t, "sub-7", resp.SubmissionID)
	assert.Equal(t, int32(3), submits.Load())
}

func TestClient_TokenExchangeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.SubmitDocument(context.Background(), &CanonicalDocument{InternalID: "INV-1"})
	require.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestClient_TokenReusedAcrossCalls(t *testing.T) {
	var tokenCalls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/connect/token" {
			tokenCalls.Add(1)
			_, _ = w.Write([]byte(`{"access_token":"tok","expires_in":3600}`))
			return
		}
		_, _ = w.Write([]byte(`{"submissionId":"s","status":"submitted"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 3; i++ {
		_, err := c.SubmitDocument(context.Background(), &CanonicalDocument{InternalID: "INV-1"})
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestClient_GetSubmissionStatus(t *testing.T) {
	srv := httptest.NewServer(serveToken(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/documentsubmissions/sub-42", r.URL.Path)
		require.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"submissionId":"sub-42","status":"Valid","validationDate":"2026-03-16T08:00:00Z"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.GetSubmissionStatus(context.Background(), "sub-42")
	require.NoError(t, err)
	assert.Equal(t, "Valid", resp.Status)
	assert.Equal(t, "2026-03-16T08:00:00Z", resp.ValidationDate)
}

func TestClient_CancelDocument(t *testing.T) {
	var gotBody []byte

	srv := httptest.NewServer(serveToken(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/documentsubmissions/cancel", r.URL.Path)
		var err error
		gotBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write([]byte(`{"status":"cancelled"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	resp, err := c.CancelDocument(context.Background(), "sub-42", "duplicate issue")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
	assert.JSONEq(t, `{"submissionId":"sub-42","reason":"duplicate issue"}`, string(gotBody))
}

func TestClient_VerifyTaxpayer(t *testing.T) {
	srv := httptest.NewServer(serveToken(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/taxpayers/313717919":
			_, _ = w.Write([]byte(`{"name":"Nile Trading Co"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	info, err := c.VerifyTaxpayer(context.Background(), "313717919")
	require.NoError(t, err)
	assert.True(t, info.Found)
	assert.JSONEq(t, `{"name":"Nile Trading Co"}`, string(info.Raw))

	// 404 is a regular "not registered" outcome, never an error and never retried.
	info, err = c.VerifyTaxpayer(context.Background(), "999999999")
	require.NoError(t, err)
	assert.False(t, info.Found)
}

func TestClient_GetDocumentPrintout(t *testing.T) {
	srv := httptest.NewServer(serveToken(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/documents/uuid-1/printout", r.URL.Path)
		assert.Equal(t, "application/pdf", r.Header.Get("Accept"))
		_, _ = w.Write([]byte("%PDF-1.7 fake"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)

	data, err := c.GetDocumentPrintout(context.Background(), "uuid-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 fake", string(data))

	_, err = c.GetDocumentPrintout(context.Background(), "uuid-1", "docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid printout format")
}

func TestClient_RecentDocuments(t *testing.T) {
	srv := httptest.NewServer(serveToken(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/documents/recent", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "2", r.URL.Query().Get("pageNumber"))
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	raw, err := c.RecentDocuments(context.Background(), 25, 2)
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":[]}`, string(raw))
}

func TestClient_SearchDocuments(t *testing.T) {
	var gotBody []byte

	srv := httptest.NewServer(serveToken(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/documents/search", r.URL.Path)
		var err error
		gotBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.SearchDocuments(context.Background(), map[string]any{"status": "Valid"}, 10, 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Valid","pageSize":10,"pageNumber":1}`, string(gotBody))
}
