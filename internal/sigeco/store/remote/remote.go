package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/store"
)

// maxDocumentBody caps how much of a remote document we are willing to read.
// Collections are capped upstream (1000 access records ~ a few hundred KB),
// so 8 MiB is generous.
const maxDocumentBody = 8 << 20

// KV is the HTTP-backed persistence substrate. The backend exposes one
// document per collection key:
//
//	GET    /documents/{key}   -> 200 body | 404
//	PUT    /documents/{key}   <- body
//	DELETE /documents/{key}
//
// It exists so the local core stays interchangeable with the hosted backend;
// failures are classified into storage kinds (413/507 -> quota).
type KV struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string, client *http.Client) *KV {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &KV{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	resp, err := s.do(ctx, http.MethodGet, key, "")
	if err != nil {
		return "", false, &store.StorageError{Kind: store.KindUnknown, Op: "get " + key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, classify("get "+key, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBody))
	if err != nil {
		return "", false, &store.StorageError{Kind: store.KindUnknown, Op: "get " + key, Err: err}
	}
	return string(body), true, nil
}

func (s *KV) Set(ctx context.Context, key, value string) error {
	resp, err := s.do(ctx, http.MethodPut, key, value)
	if err != nil {
		return &store.StorageError{Kind: store.KindUnknown, Op: "set " + key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return classify("set "+key, resp.StatusCode)
	}
	return nil
}

func (s *KV) Delete(ctx context.Context, key string) error {
	resp, err := s.do(ctx, http.MethodDelete, key, "")
	if err != nil {
		return &store.StorageError{Kind: store.KindUnknown, Op: "delete " + key, Err: err}
	}
	defer resp.Body.Close()

	// Deleting a missing document is a no-op.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return classify("delete "+key, resp.StatusCode)
	}
	return nil
}

func (s *KV) do(ctx context.Context, method, key, body string) (*http.Response, error) {
	u := s.baseURL + "/documents/" + url.PathEscape(key)

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.client.Do(req)
}

func classify(op string, status int) *store.StorageError {
	kind := store.KindUnknown
	switch status {
	case http.StatusRequestEntityTooLarge, http.StatusInsufficientStorage:
		kind = store.KindQuotaExceeded
	}
	return &store.StorageError{
		Kind: kind,
		Op:   op,
		Err:  fmt.Errorf("unexpected status %d", status),
	}
}
