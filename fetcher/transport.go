package fetcher

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/text/encoding/charmap"
)

// latin1Transport reads whole response bodies within a deadline and re-encodes
// them from ISO-8859-1 to UTF-8. The forum declares a legacy charset while the
// archive is kept in UTF-8.
type latin1Transport struct {
	next    http.RoundTripper
	timeout time.Duration

	mu  sync.Mutex
	ctx context.Context
}

// bind makes ctx the parent of the requests that follow. nil unbinds.
func (t *latin1Transport) bind(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ctx = ctx
}

func (t *latin1Transport) parent(req *http.Request) context.Context {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ctx == nil {
		return req.Context()
	}
	return t.ctx
}

func (t *latin1Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := t.parent(req)
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	resp, err := t.next.RoundTrip(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, err
	}

	resp.Body = io.NopCloser(bytes.NewReader(decoded))
	resp.ContentLength = int64(len(decoded))
	resp.Header.Set("Content-Length", strconv.Itoa(len(decoded)))
	resp.Header.Set("Content-Type", utf8ContentType(resp.Header.Get("Content-Type")))
	return resp, nil
}

func utf8ContentType(contentType string) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType == "" {
		mediaType, params = "text/html", map[string]string{}
	}
	params["charset"] = "utf-8"
	return mime.FormatMediaType(mediaType, params)
}
