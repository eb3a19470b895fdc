// Package vultr is a typed client for the Vultr v2 API built on the shared
// transport.
package vultr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/transport"

	"github.com/sirupsen/logrus"
)

const (
	pageSize = 100
	maxPages = 50
)

// Compile-time check that Client satisfies domain.Provider.
var _ domain.Provider = (*Client)(nil)

// Client implements domain.Provider against the Vultr v2 API.
type Client struct {
	t   *transport.Client
	log logrus.FieldLogger
}

// NewClient wraps an authenticated transport. log may be nil.
func NewClient(t *transport.Client, log logrus.FieldLogger) *Client {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Client{t: t, log: log}
}

// meta is the pagination block attached to list responses.
type meta struct {
	Total int `json:"total"`
	Links struct {
		Next string `json:"next"`
		Prev string `json:"prev"`
	} `json:"links"`
}

// listAll follows cursor pagination and returns the raw entries found under
// key across all pages.
func (c *Client) listAll(ctx context.Context, op, path, key string, query url.Values) ([]json.RawMessage, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("per_page", strconv.Itoa(pageSize))

	var items []json.RawMessage
	for page := 0; page < maxPages; page++ {
		var body map[string]json.RawMessage
		if _, err := c.t.DoJSON(ctx, transport.Request{
			Op:     op,
			Method: http.MethodGet,
			Path:   path,
			Query:  q,
		}, &body); err != nil {
			return nil, err
		}

		raw, ok := body[key]
		if !ok {
			return nil, malformed(op, "missing %q in response", key)
		}
		var pageItems []json.RawMessage
		if len(bytes.TrimSpace(raw)) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			if err := json.Unmarshal(raw, &pageItems); err != nil {
				return nil, malformed(op, "%q is not a list", key)
			}
		}
		items = append(items, pageItems...)

		var m meta
		if rawMeta, ok := body["meta"]; ok {
			_ = json.Unmarshal(rawMeta, &m)
		}
		if m.Links.Next == "" {
			return items, nil
		}
		q.Set("cursor", m.Links.Next)
	}

	c.log.WithField("op", op).Warnf("stopped after %d pages", maxPages)
	return items, nil
}

// decodeEach decodes raw entries into T, dropping entries that fail to
// decode or that keep reports as unusable.
func decodeEach[T any](log logrus.FieldLogger, op string, raws []json.RawMessage, keep func(T) bool) []T {
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			log.WithFields(logrus.Fields{"op": op, "index": i}).WithError(err).Warn("dropping undecodable record")
			continue
		}
		if !keep(v) {
			log.WithFields(logrus.Fields{"op": op, "index": i}).Warn("dropping record without id")
			continue
		}
		out = append(out, v)
	}
	return out
}

func malformed(op, format string, args ...any) *domain.Error {
	return &domain.Error{
		Kind:       domain.KindServer,
		Op:         op,
		StatusCode: http.StatusOK,
		Message:    fmt.Sprintf(format, args...),
	}
}

// flexFloat accepts a JSON number or a numeric string.
type flexFloat struct {
	v     float64
	valid bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) || len(b) == 0 {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		f.v, f.valid = v, true
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	f.v, f.valid = v, true
	return nil
}

func (f flexFloat) ptr() *float64 {
	if !f.valid {
		return nil
	}
	v := f.v
	return &v
}
