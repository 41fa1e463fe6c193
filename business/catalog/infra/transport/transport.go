// Package transport maps HTTP provider responses onto catalog fetch results.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/internal/httpclient"
	"github.com/fd1az/fba-sourcing/internal/money"
	"github.com/fd1az/fba-sourcing/internal/validate"
)

// StatusError is a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// Classify turns the outcome of an HTTP call into a *domain.FetchError, or nil
// when the response is usable.
func Classify(source domain.Source, query string, resp *httpclient.Response, err error) error {
	if err != nil {
		var decodeErr *httpclient.DecodeError
		switch {
		case errors.As(err, &decodeErr):
			return domain.NewFetchError(domain.FailureMalformed, source, query, err)
		case errors.Is(err, context.DeadlineExceeded):
			return domain.NewFetchError(domain.FailureTimeout, source, query, err)
		case errors.Is(err, context.Canceled):
			return domain.NewFetchError(domain.FailureCancelled, source, query, err)
		default:
			return domain.NewFetchError(domain.FailureTransport, source, query, err)
		}
	}
	if resp == nil {
		return domain.NewFetchError(domain.FailureTransport, source, query, errors.New("empty response"))
	}

	switch code := resp.StatusCode; {
	case code == http.StatusNotFound:
		return domain.NotFound(source, query)
	case code == http.StatusTooManyRequests:
		return domain.NewFetchError(domain.FailureRateLimited, source, query, statusError(resp))
	case code >= 400:
		return domain.NewFetchError(domain.FailureTransport, source, query, statusError(resp))
	}
	return nil
}

func statusError(resp *httpclient.Response) error {
	body := resp.String()
	if len(body) > 256 {
		body = body[:256]
	}
	return &StatusError{StatusCode: resp.StatusCode, Body: body}
}

// Text is a JSON scalar that providers send inconsistently: a string, a
// number, null, or an object carrying the display text in "raw" or "value".
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case b[0] == '{':
		var obj struct {
			Raw   *Text `json:"raw"`
			Value *Text `json:"value"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		switch {
		case obj.Raw != nil:
			*t = *obj.Raw
		case obj.Value != nil:
			*t = *obj.Value
		default:
			*t = ""
		}
	case b[0] == '[':
		return fmt.Errorf("transport: unexpected array %s", b)
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string {
	return strings.TrimSpace(string(t))
}

// Price reads the first amount in s. Missing or unparseable prices become
// zero, which the resolver treats as "no price".
func Price(s string) money.Amount {
	d, ok := validate.ParseMoney(s)
	if !ok {
		return money.Zero
	}
	a, err := money.New(d)
	if err != nil {
		return money.Zero
	}
	return a
}

// Rating reads the first decimal number in s.
func Rating(s string) *decimal.Decimal {
	d, ok := validate.ParseMoney(s)
	if !ok {
		return nil
	}
	return &d
}

// Count reads the first integer in s.
func Count(s string) *int {
	n, ok := validate.ParseInt(s)
	if !ok {
		return nil
	}
	return &n
}
