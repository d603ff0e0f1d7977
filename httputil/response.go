package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/reactordj/errutil"
)

var ErrEmptyBody = errors.New("unexpected empty response body")

// ReadResponseBody reads at most limit bytes of the response body. A body
// longer than limit is reported as a flaw rather than silently truncated.
func ReadResponseBody(ctx context.Context, resp *http.Response, limit int64) ([]byte, error) {
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if nil != err {
		switch {
		case errutil.IsContext(ctx):
			return nil, ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			return nil, context.DeadlineExceeded
		default:
			flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
			return nil, flaw.From(fmt.Errorf("failed to read response body: %v", err)).Append(flawP)
		}
	}
	if int64(len(respBody)) > limit {
		flawP := flaw.P{"limit": limit}
		return nil, flaw.From(fmt.Errorf("response body exceeds %d bytes", limit)).Append(flawP)
	}
	if len(respBody) == 0 {
		return nil, ErrEmptyBody
	}
	return respBody, nil
}

// ReadOptionalResponseBody is ReadResponseBody for responses where an empty
// body is acceptable, such as error responses.
func ReadOptionalResponseBody(ctx context.Context, resp *http.Response, limit int64) ([]byte, error) {
	respBody, err := ReadResponseBody(ctx, resp, limit)
	if nil != err && !errors.Is(err, ErrEmptyBody) {
		return nil, err
	}
	return respBody, nil
}

// DrainAndClose discards what is left of the body so the connection can be
// reused, then closes it.
func DrainAndClose(body io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	return body.Close()
}
