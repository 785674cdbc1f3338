package sofetch

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// Response decorates an *http.Response with lazy body accessors. The
// underlying body is a single-read stream: invoke at most one accessor, at
// most once. The embedded response stays fully usable for status, headers
// and manual body handling.
type Response struct {
	*http.Response

	request       *http.Request
	onDecodeError func(error)
}

// Request returns the request this response answered (after modifiers ran).
func (r *Response) Request() *http.Request { return r.request }

// Bytes reads the whole body and closes it.
func (r *Response) Bytes() ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// Text reads the whole body as a string and closes it.
func (r *Response) Text() (string, error) {
	b, err := r.Bytes()
	return string(b), err
}

// Blob returns the raw body stream. The caller owns it and must close it.
func (r *Response) Blob() io.ReadCloser {
	if r.Body == nil {
		return http.NoBody
	}
	return r.Body
}

// JSON decodes the body into dst. A malformed body (including trailing
// non-whitespace payload) returns a *DecodeError and fires the registered
// decode-error observers. The body is always closed.
func (r *Response) JSON(dst any) error {
	if r.Body == nil {
		return r.decodeError(errors.New("nil response body"))
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return r.decodeError(err)
	}
	// Reject extra non-whitespace payload after the first JSON value.
	if dec.More() {
		return r.decodeError(errors.New("unexpected trailing data in response body"))
	}
	return nil
}

// Form parses the body as application/x-www-form-urlencoded or
// multipart/form-data and returns the field values. File parts are skipped.
func (r *Response) Form() (url.Values, error) {
	ct := r.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		return nil, err
	}
	switch {
	case mediaType == "application/x-www-form-urlencoded":
		body, err := r.Text()
		if err != nil {
			return nil, err
		}
		return url.ParseQuery(body)
	case strings.HasPrefix(mediaType, "multipart/"):
		defer r.Body.Close()
		mr := multipart.NewReader(r.Body, params["boundary"])
		values := make(url.Values)
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return values, nil
			}
			if err != nil {
				return nil, err
			}
			if part.FileName() != "" {
				_ = part.Close()
				continue
			}
			b, err := io.ReadAll(part)
			_ = part.Close()
			if err != nil {
				return nil, err
			}
			values.Add(part.FormName(), string(b))
		}
	default:
		return nil, errors.New("sofetch: response is not form-encoded: " + ct)
	}
}

func (r *Response) decodeError(cause error) error {
	err := &DecodeError{Request: r.request, Response: r.Response, Cause: cause}
	if r.onDecodeError != nil {
		r.onDecodeError(err)
	}
	return err
}

// JSON decodes a decorated response into T.
func JSON[T any](r *Response) (T, error) {
	var out T
	if err := r.JSON(&out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}
