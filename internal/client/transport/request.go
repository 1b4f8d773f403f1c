package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
)

// Request is one outbound call. Body is held as bytes so the facade can replay
// it after a refresh.
type Request struct {
	Method      string
	URL         string
	Header      http.Header
	Body        []byte
	ContentType string
}

// NewRequest returns a body-less request.
func NewRequest(method, url string) *Request {
	return &Request{Method: method, URL: url, Header: make(http.Header)}
}

// NewJSONRequest returns a request whose body is body encoded as JSON.
func NewJSONRequest(method, url string, body any) (*Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s body: %w", method, url, err)
	}
	req := NewRequest(method, url)
	req.Body = payload
	req.ContentType = "application/json"
	return req, nil
}

// FormFile is one file part of a multipart body.
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// NewMultipartRequest encodes fields (repeated values become repeated parts)
// followed by files.
func NewMultipartRequest(method, url string, fields map[string][]string, order []string, files []FormFile) (*Request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, name := range order {
		for _, v := range fields[name] {
			if err := w.WriteField(name, v); err != nil {
				return nil, fmt.Errorf("write field %s: %w", name, err)
			}
		}
	}
	for _, f := range files {
		part, err := w.CreatePart(fileHeader(f))
		if err != nil {
			return nil, fmt.Errorf("create part %s: %w", f.Filename, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, fmt.Errorf("write part %s: %w", f.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req := NewRequest(method, url)
	req.Body = buf.Bytes()
	req.ContentType = w.FormDataContentType()
	return req, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func fileHeader(f FormFile) map[string][]string {
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	return map[string][]string{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Filename))},
		"Content-Type":        {ct},
	}
}

// Response is a completed 2xx exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the body into v.
func (r *Response) DecodeJSON(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(r.Body, v)
}
