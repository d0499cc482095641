package httpserver

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Content types.
const (
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeText = "text/plain; charset=utf-8"
)

// HeaderField is one response header line.
type HeaderField struct {
	Name  string
	Value string
}

// Response is an HTTP response built by a handler.
type Response struct {
	Status      int
	ContentType string

	// Headers are written in order after Content-Type and Content-Length.
	Headers []HeaderField
	Body    []byte
}

// NewResponse creates a response with the given status, type and body.
func NewResponse(status int, contentType string, body []byte) *Response {
	return &Response{Status: status, ContentType: contentType, Body: body}
}

// Text creates a text/plain response.
func Text(status int, body string) *Response {
	return NewResponse(status, ContentTypeText, []byte(body))
}

// HTML creates a text/html response.
func HTML(status int, body string) *Response {
	return NewResponse(status, ContentTypeHTML, []byte(body))
}

// JSON creates an application/json response. Encoding failures produce 500.
func JSON(status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		return Text(http.StatusInternalServerError, "Internal Server Error")
	}
	return NewResponse(status, ContentTypeJSON, body)
}

// AddHeader appends a header line.
func (r *Response) AddHeader(name, value string) *Response {
	r.Headers = append(r.Headers, HeaderField{Name: name, Value: value})
	return r
}

// SetHeader replaces every header line named name.
func (r *Response) SetHeader(name, value string) *Response {
	kept := r.Headers[:0]
	for _, h := range r.Headers {
		if !strings.EqualFold(h.Name, name) {
			kept = append(kept, h)
		}
	}
	r.Headers = append(kept, HeaderField{Name: name, Value: value})
	return r
}

// GetHeader returns the first header named name.
func (r *Response) GetHeader(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Bytes serializes the response as HTTP/1.1 with Connection: close.
func (r *Response) Bytes() []byte {
	var b bytes.Buffer

	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	reason := http.StatusText(status)
	if reason == "" {
		reason = "Status " + strconv.Itoa(status)
	}
	contentType := r.ContentType
	if contentType == "" {
		contentType = ContentTypeText
	}

	b.WriteString("HTTP/1.1 ")
	b.WriteString(strconv.Itoa(status))
	b.WriteByte(' ')
	b.WriteString(reason)
	b.WriteString("\r\n")

	writeHeader(&b, "Content-Type", contentType)
	writeHeader(&b, "Content-Length", strconv.Itoa(len(r.Body)))
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, "Content-Length") || strings.EqualFold(h.Name, "Connection") {
			continue
		}
		writeHeader(&b, h.Name, h.Value)
	}
	writeHeader(&b, "Connection", "close")
	b.WriteString("\r\n")
	b.Write(r.Body)

	return b.Bytes()
}

// WriteTo writes the serialized response to w.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	return int64(n), err
}

// writeHeader writes one header line, dropping CR and LF from both parts.
func writeHeader(b *bytes.Buffer, name, value string) {
	b.WriteString(stripCRLF(name))
	b.WriteString(": ")
	b.WriteString(stripCRLF(value))
	b.WriteString("\r\n")
}

func stripCRLF(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
