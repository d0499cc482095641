package httpserver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"
)

// Framing errors.
var (
	// ErrFramingTimeout means the deadline elapsed before a complete request arrived.
	ErrFramingTimeout = errors.New("framing timeout")

	// ErrConnectionClosed means the peer closed before the request was complete.
	ErrConnectionClosed = errors.New("connection closed before request completed")

	// ErrLimitExceeded means the request exceeds a configured size limit.
	ErrLimitExceeded = errors.New("request size limit exceeded")

	// ErrHeaderTooLarge is answered with 431.
	ErrHeaderTooLarge = fmt.Errorf("%w: header block too large", ErrLimitExceeded)

	// ErrBodyTooLarge is answered with 413.
	ErrBodyTooLarge = fmt.Errorf("%w: body too large", ErrLimitExceeded)
)

var headerTerminator = []byte("\r\n\r\n")

// FramerConfig bounds how a request is read from a connection.
type FramerConfig struct {
	// ReadSlice is the length of a single timed read.
	ReadSlice time.Duration

	// HeaderTimeout is the deadline for the complete header block.
	HeaderTimeout time.Duration

	// BodyTimeout extends the deadline once the headers are in.
	BodyTimeout time.Duration

	// MaxRequestTime caps the extended deadline, measured from the first read.
	MaxRequestTime time.Duration

	// MaxHeaderBytes limits the header block including the terminator.
	MaxHeaderBytes int

	// MaxBodyBytes limits the announced Content-Length.
	MaxBodyBytes int
}

// DefaultFramerConfig returns the default framing bounds.
func DefaultFramerConfig() FramerConfig {
	return FramerConfig{
		ReadSlice:      500 * time.Millisecond,
		HeaderTimeout:  2 * time.Second,
		BodyTimeout:    2 * time.Second,
		MaxRequestTime: 10 * time.Second,
		MaxHeaderBytes: 64 << 10,
		MaxBodyBytes:   1 << 20,
	}
}

func (c FramerConfig) withDefaults() FramerConfig {
	def := DefaultFramerConfig()
	if c.ReadSlice <= 0 {
		c.ReadSlice = def.ReadSlice
	}
	if c.HeaderTimeout <= 0 {
		c.HeaderTimeout = def.HeaderTimeout
	}
	if c.BodyTimeout <= 0 {
		c.BodyTimeout = def.BodyTimeout
	}
	if c.MaxRequestTime <= 0 {
		c.MaxRequestTime = def.MaxRequestTime
	}
	if c.MaxHeaderBytes <= 0 {
		c.MaxHeaderBytes = def.MaxHeaderBytes
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = def.MaxBodyBytes
	}
	return c
}

// Frame is one complete raw request.
type Frame struct {
	// Raw holds the header block followed by exactly ContentLength body bytes.
	Raw []byte

	// HeaderLen is the length of the header block including the blank line.
	HeaderLen int

	// ContentLength is the announced body length.
	ContentLength int
}

// Header returns the header block without the terminating blank line.
func (f *Frame) Header() []byte {
	return f.Raw[:f.HeaderLen-len(headerTerminator)]
}

// Body returns the body bytes.
func (f *Frame) Body() []byte {
	return f.Raw[f.HeaderLen:]
}

// ReadFrame reads one request from conn in ReadSlice steps until the header
// block and the announced body are complete. Bytes past the body are
// discarded. conn's read deadline is left set on return.
func ReadFrame(conn net.Conn, cfg FramerConfig) (*Frame, error) {
	cfg = cfg.withDefaults()

	start := time.Now()
	deadline := start.Add(cfg.HeaderTimeout)
	ceiling := start.Add(cfg.MaxRequestTime)

	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	headerLen := -1
	contentLength := 0

	for {
		now := time.Now()
		if !now.Before(deadline) {
			return nil, fmt.Errorf("%w: %d bytes read", ErrFramingTimeout, len(buf))
		}
		sliceEnd := now.Add(cfg.ReadSlice)
		if sliceEnd.After(deadline) {
			sliceEnd = deadline
		}
		if err := conn.SetReadDeadline(sliceEnd); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnectionClosed, err)
		}

		n, readErr := conn.Read(chunk)
		buf = append(buf, chunk[:n]...)

		// 1. Locate the header block
		if headerLen < 0 {
			idx := bytes.Index(buf, headerTerminator)
			if idx < 0 {
				if len(buf) > cfg.MaxHeaderBytes {
					return nil, ErrHeaderTooLarge
				}
			} else {
				headerLen = idx + len(headerTerminator)
				if headerLen > cfg.MaxHeaderBytes {
					return nil, ErrHeaderTooLarge
				}
				contentLength = parseContentLength(buf[:idx])
				if contentLength > cfg.MaxBodyBytes {
					return nil, ErrBodyTooLarge
				}

				// 2. Extend the deadline once for the body
				deadline = time.Now().Add(cfg.BodyTimeout)
				if deadline.After(ceiling) {
					deadline = ceiling
				}
			}
		}

		// 3. Complete?
		if headerLen >= 0 && len(buf) >= headerLen+contentLength {
			return &Frame{
				Raw:           buf[:headerLen+contentLength],
				HeaderLen:     headerLen,
				ContentLength: contentLength,
			}, nil
		}

		if readErr != nil {
			var netErr net.Error
			if errors.As(readErr, &netErr) && netErr.Timeout() {
				continue
			}
			if errors.Is(readErr, io.EOF) {
				return nil, fmt.Errorf("%w: %d bytes read", ErrConnectionClosed, len(buf))
			}
			return nil, fmt.Errorf("%w: %v", ErrConnectionClosed, readErr)
		}
	}
}

// parseContentLength finds Content-Length in a raw header block. Absent,
// negative or unparsable values count as zero.
func parseContentLength(header []byte) int {
	for _, line := range bytes.Split(header, []byte("\r\n")) {
		name, value, ok := bytes.Cut(line, []byte(":"))
		if !ok || !bytes.EqualFold(bytes.TrimSpace(name), []byte("content-length")) {
			continue
		}
		n, err := strconv.Atoi(string(bytes.TrimSpace(value)))
		if err != nil || n < 0 {
			return 0
		}
		return n
	}
	return 0
}
