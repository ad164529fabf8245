package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// Responses below this size go out uncompressed; small envelopes don't
// amortize the encoder setup.
const compressMinLength = 1024

// Compress brotli-encodes JSON responses for clients that accept it.
// Session state and analytics payloads are the main beneficiaries. The
// WebSocket upgrade handshake passes through untouched.
func Compress() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.Next()
			return
		}
		if !acceptsBrotli(c.Request) {
			c.Next()
			return
		}

		c.Header("Vary", "Accept-Encoding")

		bw := &brotliWriter{
			ResponseWriter: c.Writer,
			minLength:      compressMinLength,
			writer:         brotli.NewWriterLevel(c.Writer, brotli.DefaultCompression),
		}
		defer func() {
			if err := bw.flushPlain(); err != nil {
				_ = c.Error(err)
			}
			if bw.compressed {
				_ = bw.writer.Close()
			}
		}()

		c.Writer = bw
		c.Next()
	}
}

// brotliWriter buffers the response until it knows whether the body clears
// the size threshold. Once compression starts the Content-Encoding header
// is committed and everything flows through the encoder.
type brotliWriter struct {
	gin.ResponseWriter
	writer     *brotli.Writer
	buf        []byte
	minLength  int
	once       sync.Once
	compressed bool
}

func (bw *brotliWriter) Write(data []byte) (int, error) {
	bw.buf = append(bw.buf, data...)
	if len(bw.buf) < bw.minLength {
		return len(data), nil
	}

	bw.once.Do(func() {
		bw.compressed = true
		bw.ResponseWriter.Header().Set("Content-Encoding", "br")
		bw.ResponseWriter.Header().Del("Content-Length")
	})
	n, err := bw.writer.Write(bw.buf)
	bw.buf = bw.buf[:0]
	return n, err
}

func (bw *brotliWriter) WriteString(s string) (int, error) {
	return bw.Write([]byte(s))
}

// Flush drains the buffer uncompressed and forwards the flush, so streaming
// responses are never held back by the threshold.
func (bw *brotliWriter) Flush() {
	if len(bw.buf) > 0 {
		_, _ = bw.ResponseWriter.Write(bw.buf)
		bw.buf = bw.buf[:0]
	}
	bw.ResponseWriter.Flush()
}

// flushPlain drains whatever is left in the buffer at the end of the
// request. A body that never reached the threshold goes out as-is; once
// compression started, the tail must go through the encoder too.
func (bw *brotliWriter) flushPlain() error {
	if len(bw.buf) == 0 {
		return nil
	}
	var err error
	if bw.compressed {
		_, err = bw.writer.Write(bw.buf)
	} else {
		_, err = bw.ResponseWriter.Write(bw.buf)
	}
	bw.buf = bw.buf[:0]
	return err
}

func acceptsBrotli(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		if strings.TrimSpace(strings.ToLower(enc)) == "br" {
			return true
		}
	}
	return false
}
