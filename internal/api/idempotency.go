package api

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotentReplayedHeader  = "Idempotent-Replayed"
	maxIdempotentRequestBytes = 64 << 10
)

type idempotentResponse struct {
	requestHash string
	status      int
	body        []byte
}

// IdempotencyCache replays the first successful response to a retried
// request carrying the same Idempotency-Key, so a client that lost the
// reply to a booking gets its confirmation back instead of a conflict.
// Only 2xx responses are kept; failures may be retried for real.
type IdempotencyCache struct {
	cache *cache.Cache
}

func NewIdempotencyCache(ttl time.Duration) *IdempotencyCache {
	return &IdempotencyCache{cache: cache.New(ttl, 2*ttl)}
}

func (c *IdempotencyCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotentRequestBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not read body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		sum := sha256.Sum256(append([]byte(r.Method+" "+r.URL.Path+"\n"), body...))
		hash := hex.EncodeToString(sum[:])

		if cached, found := c.cache.Get(key); found {
			resp := cached.(idempotentResponse)
			if resp.requestHash != hash {
				writeError(w, http.StatusUnprocessableEntity, "idempotency_conflict",
					"Idempotency-Key was already used with a different request")
				return
			}

			log.Info().Str("idempotency_key", key).Str("request_id", GetRequestID(r.Context())).Msg("replaying response")
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(IdempotentReplayedHeader, "true")
			w.WriteHeader(resp.status)
			_, _ = w.Write(resp.body)
			return
		}

		rec := &capturingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.status >= 200 && rec.status < 300 {
			c.cache.Set(key, idempotentResponse{
				requestHash: hash,
				status:      rec.status,
				body:        rec.body.Bytes(),
			}, cache.DefaultExpiration)
		}
	})
}

// capturingWriter passes the response through and keeps a copy of it.
type capturingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (cw *capturingWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *capturingWriter) Write(p []byte) (int, error) {
	cw.body.Write(p)
	return cw.ResponseWriter.Write(p)
}
