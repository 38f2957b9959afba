package middleware

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	// How long the "in-progress" lock survives if a handler crashes before
	// writing the final entry.
	inProgressTTL = 60 * time.Second
	// Allowed client/server clock skew for X-Request-At (in UTC).
	maxClockSkew = 10 * time.Minute

	headerRequestID = "X-Request-Id"
	headerRequestAt = "X-Request-At"
	headerUserID    = "X-User-Id"
)

type storedReply struct {
	InProgress  bool      `json:"in_progress"`
	Code        int       `json:"code"`
	Body        []byte    `json:"body"`
	BodySHA256  string    `json:"body_sha256"`
	RequestID   string    `json:"request_id"`
	RequestAtMS int64     `json:"request_at_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

type replyRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *replyRecorder) Header() http.Header { return r.w.Header() }
func (r *replyRecorder) Write(b []byte) (int, error) {
	if r.buf != nil {
		r.buf.Write(b)
	}
	return r.w.Write(b)
}
func (r *replyRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

func failJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]any{"success": false, "message": msg})
}

// Idempotency dedupes mutating requests: key = method + route + user id +
// request id. A matching replay returns the stored response; the same request
// id with a different body is rejected. X-Request-At must be epoch (seconds or
// ms) or RFC3339/RFC3339Nano with a timezone (Z or ±HH:MM).
func Idempotency(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			method := req.Method

			// Only enforce on mutating methods
			switch method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.TrimSpace(req.Header.Get(headerRequestID))
			if reqID == "" {
				return failJSON(c, http.StatusBadRequest, "missing X-Request-Id")
			}
			if !validReqID(reqID) {
				return failJSON(c, http.StatusBadRequest, "invalid X-Request-Id format")
			}

			reqAt, err := parseRequestAt(req.Header.Get(headerRequestAt))
			if err != nil {
				return failJSON(c, http.StatusBadRequest, err.Error())
			}
			now := nowUTC()
			if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return failJSON(c, http.StatusBadRequest, "X-Request-At too skewed")
			}

			userID := strings.TrimSpace(req.Header.Get(headerUserID))
			if userID == "" {
				return failJSON(c, http.StatusBadRequest, "missing X-User-Id")
			}
			if !reHex32.MatchString(userID) {
				return failJSON(c, http.StatusBadRequest, "invalid X-User-Id")
			}

			// Buffer & hash body so the handler can still read it
			var body []byte
			if req.Body != nil {
				body, _ = io.ReadAll(req.Body)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(body))
			bhash := bodyHash(body)

			key := buildKey(method, c.Path(), userID, reqID)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			entry := storedReply{
				InProgress:  true,
				BodySHA256:  bhash,
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			}
			ok, err := claimKey(ctx, rdb, key, entry)
			if err != nil {
				return failJSON(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !ok {
				// Key exists: body must match, and a finished entry can be replayed
				cur, errLoad := loadReply(ctx, rdb, key)
				if errLoad != nil {
					log.Printf("idempotency: load %s failed: %v", key, errLoad)
				}

				if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
					return failJSON(c, http.StatusConflict, "X-Request-Id reused with different body")
				}
				if !cur.InProgress && cur.Code != 0 && len(cur.Body) > 0 {
					return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
				}
				return failJSON(c, http.StatusConflict, "request is already in progress")
			}

			// Run the handler and keep a copy of the final response
			rec := &replyRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			final := storedReply{
				InProgress:  false,
				Code:        rec.code,
				Body:        rec.buf.Bytes(),
				BodySHA256:  bhash,
				RequestID:   reqID,
				RequestAtMS: reqAt.UnixMilli(),
				CreatedAt:   nowUTC(),
			}
			_ = saveReply(context.Background(), rdb, key, final, ttl)
			return nil
		}
	}
}
