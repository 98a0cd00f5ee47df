// Package httpkit provides HTTP middleware infrastructure.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"carsearch_frontend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// ContextRequestIDKey is the gin context key for the request ID.
	ContextRequestIDKey = "requestID"
	// RequestIDHeader carries the request ID in and out.
	RequestIDHeader = "X-Request-ID"
)

// RequestID ensures every request has an ID for tracing and logs.
// An incoming X-Request-ID is kept; otherwise a new UUID is issued.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ContextRequestIDKey, rid)
		c.Header(RequestIDHeader, rid)
		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, rid)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetRequestID extracts the request ID from the gin context when available.
func GetRequestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(ContextRequestIDKey)
}

// RequestLogger logs HTTP requests with timing.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		clientIP := c.ClientIP()

		reqLog := log
		if rid := GetRequestID(c); rid != "" {
			reqLog = log.WithRequestID(rid)
		}
		reqLog.HTTPRequest(c.Request.Method, path, status, float64(latency.Milliseconds()), clientIP)
	}
}

// SecurityHeaders adds security headers to responses.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		// The search page ships its stylesheet inline.
		c.Header("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

// IPRateLimiter manages per-IP rate limiters.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

// NewIPRateLimiter creates a new IP-based rate limiter.
func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  r,
		burst: burst,
		log:   log,
	}
}

// NewPerMinuteLimiter creates an IP limiter allowing perMinute requests per minute.
func NewPerMinuteLimiter(perMinute float64, burst int, log *logger.Logger) *IPRateLimiter {
	return NewIPRateLimiter(rate.Limit(perMinute/60.0), burst, log)
}

func (i *IPRateLimiter) getLimiter(ip string) *rate.Limiter {
	limiter, _ := i.limiters.LoadOrStore(ip, rate.NewLimiter(i.rate, i.burst))
	return limiter.(*rate.Limiter)
}

// RateLimit returns a middleware that rate limits by IP and answers
// rejected requests with a JSON 429.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return i.RateLimitWith(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": "rate limit exceeded",
		})
	})
}

// RateLimitWith rate limits by IP and hands rejected requests to onLimit,
// which must abort the chain.
func (i *IPRateLimiter) RateLimitWith(onLimit gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := i.getLimiter(ip)

		if !limiter.Allow() {
			if i.log != nil {
				i.log.RateLimitExceeded(ip, c.Request.URL.Path)
			}
			onLimit(c)
			return
		}

		c.Next()
	}
}
