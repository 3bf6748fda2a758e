// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the dashboard service.
//
// # Request Flow
//
//	Request
//	   │
//	   ▼
//	RequestID ──► reuse or mint X-Request-ID, store in context
//	   │
//	   ▼
//	RateLimit ──► 429 when the token bucket is empty (callback route only)
//	   │
//	   ▼
//	Handler (retrieves id via GetRequestID)
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// =============================================================================
// Context Keys
// =============================================================================

// requestIDKey is the gin context key for the request id.
const requestIDKey = "launchdash_request_id"

// HeaderRequestID is echoed on every response.
const HeaderRequestID = "X-Request-ID"

// maxRequestIDLen bounds client-supplied ids.
const maxRequestIDLen = 64

// =============================================================================
// Context Helpers
// =============================================================================

// SetRequestID stores the request id in the Gin context.
func SetRequestID(c *gin.Context, id string) {
	c.Set(requestIDKey, id)
}

// GetRequestID retrieves the request id from the Gin context.
//
// # Outputs
//
//   - string: The id, or "" if RequestID did not run.
func GetRequestID(c *gin.Context) string {
	if v, exists := c.Get(requestIDKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// =============================================================================
// Request ID Middleware
// =============================================================================

// RequestID tags each request with an id.
//
// # Description
//
// Reuses the client's X-Request-ID when it is a sane token, otherwise mints
// a UUIDv4. The id is stored in the context and echoed in the response
// header so browser errors can be matched to server logs.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware ready for router.Use.
//
// # Thread Safety
//
// Thread-safe. The returned middleware can be used concurrently.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sanitizeRequestID(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		SetRequestID(c, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// sanitizeRequestID returns id if it is short and made of URL-safe
// characters, otherwise "".
func sanitizeRequestID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxRequestIDLen {
		return ""
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return ""
		}
	}
	return id
}

// =============================================================================
// Rate Limit Middleware
// =============================================================================

// RateLimit rejects requests with 429 when limiter has no token available.
//
// # Description
//
// A single shared token bucket guards the route. Dragging the payload
// slider fires a callback per change, so the bucket is sized to absorb a
// drag while stopping runaway clients.
//
// # Inputs
//
//   - limiter: Shared limiter. nil disables limiting.
//   - onReject: Optional hook run before aborting, used for metrics.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware function ready for use with Gin.
//
// # Limitations
//
//   - Process-wide, not per client.
func RateLimit(limiter *rate.Limiter, onReject func(c *gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Allow() {
			c.Next()
			return
		}
		if onReject != nil {
			onReject(c)
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":      "rate limit exceeded",
			"request_id": GetRequestID(c),
		})
	}
}
