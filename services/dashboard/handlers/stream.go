// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/AleutianAI/LaunchDash/services/dashboard/observability"
	"github.com/AleutianAI/LaunchDash/services/dashboard/reactive"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// PathUpdateStream is the websocket form of PathUpdateComponent.
const PathUpdateStream = "/_dash-update-stream"

// MaxStreamMessageBytes bounds one client message. Larger messages close
// the connection with CloseMessageTooBig.
const MaxStreamMessageBytes = 8 * 1024

// StreamFrame is one server message on the update stream.
//
// Exactly one of Response and Error is set. Status mirrors the HTTP status
// the same request would get from PathUpdateComponent.
type StreamFrame struct {
	Output   string                    `json:"output"`
	Status   int                       `json:"status"`
	Response map[string]map[string]any `json:"response,omitempty"`
	Error    string                    `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	// Same-origin page only.
	CheckOrigin:     func(r *http.Request) bool { return r.Header.Get("Origin") == "" || sameOrigin(r) },
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 64 * 1024,
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}

// HandleUpdateStream serves callback dispatch over a websocket.
//
// # Description
//
// Each client message is an UpdateRequest, as posted to
// PathUpdateComponent. Each is answered with one StreamFrame, in order.
// Bad frames get an error frame and the connection stays open; the loop
// ends when the client disconnects or the request context is cancelled.
//
// # Inputs
//
//   - reg: Registry holding the dashboard callbacks.
//   - m: Metrics sink. May be nil.
//   - limiter: Applied per message. nil disables limiting.
//
// # Limitations
//
//   - Messages are handled one at a time per connection.
//   - Messages over MaxStreamMessageBytes end the connection.
func HandleUpdateStream(reg *reactive.Registry, m *observability.DashboardMetrics, limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			requestLogger(c).Warn("Failed to upgrade update stream", "error", err)
			return
		}
		defer ws.Close()
		ws.SetReadLimit(MaxStreamMessageBytes)

		ctx := c.Request.Context()
		log := requestLogger(c)
		log.Debug("Update stream connected")

		for ctx.Err() == nil {
			var req reactive.UpdateRequest
			if err := ws.ReadJSON(&req); err != nil {
				if !isDecodeError(err) {
					log.Debug("Update stream closed", "error", err)
					return
				}
				if m != nil {
					m.RecordError(PathUpdateStream, observability.ErrorCodeValidation)
				}
				if writeFrame(log, ws, StreamFrame{Status: http.StatusBadRequest, Error: "invalid update request"}) != nil {
					return
				}
				continue
			}

			if limiter != nil && !limiter.Allow() {
				if m != nil {
					m.RecordError(PathUpdateStream, observability.ErrorCodeRateLimited)
				}
				if writeFrame(log, ws, StreamFrame{Output: req.Output, Status: http.StatusTooManyRequests, Error: "rate limit exceeded"}) != nil {
					return
				}
				continue
			}

			if writeFrame(log, ws, dispatchFrame(c, reg, m, req)) != nil {
				return
			}
		}
	}
}

// dispatchFrame runs one request and converts the outcome to a frame.
func dispatchFrame(c *gin.Context, reg *reactive.Registry, m *observability.DashboardMetrics, req reactive.UpdateRequest) StreamFrame {
	if req.Output == "" {
		if m != nil {
			m.RecordError(PathUpdateStream, observability.ErrorCodeValidation)
		}
		return StreamFrame{Status: http.StatusBadRequest, Error: "invalid update request"}
	}

	start := time.Now()
	resp, err := reg.Dispatch(c.Request.Context(), req)
	if m != nil {
		m.RecordCallback(reg.OutputLabel(req.Output), time.Since(start).Seconds(), err == nil)
	}
	if err != nil {
		status, code := classifyDispatchError(err)
		if m != nil {
			m.RecordError(PathUpdateStream, code)
		}
		msg := err.Error()
		if status == http.StatusInternalServerError {
			requestLogger(c).Error("Callback failed", "output", req.Output, "error", err)
			msg = "callback failed"
		}
		return StreamFrame{Output: req.Output, Status: status, Error: msg}
	}
	return StreamFrame{Output: req.Output, Status: http.StatusOK, Response: resp.Response}
}

// isDecodeError reports whether err came from decoding a complete message,
// leaving the connection usable.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

func writeFrame(log *slog.Logger, ws *websocket.Conn, frame StreamFrame) error {
	if err := ws.WriteJSON(frame); err != nil {
		log.Warn("Failed to write update frame", "error", err)
		return err
	}
	return nil
}
