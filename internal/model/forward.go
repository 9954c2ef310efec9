// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
)

// IncomingRequest is a plain HTTP request received from the legacy client.
type IncomingRequest struct {
	Ctx    context.Context
	Method string
	Host   string // Host header; empty when the client sent none
	Path   string // raw request target including the query string
}

// UpstreamResponse is the HTTPS response to be relayed back to the client.
type UpstreamResponse struct {
	StatusCode    int
	ContentLength string // upstream Content-Length header verbatim; empty when absent
	Body          io.ReadCloser
}

// HasContentLength reports whether upstream sent a Content-Length header.
func (r *UpstreamResponse) HasContentLength() bool {
	return r.ContentLength != ""
}
