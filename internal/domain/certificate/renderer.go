// Package certificate defines the engine's contract with the external
// certificate document renderer. Rendering internals (PDF layout, seals,
// fonts) stay on the renderer's side; the engine only needs a durable
// document and a stable locator back.
package certificate

import (
	"context"
	"time"
)

// RenderRequest carries everything the renderer needs. The document is
// derived purely from these fields, so re-rendering the same request is
// deterministic up to the storage filename - which the locator captures.
type RenderRequest struct {
	StudentName string
	CourseTitle string
	Date        time.Time
}

// Renderer produces a certificate document and returns its stable locator
// (a path or URI). Calls must be bounded by a timeout on the caller's side;
// failures surface as a recoverable condition and never roll back the
// progress mutation that triggered the render.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (locator string, err error)
}
