package webhook

import "time"

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithProcessingTimeout bounds the time spent answering one event.
func WithProcessingTimeout(timeout time.Duration) HandlerOption {
	return func(h *Handler) {
		if timeout > 0 {
			h.processingTimeout = timeout
		}
	}
}

// WithReplier replaces the Messaging API client.
func WithReplier(r Replier) HandlerOption {
	return func(h *Handler) {
		h.client = r
	}
}

// WithLimiter throttles each LINE user, or each group or room when the
// sender is unknown.
func WithLimiter(l Limiter) HandlerOption {
	return func(h *Handler) {
		h.limiter = l
	}
}
