package notify

import "fmt"

// SendError reports a per-subscriber delivery failure.
type SendError struct {
	Subscriber Subscriber
	Platform   string
	Cause      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("notify: send to %s (%s): %v", e.Subscriber, e.Platform, e.Cause)
}

func (e *SendError) Unwrap() error { return e.Cause }
