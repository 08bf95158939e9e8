package mqtt

import "errors"

// Connection state.
var (
	ErrNotConnected     = errors.New("mqtt: not connected")
	ErrConnectionFailed = errors.New("mqtt: connection failed")
)

// Operation failures. Broker and timeout errors are wrapped in these.
var (
	ErrPublishFailed     = errors.New("mqtt: publish failed")
	ErrSubscribeFailed   = errors.New("mqtt: subscribe failed")
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")
)

// Argument validation.
var (
	// ErrInvalidQoS is returned for QoS levels other than 0, 1 and 2.
	ErrInvalidQoS = errors.New("mqtt: invalid QoS level")

	// ErrInvalidTopic is returned for empty topics, wildcards in a publish
	// topic, and malformed wildcards in a subscription filter.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")
)
