package notify

import "errors"

// ErrNoDelivery means a user had relevant articles but none of their
// connections accepted the message.
var ErrNoDelivery = errors.New("no live connection accepted the notification")
