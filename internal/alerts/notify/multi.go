package notify

import (
	"context"

	alerts "airhealth-cloud/internal/alerts/domain"
)

// MultiChannel fans a fired alert out to several channels. Delivery is
// best-effort per channel; the first error is returned after all
// channels were attempted.
type MultiChannel struct {
	channels []Channel
}

// NewMultiChannel constructs a MultiChannel.
func NewMultiChannel(channels ...Channel) *MultiChannel {
	return &MultiChannel{channels: channels}
}

// Send forwards the alert to all channels.
func (m *MultiChannel) Send(ctx context.Context, alert alerts.Alert) error {
	if m == nil {
		return nil
	}
	var firstErr error
	for _, channel := range m.channels {
		if channel == nil {
			continue
		}
		if err := channel.Send(ctx, alert); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
