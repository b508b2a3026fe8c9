package core

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/rankchat-server/internal/metrics"
)

// DeliveryReport summarises one broadcast by receiver name.
type DeliveryReport struct {
	Delivered []string
	Offline   []string
	Failed    []string
}

// Broadcaster pushes messages to the live sessions of their receivers.
type Broadcaster struct {
	encode Encoder
	log    *zerolog.Logger
}

// NewBroadcaster builds a broadcaster using encode to produce frames.
func NewBroadcaster(encode Encoder, logger *zerolog.Logger) *Broadcaster {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Broadcaster{encode: encode, log: logger}
}

// Deliver sends msg to every receiver with an open session. Failures are
// isolated per receiver and only surface through the report, logs and metrics.
func (b *Broadcaster) Deliver(ctx context.Context, msg Message, receivers []User, sessions SessionLookup) DeliveryReport {
	var report DeliveryReport
	if sessions == nil || len(receivers) == 0 {
		for _, u := range receivers {
			report.Offline = append(report.Offline, u.Name)
		}
		metrics.Deliveries.WithLabelValues(metrics.DeliveryOffline).Add(float64(len(report.Offline)))
		return report
	}

	frame, encodeErr := b.encode(msg)

	for _, u := range receivers {
		if ctx.Err() != nil {
			report.Failed = append(report.Failed, u.Name)
			b.fail(msg, u, ctx.Err())
			continue
		}

		s, ok := sessions.Lookup(u.Name)
		if !ok || s == nil || !s.IsOpen() {
			report.Offline = append(report.Offline, u.Name)
			metrics.Deliveries.WithLabelValues(metrics.DeliveryOffline).Inc()
			continue
		}
		if encodeErr != nil {
			report.Failed = append(report.Failed, u.Name)
			b.fail(msg, u, encodeErr)
			continue
		}
		if err := s.Send(frame); err != nil {
			report.Failed = append(report.Failed, u.Name)
			b.fail(msg, u, err)
			continue
		}
		report.Delivered = append(report.Delivered, u.Name)
		metrics.Deliveries.WithLabelValues(metrics.DeliveryDelivered).Inc()
	}

	return report
}

func (b *Broadcaster) fail(msg Message, u User, err error) {
	metrics.Deliveries.WithLabelValues(metrics.DeliveryFailed).Inc()
	b.log.Warn().
		Err(err).
		Int64("message_id", msg.ID).
		Str("room", msg.Room).
		Str("receiver", u.Name).
		Msg("delivery failed")
}
