package metrics

import "time"

func (m *Metrics) IncrementEventCreated() {
	m.safeExecute("IncrementEventCreated", func() {
		m.EventsCreatedTotal.Inc()
	})
}

// RecordJoin counts a join attempt under outcome: joined, already_joined or full.
func (m *Metrics) RecordJoin(outcome string) {
	m.safeExecute("RecordJoin", func() {
		m.EventJoinsTotal.WithLabelValues(outcome).Inc()
	})
}

func (m *Metrics) IncrementCommentCreated() {
	m.safeExecute("IncrementCommentCreated", func() {
		m.CommentsCreatedTotal.Inc()
	})
}

func (m *Metrics) IncrementMessageSent() {
	m.safeExecute("IncrementMessageSent", func() {
		m.MessagesSentTotal.Inc()
	})
}

func (m *Metrics) AddPresenceSwept(n int64) {
	m.safeExecute("AddPresenceSwept", func() {
		m.PresenceSweptTotal.Add(float64(n))
	})
}

// ObserveProfileLookup records one profile store call.
func (m *Metrics) ObserveProfileLookup(operation string, start time.Time, err error) {
	m.safeExecute("ObserveProfileLookup", func() {
		m.ProfileLookupDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		if err != nil {
			m.ProfileLookupErrors.WithLabelValues(operation).Inc()
		}
	})
}
