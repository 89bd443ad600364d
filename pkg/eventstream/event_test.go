package eventstream_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fiekai/fiekchat/pkg/eventstream"
)

var _ = Describe("Event", func() {
	It("marshals TurnCompletedEvent with expected top-level keys", func() {
		now := time.Unix(1735689600, 0).UTC()
		event := eventstream.NewTurnCompletedEvent(
			eventstream.EventSource{Client: "fiekchat", Version: "dev", BaseURL: "http://localhost:5001"},
			eventstream.TurnMeta{
				RequestID:   "req-1",
				Streaming:   true,
				Question:    "Kur fillon semestri?",
				Reply:       "Semestri fillon në tetor.",
				Status:      eventstream.StatusOK,
				StartedAt:   now.Add(-2 * time.Second),
				CompletedAt: now,
			},
		)

		payload, err := json.Marshal(event)
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("source"))
		Expect(got).To(HaveKey("turn"))

		turn, ok := got["turn"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(turn).To(HaveKeyWithValue("request_id", "req-1"))
		Expect(turn).NotTo(HaveKey("error"))
	})

	It("stamps id, type and duration", func() {
		start := time.Now()
		event := eventstream.NewTurnCompletedEvent(eventstream.EventSource{}, eventstream.TurnMeta{
			StartedAt:   start,
			CompletedAt: start.Add(1500 * time.Millisecond),
		})

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal("fiekchat.turn.completed"))
		Expect(event.EventID).NotTo(BeEmpty())
		Expect(event.Turn.DurationMs).To(BeNumerically("==", 1500))
	})

	It("gives each event a distinct id", func() {
		a := eventstream.NewTurnCompletedEvent(eventstream.EventSource{}, eventstream.TurnMeta{})
		b := eventstream.NewTurnCompletedEvent(eventstream.EventSource{}, eventstream.TurnMeta{})
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})

	Describe("Validate", func() {
		It("accepts events built by NewTurnCompletedEvent", func() {
			event := eventstream.NewTurnCompletedEvent(eventstream.EventSource{}, eventstream.TurnMeta{RequestID: "r1"})
			Expect(eventstream.Validate(event)).To(Succeed())
		})

		It("rejects nil events", func() {
			Expect(eventstream.Validate(nil)).To(MatchError(eventstream.ErrNilTurnEvent))
		})

		It("rejects unknown schema versions", func() {
			event := eventstream.NewTurnCompletedEvent(eventstream.EventSource{}, eventstream.TurnMeta{RequestID: "r1"})
			event.SchemaVersion = 9
			err := eventstream.Validate(event)
			Expect(err).To(MatchError(eventstream.ErrInvalidTurnEvent))
			Expect(err.Error()).To(ContainSubstring("version 9"))
		})

		It("rejects events without ids", func() {
			event := eventstream.NewTurnCompletedEvent(eventstream.EventSource{}, eventstream.TurnMeta{RequestID: "r1"})
			event.EventID = ""
			Expect(eventstream.Validate(event)).To(MatchError(eventstream.ErrInvalidTurnEvent))

			event = eventstream.NewTurnCompletedEvent(eventstream.EventSource{}, eventstream.TurnMeta{})
			Expect(eventstream.Validate(event)).To(MatchError(eventstream.ErrInvalidTurnEvent))
		})
	})
})
