package worker

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fiekai/fiekchat/pkg/eventstream"
)

// recordingPublisher keeps every event it is asked to publish.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*eventstream.TurnCompletedEvent
	err    error
	block  chan struct{}
	closed bool
}

func (r *recordingPublisher) PublishTurn(ctx context.Context, e *eventstream.TurnCompletedEvent) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func turnJob(id string) Job {
	return Job{Event: eventstream.NewTurnCompletedEvent(
		eventstream.EventSource{Client: "fiekchat"},
		eventstream.TurnMeta{RequestID: id, Status: eventstream.StatusOK},
	)}
}

var _ = Describe("Worker Pool", func() {
	var pub *recordingPublisher

	BeforeEach(func() {
		pub = &recordingPublisher{}
	})

	It("requires a publisher", func() {
		_, err := NewPool(&Config{})
		Expect(err).To(HaveOccurred())
	})

	It("applies defaults", func() {
		c := &Config{Publisher: pub}
		wp, err := NewPool(c)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.NumWorkers).To(Equal(defaultNumWorkers))
		Expect(c.QueueSize).To(Equal(defaultJobQueueSize))
		Expect(wp.Close()).To(Succeed())
	})

	Describe("Enqueue", func() {
		It("publishes every queued event before Close returns", func() {
			wp, err := NewPool(&Config{Publisher: pub})
			Expect(err).NotTo(HaveOccurred())

			for _, id := range []string{"a", "b", "c", "d"} {
				Expect(wp.Enqueue(turnJob(id))).To(BeTrue())
			}
			Expect(wp.Close()).To(Succeed())

			Expect(pub.count()).To(Equal(4))
			Expect(pub.closed).To(BeTrue())
		})

		It("drops jobs when the queue is full", func() {
			pub.block = make(chan struct{})
			wp, err := NewPool(&Config{Publisher: pub, NumWorkers: 1, QueueSize: 1})
			Expect(err).NotTo(HaveOccurred())

			// The worker may or may not have taken the first job yet, so fill
			// until a drop is observed.
			dropped := false
			for i := 0; i < 3 && !dropped; i++ {
				dropped = !wp.Enqueue(turnJob("x"))
			}
			Expect(dropped).To(BeTrue())

			close(pub.block)
			Expect(wp.Close()).To(Succeed())
		})

		It("drops nil events", func() {
			wp, err := NewPool(&Config{Publisher: pub})
			Expect(err).NotTo(HaveOccurred())
			Expect(wp.Enqueue(Job{})).To(BeFalse())
			Expect(wp.Close()).To(Succeed())
		})

		It("refuses jobs after Close", func() {
			wp, err := NewPool(&Config{Publisher: pub})
			Expect(err).NotTo(HaveOccurred())
			Expect(wp.Close()).To(Succeed())
			Expect(wp.Enqueue(turnJob("late"))).To(BeFalse())
			Expect(wp.Close()).To(Succeed())
		})
	})

	It("keeps running when a publish fails", func() {
		pub.err = errors.New("broker down")
		wp, err := NewPool(&Config{Publisher: pub, NumWorkers: 1})
		Expect(err).NotTo(HaveOccurred())

		Expect(wp.Enqueue(turnJob("a"))).To(BeTrue())
		Expect(wp.Enqueue(turnJob("b"))).To(BeTrue())
		Expect(wp.Close()).To(Succeed())
		Expect(pub.count()).To(Equal(0))
	})
})
