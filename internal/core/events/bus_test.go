package events_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/frahmantamala/asset-management/internal/core/events"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestEvents(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Events Suite")
}

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(nil)
	})

	It("should deliver synchronously in subscription order", func() {
		var order []string
		bus.Subscribe(events.EventTypeAlert, func(_ context.Context, e events.Event) error {
			order = append(order, "first")
			return nil
		})
		bus.Subscribe(events.EventTypeAlert, func(_ context.Context, e events.Event) error {
			order = append(order, "second")
			return nil
		})

		Expect(bus.PublishSync(context.Background(), events.NewAlertEvent(events.AlertInfo, "hi"))).To(Succeed())
		Expect(order).To(Equal([]string{"first", "second"}))
	})

	It("should include wildcard handlers", func() {
		var seen []string
		bus.Subscribe(events.AllEvents, func(_ context.Context, e events.Event) error {
			seen = append(seen, e.EventType())
			return nil
		})

		Expect(bus.PublishSync(context.Background(), events.NewRecordDeletedEvent("category", "1"))).To(Succeed())
		Expect(bus.PublishSync(context.Background(), events.NewDashboardSavedEvent(2, 1))).To(Succeed())
		Expect(seen).To(Equal([]string{events.EventTypeRecordDeleted, events.EventTypeDashboardSaved}))
	})

	It("should stop at the first failing handler", func() {
		calls := 0
		bus.Subscribe(events.EventTypeAlert, func(context.Context, events.Event) error {
			calls++
			return errors.New("boom")
		})
		bus.Subscribe(events.EventTypeAlert, func(context.Context, events.Event) error {
			calls++
			return nil
		})

		err := bus.PublishSync(context.Background(), events.NewAlertEvent(events.AlertError, "x"))
		Expect(err).To(MatchError(ContainSubstring("boom")))
		Expect(calls).To(Equal(1))
	})

	It("should deliver asynchronously with Publish", func() {
		var mu sync.Mutex
		var got *events.RecordsImportedEvent
		bus.Subscribe(events.EventTypeRecordsImported, func(_ context.Context, e events.Event) error {
			mu.Lock()
			defer mu.Unlock()
			got = e.(*events.RecordsImportedEvent)
			return nil
		})

		Expect(bus.Publish(context.Background(), events.NewRecordsImportedEvent("asset", 7, 3, 10))).To(Succeed())
		Eventually(func() int {
			mu.Lock()
			defer mu.Unlock()
			if got == nil {
				return -1
			}
			return got.ImportedCount
		}).Should(Equal(7))
	})

	It("should ignore events nobody listens to", func() {
		Expect(bus.Publish(context.Background(), events.NewAlertEvent(events.AlertInfo, "x"))).To(Succeed())
		Expect(bus.PublishSync(context.Background(), events.NewAlertEvent(events.AlertInfo, "x"))).To(Succeed())
	})
})
