package dashboard_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/core/events"
	"github.com/frahmantamala/asset-management/internal/dashboard"
)

func TestDashboard(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dashboard Suite")
}

// MockStore keeps documents as raw JSON so every save goes through the wire shape.
type MockStore struct {
	mu         sync.Mutex
	docs       map[string][]byte
	shouldFail bool
	failError  error
	puts       int
}

func NewMockStore() *MockStore {
	return &MockStore{docs: map[string][]byte{}}
}

func (m *MockStore) SetShouldFail(fail bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shouldFail = fail
	m.failError = err
}

func (m *MockStore) GetJSON(ctx context.Context, path string, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shouldFail {
		return m.failError
	}
	doc, ok := m.docs[path]
	if !ok {
		return internal.NewHTTPError(http.StatusNotFound, "Dashboard configuration not found")
	}
	return json.Unmarshal(doc, out)
}

func (m *MockStore) PutJSON(ctx context.Context, path string, in, out any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.shouldFail {
		return m.failError
	}
	doc, err := json.Marshal(in)
	if err != nil {
		return err
	}
	m.docs[path] = doc
	if out != nil {
		return json.Unmarshal(doc, out)
	}
	return nil
}

func ids(items []dashboard.Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

var _ = Describe("Editor", func() {
	var (
		ctx    context.Context
		store  *MockStore
		editor *dashboard.Editor
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = NewMockStore()
		editor = dashboard.NewEditor(store, dashboard.Options{})
	})

	AfterEach(func() {
		editor.Close()
	})

	It("should start with every catalog item available", func() {
		Expect(editor.Selected(dashboard.KindWidget)).To(BeEmpty())
		Expect(editor.Available(dashboard.KindWidget)).To(HaveLen(6))
		Expect(editor.Available(dashboard.KindChart)).To(HaveLen(6))
		Expect(editor.Columns(dashboard.KindWidget)).To(Equal(3))
		Expect(editor.Columns(dashboard.KindChart)).To(Equal(2))
	})

	Describe("moving items", func() {
		It("should keep the lists disjoint", func() {
			Expect(editor.MoveToSelected("low-stock", dashboard.KindWidget)).To(Succeed())
			Expect(ids(editor.Selected(dashboard.KindWidget))).To(Equal([]string{"low-stock"}))
			Expect(ids(editor.Available(dashboard.KindWidget))).NotTo(ContainElement("low-stock"))

			Expect(editor.MoveToAvailable("low-stock", dashboard.KindWidget)).To(Succeed())
			Expect(editor.Selected(dashboard.KindWidget)).To(BeEmpty())
			Expect(ids(editor.Available(dashboard.KindWidget))).To(ContainElement("low-stock"))
		})

		It("should keep insertion order", func() {
			Expect(editor.MoveToSelected("recent-activity", dashboard.KindWidget)).To(Succeed())
			Expect(editor.MoveToSelected("total-assets", dashboard.KindWidget)).To(Succeed())
			Expect(editor.MoveToSelected("low-stock", dashboard.KindWidget)).To(Succeed())

			Expect(ids(editor.Selected(dashboard.KindWidget))).To(Equal([]string{"recent-activity", "total-assets", "low-stock"}))
		})

		It("should refuse items of the other kind", func() {
			Expect(editor.MoveToSelected("alerts", dashboard.KindWidget)).NotTo(Succeed())
		})

		It("should refuse items already selected", func() {
			Expect(editor.MoveToSelected("alerts", dashboard.KindChart)).To(Succeed())
			Expect(editor.MoveToSelected("alerts", dashboard.KindChart)).NotTo(Succeed())
		})

		It("should refuse moving back an item that is not selected", func() {
			Expect(editor.MoveToAvailable("alerts", dashboard.KindChart)).NotTo(Succeed())
		})
	})

	Describe("chart sizes", func() {
		It("should reset the size after a removal", func() {
			Expect(editor.MoveToSelected("alerts", dashboard.KindChart)).To(Succeed())
			Expect(editor.Size("alerts")).To(Equal(1))

			Expect(editor.SetSize("alerts", 3)).To(Succeed())
			Expect(editor.Size("alerts")).To(Equal(3))

			Expect(editor.MoveToAvailable("alerts", dashboard.KindChart)).To(Succeed())
			Expect(editor.Size("alerts")).To(Equal(0))

			Expect(editor.MoveToSelected("alerts", dashboard.KindChart)).To(Succeed())
			Expect(editor.Size("alerts")).To(Equal(1))
		})

		It("should reject sizes outside 1..3", func() {
			Expect(editor.MoveToSelected("alerts", dashboard.KindChart)).To(Succeed())

			err := editor.SetSize("alerts", 4)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("size must not exceed 3"))
			Expect(editor.SetSize("alerts", 0)).NotTo(Succeed())
			Expect(editor.Size("alerts")).To(Equal(1))
		})

		It("should reject sizing a chart that is not selected", func() {
			Expect(editor.SetSize("alerts", 2)).NotTo(Succeed())
		})

		It("should reject sizing a widget", func() {
			Expect(editor.MoveToSelected("low-stock", dashboard.KindWidget)).To(Succeed())
			Expect(editor.SetSize("low-stock", 2)).NotTo(Succeed())
		})
	})

	Describe("columns", func() {
		It("should store columns per kind", func() {
			Expect(editor.SetColumns(dashboard.KindWidget, 4)).To(Succeed())
			Expect(editor.SetColumns(dashboard.KindChart, 1)).To(Succeed())

			Expect(editor.Columns(dashboard.KindWidget)).To(Equal(4))
			Expect(editor.Columns(dashboard.KindChart)).To(Equal(1))
		})

		It("should reject counts outside 1..4", func() {
			Expect(editor.SetColumns(dashboard.KindWidget, 5)).NotTo(Succeed())
			Expect(editor.SetColumns(dashboard.KindWidget, 0)).NotTo(Succeed())
			Expect(editor.Columns(dashboard.KindWidget)).To(Equal(3))
		})

		It("should reject unknown kinds", func() {
			Expect(editor.SetColumns(dashboard.Kind("table"), 2)).NotTo(Succeed())
		})
	})

	Describe("Save and Load", func() {
		BeforeEach(func() {
			Expect(editor.MoveToSelected("total-assets", dashboard.KindWidget)).To(Succeed())
			Expect(editor.MoveToSelected("low-stock", dashboard.KindWidget)).To(Succeed())
			Expect(editor.MoveToSelected("inventory-levels", dashboard.KindChart)).To(Succeed())
			Expect(editor.MoveToSelected("alerts", dashboard.KindChart)).To(Succeed())
			Expect(editor.SetSize("alerts", 2)).To(Succeed())
			Expect(editor.SetColumns(dashboard.KindChart, 3)).To(Succeed())
		})

		It("should serialise order by index and sizes for charts only", func() {
			cfg := editor.Config()

			Expect(cfg.Widgets.SelectedItems).To(Equal([]dashboard.ItemRef{{ID: "total-assets", Order: 0}, {ID: "low-stock", Order: 1}}))
			Expect(cfg.Widgets.Sizes).To(BeNil())
			Expect(cfg.Charts.Sizes).To(Equal(map[string]int{"inventory-levels": 1, "alerts": 2}))
			Expect(cfg.Charts.Columns).To(Equal(3))
		})

		It("should reproduce the layout after a round trip", func() {
			Expect(editor.Save(ctx)).To(Succeed())
			before := editor.Config()

			reloaded := dashboard.NewEditor(store, dashboard.Options{})
			defer reloaded.Close()
			Expect(reloaded.Load(ctx)).To(Succeed())

			Expect(ids(reloaded.Selected(dashboard.KindWidget))).To(Equal([]string{"total-assets", "low-stock"}))
			Expect(ids(reloaded.Selected(dashboard.KindChart))).To(Equal([]string{"inventory-levels", "alerts"}))
			Expect(reloaded.Size("alerts")).To(Equal(2))
			Expect(reloaded.Config()).To(Equal(before))
		})

		It("should fall back to defaults when nothing was saved", func() {
			Expect(editor.Load(ctx)).To(Succeed())
			Expect(editor.Selected(dashboard.KindChart)).To(BeEmpty())
			Expect(editor.Columns(dashboard.KindChart)).To(Equal(2))
		})

		It("should show a success banner and publish the save", func() {
			bus := events.NewEventBus(nil)
			var saved []events.Event
			bus.Subscribe(events.EventTypeDashboardSaved, func(ctx context.Context, e events.Event) error {
				saved = append(saved, e)
				return nil
			})
			withBus := dashboard.NewEditor(store, dashboard.Options{Bus: bus})
			defer withBus.Close()
			Expect(withBus.MoveToSelected("alerts", dashboard.KindChart)).To(Succeed())

			Expect(withBus.Save(ctx)).To(Succeed())
			Expect(withBus.Banner()).To(Equal(&dashboard.Banner{Level: events.AlertSuccess, Message: "Dashboard configuration saved successfully"}))
			Expect(saved).To(HaveLen(1))
			Expect(saved[0].Payload()).To(HaveKeyWithValue("charts", 1))
		})

		It("should show an error banner and keep the state on failure", func() {
			store.SetShouldFail(true, internal.NewHTTPError(http.StatusInternalServerError, ""))
			before := editor.Config()

			Expect(editor.Save(ctx)).NotTo(Succeed())
			Expect(editor.Banner().Level).To(Equal(events.AlertError))
			Expect(editor.Banner().Message).To(Equal("Failed to save dashboard configuration"))
			Expect(editor.Config()).To(Equal(before))
		})

		It("should surface load failures", func() {
			store.SetShouldFail(true, internal.NewNetworkError("Unable to reach the server", nil))
			Expect(editor.Load(ctx)).NotTo(Succeed())
			Expect(editor.Banner().Message).To(Equal("Unable to reach the server"))
		})
	})

	Describe("Load", func() {
		It("should drop unknown items and make new catalog items available", func() {
			raw := `{
				"widgets": {"selectedItems": [{"id": "low-stock", "order": 1}, {"id": "retired-widget", "order": 0}, {"id": "total-assets", "order": 2}], "columns": 9},
				"charts": {"selectedItems": [{"id": "alerts", "order": 0}], "sizes": {"alerts": 7}, "columns": 1}
			}`
			store.docs[dashboard.ConfigPath] = []byte(raw)

			Expect(editor.Load(ctx)).To(Succeed())
			Expect(ids(editor.Selected(dashboard.KindWidget))).To(Equal([]string{"low-stock", "total-assets"}))
			Expect(editor.Available(dashboard.KindWidget)).To(HaveLen(4))
			Expect(editor.Columns(dashboard.KindWidget)).To(Equal(3))
			Expect(editor.Size("alerts")).To(Equal(1))
			Expect(editor.Columns(dashboard.KindChart)).To(Equal(1))
		})
	})

	Describe("banner", func() {
		It("should dismiss itself after the ttl", func() {
			timed := dashboard.NewEditor(store, dashboard.Options{BannerTTL: 40 * time.Millisecond})
			defer timed.Close()

			Expect(timed.Save(ctx)).To(Succeed())
			Expect(timed.Banner()).NotTo(BeNil())
			Eventually(timed.Banner).WithTimeout(time.Second).Should(BeNil())
		})

		It("should keep a newer banner when an older timer fires", func() {
			timed := dashboard.NewEditor(store, dashboard.Options{BannerTTL: 200 * time.Millisecond})
			defer timed.Close()

			Expect(timed.Save(ctx)).To(Succeed())
			time.Sleep(100 * time.Millisecond)
			store.SetShouldFail(true, internal.NewHTTPError(http.StatusBadGateway, "Bad gateway"))
			Expect(timed.Save(ctx)).NotTo(Succeed())

			Consistently(func() *dashboard.Banner { return timed.Banner() }).
				WithTimeout(150 * time.Millisecond).
				WithPolling(10 * time.Millisecond).
				ShouldNot(BeNil())
			Eventually(timed.Banner).WithTimeout(time.Second).Should(BeNil())
		})

		It("should be dismissable", func() {
			Expect(editor.Save(ctx)).To(Succeed())
			editor.DismissBanner()
			Expect(editor.Banner()).To(BeNil())
		})
	})
})
