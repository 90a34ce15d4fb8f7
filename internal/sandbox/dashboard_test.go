package sandbox_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/asset-management/internal/dashboard"
	"github.com/frahmantamala/asset-management/internal/sandbox"
	sandboxPostgres "github.com/frahmantamala/asset-management/internal/sandbox/postgres"
)

var _ = Describe("DashboardService", func() {
	var svc *sandbox.DashboardService

	validConfig := func() dashboard.Config {
		return dashboard.Config{
			Widgets: dashboard.LayoutConfig{
				AvailableItems: []dashboard.ItemRef{{ID: "low-stock", Order: 0}},
				SelectedItems:  []dashboard.ItemRef{{ID: "total-assets", Order: 0}},
				Columns:        3,
			},
			Charts: dashboard.LayoutConfig{
				SelectedItems: []dashboard.ItemRef{{ID: "assets-by-status", Order: 0}},
				Columns:       2,
				Sizes:         map[string]int{"assets-by-status": 2},
			},
		}
	}

	BeforeEach(func() {
		svc = sandbox.NewDashboardService(sandboxPostgres.NewDashboardRepository(openDB()), silentLogger())
	})

	It("should report a missing layout as not found", func() {
		_, err := svc.Get("1")

		Expect(err).To(MatchError(sandbox.ErrDashboardNotFound))
	})

	It("should store one layout per user", func() {
		saved, err := svc.Save("1", validConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(saved.UpdatedAt).NotTo(BeNil())

		cfg := validConfig()
		cfg.Widgets.Columns = 1
		_, err = svc.Save("1", cfg)
		Expect(err).NotTo(HaveOccurred())

		got, err := svc.Get("1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Widgets.Columns).To(Equal(1))
		Expect(got.Charts.Sizes).To(Equal(map[string]int{"assets-by-status": 2}))

		_, err = svc.Get("2")
		Expect(err).To(MatchError(sandbox.ErrDashboardNotFound))
	})

	It("should reject column counts out of range", func() {
		cfg := validConfig()
		cfg.Charts.Columns = 5

		_, err := svc.Save("1", cfg)

		Expect(fieldErrors(err)).To(HaveKey("charts.columns"))
	})

	It("should reject chart sizes out of range", func() {
		cfg := validConfig()
		cfg.Charts.Sizes["assets-by-status"] = dashboard.MaxSize + 1

		_, err := svc.Save("1", cfg)

		Expect(fieldErrors(err)).To(HaveKey("charts.sizes.assets-by-status"))
	})

	It("should reject items of the wrong kind", func() {
		cfg := validConfig()
		cfg.Widgets.SelectedItems = append(cfg.Widgets.SelectedItems, dashboard.ItemRef{ID: "alerts", Order: 1})

		_, err := svc.Save("1", cfg)

		Expect(fieldErrors(err)).To(HaveKey("widgets.alerts"))
	})
})
