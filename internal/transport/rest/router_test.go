package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/apiclient"
	"github.com/frahmantamala/asset-management/internal/dashboard"
	"github.com/frahmantamala/asset-management/internal/form"
	"github.com/frahmantamala/asset-management/internal/listing"
	"github.com/frahmantamala/asset-management/internal/resource"
	sandboxPostgres "github.com/frahmantamala/asset-management/internal/sandbox/postgres"
	"github.com/frahmantamala/asset-management/internal/session"
	"github.com/frahmantamala/asset-management/internal/transport/middleware"
	"github.com/frahmantamala/asset-management/internal/transport/rest"
	"github.com/frahmantamala/asset-management/internal/user"
	userPostgres "github.com/frahmantamala/asset-management/internal/user/postgres"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sandbox API Suite")
}

const (
	adminEmail    = "admin@example.com"
	adminPassword = "password"
)

func definition(kind string) resource.Definition {
	def, ok := resource.Lookup(kind)
	Expect(ok).To(BeTrue())
	return def
}

var _ = Describe("Sandbox API", func() {
	var (
		ctx    context.Context
		srv    *httptest.Server
		logger *slog.Logger
		anon   *apiclient.Client
		client *apiclient.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))

		db, err := sandboxPostgres.Open(internal.DatabaseConfig{Driver: "sqlite", Source: ":memory:"})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			sqlDB, _ := db.DB()
			sqlDB.Close()
		})

		users := user.NewService(userPostgres.NewUserRepository(db), logger)
		created, err := users.EnsureUser(adminEmail, "Admin", adminPassword)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(BeTrue())

		cfg := internal.Config{
			Import: internal.ImportConfig{MaxBytes: 1 << 20, AllowedExtensions: []string{".xlsx", ".xls", ".csv"}},
			Sandbox: internal.SandboxConfig{
				JWTSecret: "test-secret-0123456789-0123456789",
				TokenTTL:  time.Hour,
			},
		}
		router, err := rest.NewSandboxRouter(db, cfg, "http://sandbox.test", logger)
		Expect(err).NotTo(HaveOccurred())
		srv = httptest.NewServer(router)
		DeferCleanup(srv.Close)

		apiCfg := apiclient.Config{BaseURL: srv.URL + rest.APIPrefix, Timeout: 5 * time.Second}
		anon = apiclient.NewClient(apiCfg, nil, logger)
		tokens, err := anon.Login(ctx, apiclient.Credentials{Email: adminEmail, Password: adminPassword})
		Expect(err).NotTo(HaveOccurred())
		client = apiclient.NewClient(apiCfg, session.Static(tokens.AccessToken), logger)
	})

	Describe("auth", func() {
		It("should reject wrong passwords", func() {
			_, err := anon.Login(ctx, apiclient.Credentials{Email: adminEmail, Password: "nope"})

			Expect(internal.IsType(err, internal.ErrorTypeAuthMissing)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("Invalid email or password"))
		})

		It("should identify the signed in user", func() {
			me, err := client.Me(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(me.Email).To(Equal(adminEmail))
			Expect(me.ID).To(Equal(resource.ID("1")))
		})

		It("should refuse forged tokens", func() {
			forged := apiclient.NewClient(apiclient.Config{BaseURL: srv.URL + rest.APIPrefix}, session.Static("not-a-jwt"), logger)

			_, err := forged.Me(ctx)

			Expect(internal.IsType(err, internal.ErrorTypeAuthMissing)).To(BeTrue())
		})

		It("should not reach the server without a session", func() {
			categories := apiclient.NewResource[resource.Category](anon, definition(resource.KindCategory).Path)
			ctrl := listing.NewController[resource.Category](categories, listing.Options{Kind: resource.KindCategory, Auth: anon})

			err := ctrl.Fetch(ctx)

			Expect(err).To(MatchError(internal.ErrAuthMissing))
			Expect(ctrl.State().LoginRequired).To(BeTrue())
		})
	})

	Describe("list controller", func() {
		var (
			categories *apiclient.Resource[resource.Category]
			ctrl       *listing.Controller[resource.Category]
		)

		BeforeEach(func() {
			categories = apiclient.NewResource[resource.Category](client, definition(resource.KindCategory).Path)
			for _, name := range []string{"Laptops", "Monitors", "Printers", "Phones", "Tablets", "Cables",
				"Desks", "Chairs", "Routers", "Switches", "Servers", "Storage"} {
				_, err := categories.Create(ctx, map[string]any{"name": name})
				Expect(err).NotTo(HaveOccurred())
			}
			ctrl = listing.NewController[resource.Category](categories, listing.Options{
				Kind:     resource.KindCategory,
				PageSize: 10,
				Auth:     client,
				Logger:   logger,
			})
			DeferCleanup(ctrl.Close)
		})

		It("should page through the server", func() {
			Expect(ctrl.Fetch(ctx)).To(Succeed())
			state := ctrl.State()
			Expect(state.Rows).To(HaveLen(10))
			Expect(state.Pagination).To(Equal(resource.Pagination{TotalRecords: 12, TotalPages: 2, StartRecord: 1, EndRecord: 10}))

			Expect(ctrl.SetPage(ctx, 2)).To(Succeed())
			state = ctrl.State()
			Expect(state.Rows).To(HaveLen(2))
			Expect(state.Pagination.StartRecord).To(Equal(11))
		})

		It("should sort by name and flip on the second click", func() {
			Expect(ctrl.SetSort(ctx, "name")).To(Succeed())
			Expect(ctrl.State().Rows[0].Name).To(Equal("Cables"))

			Expect(ctrl.SetSort(ctx, "name")).To(Succeed())
			Expect(ctrl.State().Rows[0].Name).To(Equal("Tablets"))
		})

		It("should bulk delete the selection", func() {
			Expect(ctrl.Fetch(ctx)).To(Succeed())
			rows := ctrl.State().Rows
			ctrl.ToggleRowSelection(rows[0].ID)
			ctrl.ToggleRowSelection(rows[1].ID)

			Expect(ctrl.BulkDelete(ctx)).To(Succeed())

			state := ctrl.State()
			Expect(state.Pagination.TotalRecords).To(Equal(10))
			Expect(state.Selected).To(BeEmpty())
			Expect(state.Message).To(Equal("2 record(s) deleted successfully"))
		})

		It("should refuse deleting a category in use", func() {
			assets := apiclient.NewResource[resource.Asset](client, definition(resource.KindAsset).Path)
			Expect(ctrl.Fetch(ctx)).To(Succeed())
			laptops := ctrl.State().Rows[0]
			_, err := assets.Create(ctx, map[string]any{
				"assetTag": "AST-1", "name": "MacBook", "status": "available", "categoryId": laptops.ID.String(),
			})
			Expect(err).NotTo(HaveOccurred())

			err = categories.Delete(ctx, laptops.ID)
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeBusinessRule))
			Expect(appErr.Code).To(Equal(internal.ErrCodeRecordInUse))

			Expect(ctrl.Refresh(ctx)).To(Succeed())
			Expect(ctrl.Delete(ctx, laptops.ID)).To(MatchError(internal.ErrRecordInUse))
		})

		It("should import a CSV file and refresh", func() {
			csv := "name,description\nKeyboards,Input\nlaptops,duplicate\n"

			result, err := ctrl.Import(ctx, "categories.csv", int64(len(csv)), strings.NewReader(csv))

			Expect(err).NotTo(HaveOccurred())
			Expect(result.ImportedCount).To(Equal(1))
			Expect(result.FailedCount).To(Equal(1))
			Expect(result.Errors).To(ConsistOf("Row 3: Name already exists"))
			Expect(ctrl.State().Pagination.TotalRecords).To(Equal(13))
			Expect(ctrl.State().Message).To(Equal("Import completed: 1 imported, 1 failed, 2 total rows"))
		})

		It("should reject spreadsheets the sandbox cannot read", func() {
			_, err := categories.Import(ctx, "categories.xlsx", strings.NewReader("binary"))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusUnsupportedMediaType))
		})

		It("should export what the query matches", func() {
			Expect(ctrl.SetFilter(ctx, "name", "Desks")).To(Succeed())
			var buf bytes.Buffer

			n, err := ctrl.Export(ctx, "csv", &buf)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeNumerically(">", 0))
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			Expect(lines).To(HaveLen(2))
			Expect(lines[0]).To(Equal("id,name,description,assetCount"))
			Expect(lines[1]).To(HaveSuffix(",Desks,,0"))
		})
	})

	Describe("form", func() {
		var groups *apiclient.Resource[resource.SecurityGroup]

		BeforeEach(func() {
			groups = apiclient.NewResource[resource.SecurityGroup](client, definition(resource.KindSecurityGroup).Path)
		})

		It("should surface server field errors on the draft", func() {
			_, err := groups.Create(ctx, map[string]any{"name": "Auditors"})
			Expect(err).NotTo(HaveOccurred())

			f := form.New[resource.SecurityGroup](definition(resource.KindSecurityGroup), groups, form.Options{Logger: logger})
			f.OpenCreate()
			Expect(f.Set("name", "auditors")).To(Succeed())

			_, err = f.Submit(ctx)

			Expect(err).To(HaveOccurred())
			Expect(f.State().Open).To(BeTrue())
			Expect(f.State().Errors).To(HaveKeyWithValue("name", "Name already exists"))
		})

		It("should create and then update a record", func() {
			f := form.New[resource.SecurityGroup](definition(resource.KindSecurityGroup), groups, form.Options{Logger: logger})
			f.OpenCreate()
			Expect(f.Set("name", " Technicians ")).To(Succeed())

			created, err := f.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Name).To(Equal("Technicians"))
			Expect(created.IsSystemGroup).To(BeFalse())

			f.OpenEdit(created)
			Expect(f.Set("description", "Field staff")).To(Succeed())
			updated, err := f.Submit(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ID).To(Equal(created.ID))
			Expect(updated.Description).To(Equal("Field staff"))
		})
	})

	Describe("dashboard", func() {
		It("should fall back to defaults and persist a saved layout", func() {
			editor := dashboard.NewEditor(client, dashboard.Options{Logger: logger})
			DeferCleanup(editor.Close)
			Expect(editor.Load(ctx)).To(Succeed())
			Expect(editor.Selected(dashboard.KindWidget)).To(BeEmpty())

			Expect(editor.MoveToSelected("total-assets", dashboard.KindWidget)).To(Succeed())
			Expect(editor.MoveToSelected("assets-by-status", dashboard.KindChart)).To(Succeed())
			Expect(editor.SetSize("assets-by-status", 3)).To(Succeed())
			Expect(editor.Save(ctx)).To(Succeed())

			reloaded := dashboard.NewEditor(client, dashboard.Options{Logger: logger})
			DeferCleanup(reloaded.Close)
			Expect(reloaded.Load(ctx)).To(Succeed())
			selected := reloaded.Selected(dashboard.KindWidget)
			Expect(selected).To(HaveLen(1))
			Expect(selected[0].ID).To(Equal("total-assets"))
			Expect(reloaded.Size("assets-by-status")).To(Equal(3))
		})
	})

	Describe("service endpoints", func() {
		It("should answer health checks", func() {
			resp, err := http.Get(srv.URL + rest.APIPrefix + "/health")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var health rest.HealthResponse
			Expect(json.NewDecoder(resp.Body).Decode(&health)).To(Succeed())
			Expect(health.Status).To(Equal(rest.HealthHealthy))
			Expect(health.Components).To(HaveKey("database"))
		})

		It("should echo the trace id", func() {
			req, err := http.NewRequest(http.MethodGet, srv.URL+rest.APIPrefix+"/ping", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(middleware.TraceHeader, "trace-123")

			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.Header.Get(middleware.TraceHeader)).To(Equal("trace-123"))
		})

		It("should serve the OpenAPI document", func() {
			resp, err := http.Get(srv.URL + "/openapi.json")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var doc struct {
				OpenAPI string                     `json:"openapi"`
				Paths   map[string]json.RawMessage `json:"paths"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&doc)).To(Succeed())
			Expect(doc.OpenAPI).To(HavePrefix("3."))
			Expect(doc.Paths).To(HaveKey("/categories/{id}"))
			Expect(doc.Paths).To(HaveKey("/dashboard/config"))
		})

		It("should answer unknown ids with not found", func() {
			categories := apiclient.NewResource[resource.Category](client, definition(resource.KindCategory).Path)

			_, err := categories.Get(ctx, "abc")

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})
