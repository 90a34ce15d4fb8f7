package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/detail"
	"github.com/frahmantamala/asset-management/internal/resource"
	"github.com/frahmantamala/asset-management/internal/sandbox"
	sandboxPostgres "github.com/frahmantamala/asset-management/internal/sandbox/postgres"
	"github.com/frahmantamala/asset-management/internal/transport/rest"
	"github.com/frahmantamala/asset-management/internal/user"
	userPostgres "github.com/frahmantamala/asset-management/internal/user/postgres"
)

func TestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cmd Suite")
}

var _ = Describe("parseAssignments", func() {
	It("should split on the first equals sign", func() {
		got, err := parseAssignments([]string{"name=Laptops", "note=a=b", "description="}, "set")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(map[string]string{"name": "Laptops", "note": "a=b", "description": ""}))
	})

	It("should reject pairs without a key", func() {
		_, err := parseAssignments([]string{"Laptops"}, "set")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("--set"))

		_, err = parseAssignments([]string{"=x"}, "filter")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("readPassword", func() {
	It("should read a line from input that is not a terminal", func() {
		var out bytes.Buffer
		got, err := readPassword(strings.NewReader("s3cret\r\nrest\n"), &out)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal("s3cret"))
		Expect(out.String()).To(Equal("Password: \n"))
	})

	It("should treat a regular file as plain input", func() {
		path := filepath.Join(GinkgoT().TempDir(), "password")
		Expect(os.WriteFile(path, []byte("from-file"), 0o600)).To(Succeed())
		f, err := os.Open(path)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		got, err := readPassword(f, io.Discard)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal("from-file"))
	})

	It("should require a password", func() {
		_, err := readPassword(strings.NewReader(""), io.Discard)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Fields).To(HaveKey("password"))
	})
})

var _ = Describe("queryFlags", func() {
	var def resource.Definition

	BeforeEach(func() {
		var ok bool
		def, ok = resource.Lookup(resource.KindCategory)
		Expect(ok).To(BeTrue())
	})

	It("should build a query from the flags", func() {
		qf := queryFlags{page: 2, sort: "name", desc: true, search: "  lap ", filters: []string{"name=Laptops"}}
		q, err := qf.query(def, 25)
		Expect(err).NotTo(HaveOccurred())
		Expect(q.Page).To(Equal(2))
		Expect(q.PageSize).To(Equal(25))
		Expect(q.SortColumn).To(Equal("name"))
		Expect(q.SortDirection).To(Equal(resource.SortDesc))
		Expect(q.Search).To(Equal("lap"))
		Expect(q.Filters).To(HaveKeyWithValue("name", "Laptops"))
	})

	It("should reject page sizes outside the allowed set", func() {
		qf := queryFlags{page: 1, limit: 7}
		_, err := qf.query(def, 25)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidPageSize))
	})

	It("should reject columns that cannot be sorted", func() {
		qf := queryFlags{page: 1, sort: "description"}
		_, err := qf.query(def, 25)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("assetCount"))
	})

	It("should reject reserved filter keys", func() {
		qf := queryFlags{page: 1, filters: []string{"page=3"}}
		_, err := qf.query(def, 25)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("lookupRunner", func() {
	It("should accept kinds and collection paths", func() {
		r, err := lookupRunner("category")
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Definition().Path).To(Equal("/categories"))

		r, err = lookupRunner("Categories")
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Definition().Kind).To(Equal(resource.KindCategory))
	})

	It("should have a runner for every kind", func() {
		for _, def := range resource.Definitions() {
			Expect(runners).To(HaveKey(def.Kind))
		}
	})

	It("should refuse unknown resources", func() {
		_, err := lookupRunner("spaceships")
		Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
	})
})

var _ = Describe("loadConfig", func() {
	It("should fall back to the defaults without a config file", func() {
		cfg, err := loadConfig(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.API.BaseURL).To(Equal("http://localhost:8080/api/v1"))
		Expect(cfg.API.Timeout).To(Equal(30 * time.Second))
		Expect(cfg.Listing.PageSize).To(Equal(25))
		Expect(cfg.Import.AllowedExtensions).To(ConsistOf(".xlsx", ".xls", ".csv"))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("should layer the file and the environment over the defaults", func() {
		dir := GinkgoT().TempDir()
		yml := "listing:\n  page_size: 50\napi:\n  base_url: http://file.example/api/v1\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600)).To(Succeed())
		GinkgoT().Setenv("ASSETCTL_API_BASE_URL", "http://env.example/api/v1")

		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Listing.PageSize).To(Equal(50))
		Expect(cfg.API.BaseURL).To(Equal("http://env.example/api/v1"))
		Expect(cfg.Dashboard.WidgetColumns).To(Equal(3))
	})
})

var _ = Describe("component options", func() {
	It("should pass the configured timings to the list and the dashboard", func() {
		dir := GinkgoT().TempDir()
		yml := "listing:\n  search_debounce: 150ms\ndashboard:\n  banner_ttl: 5s\n"
		Expect(os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o600)).To(Succeed())
		cfg, err := loadConfig(dir)
		Expect(err).NotTo(HaveOccurred())
		a := &app{cfg: cfg}

		def, ok := resource.Lookup(resource.KindCategory)
		Expect(ok).To(BeTrue())
		list := listOptions(a, def, resource.NewQuery(25), nil)
		Expect(list.SearchDebounce).To(Equal(150 * time.Millisecond))
		Expect(list.PageSize).To(Equal(25))
		Expect(list.Auth).To(BeNil())

		Expect(editorOptions(a).BannerTTL).To(Equal(5 * time.Second))
	})
})

var _ = Describe("exportToFile", func() {
	var path string

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "out.csv")
	})

	It("should leave the written file in place", func() {
		n, err := exportToFile(path, func(w io.Writer) (int64, error) {
			m, err := io.WriteString(w, "id,name\n")
			return int64(m), err
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(int64(8)))
		Expect(os.ReadFile(path)).To(Equal([]byte("id,name\n")))
	})

	It("should remove a partial file when the export fails", func() {
		_, err := exportToFile(path, func(w io.Writer) (int64, error) {
			_, _ = io.WriteString(w, "id,na")
			return 5, errors.New("connection reset")
		})
		Expect(err).To(MatchError("connection reset"))
		_, statErr := os.Stat(path)
		Expect(os.IsNotExist(statErr)).To(BeTrue())
	})
})

var _ = Describe("errorText", func() {
	It("should list field errors under the message", func() {
		err := internal.NewValidationFieldsError(map[string]string{"name": "Name is required", "code": "Code is required"})
		text := errorText(err)
		Expect(text).To(ContainSubstring("\n  code: Code is required\n  name: Name is required"))
	})

	It("should point at login for session errors", func() {
		Expect(errorText(internal.ErrTokenExpired)).To(ContainSubstring("assetctl login"))
	})
})

var _ = Describe("assetctl", func() {
	const (
		email    = "admin@example.com"
		password = "password"
	)

	var (
		dir     string
		srv     *httptest.Server
		records *sandbox.Service
	)

	run := func(stdin string, args ...string) (string, string, error) {
		root := newRootCmd()
		var out, errOut bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&errOut)
		root.SetIn(strings.NewReader(stdin))
		root.SetArgs(append([]string{"--config", dir, "--base-url", srv.URL + rest.APIPrefix}, args...))
		err := root.Execute()
		return out.String(), errOut.String(), err
	}

	login := func() {
		out, _, err := run(password+"\n", "login", "--email", email)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Logged in as " + email))
	}

	createCategory := func(name string) string {
		rec, err := records.Create(resource.KindCategory, map[string]any{"name": name})
		Expect(err).NotTo(HaveOccurred())
		return fmt.Sprint(rec["id"])
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		GinkgoT().Setenv("ASSETCTL_SESSION_STORE_PATH", filepath.Join(dir, "session.db"))
		GinkgoT().Setenv("ASSETCTL_LOGGING_LEVEL", "error")

		db, err := sandboxPostgres.Open(internal.DatabaseConfig{Driver: "sqlite", Source: ":memory:"})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			sqlDB, _ := db.DB()
			sqlDB.Close()
		})

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		_, err = user.NewService(userPostgres.NewUserRepository(db), logger).EnsureUser(email, "Admin", password)
		Expect(err).NotTo(HaveOccurred())
		records = sandbox.NewService(sandboxPostgres.NewRecordRepository(db), logger)

		router, err := rest.NewSandboxRouter(db, internal.Config{
			Import: internal.ImportConfig{MaxBytes: 1 << 20, AllowedExtensions: []string{".xlsx", ".xls", ".csv"}},
			Sandbox: internal.SandboxConfig{
				JWTSecret: "test-secret-0123456789-0123456789",
				TokenTTL:  time.Hour,
			},
		}, "http://localhost", logger)
		Expect(err).NotTo(HaveOccurred())
		srv = httptest.NewServer(router)
		DeferCleanup(srv.Close)
	})

	It("should print the resource catalog", func() {
		out, _, err := run("", "resources")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("security-group"))
		Expect(out).To(ContainSubstring("/categories"))
	})

	It("should require a login before listing", func() {
		_, _, err := run("", "list", "categories")
		Expect(errors.Is(err, internal.ErrAuthMissing)).To(BeTrue())
		Expect(errorText(err)).To(ContainSubstring("assetctl login"))
	})

	It("should reject a wrong password", func() {
		_, _, err := run("wrong\n", "login", "--email", email)
		Expect(internal.IsType(err, internal.ErrorTypeAuthMissing)).To(BeTrue())
	})

	It("should keep the session between invocations", func() {
		login()

		out, _, err := run("", "whoami")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Admin <" + email + ">"))
		Expect(out).To(ContainSubstring("Profile:"))

		out, _, err = run("", "logout")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Logged out of profile default"))

		_, _, err = run("", "whoami")
		Expect(errors.Is(err, internal.ErrAuthMissing)).To(BeTrue())
	})

	It("should keep profiles apart", func() {
		login()
		_, _, err := run("", "--profile", "other", "whoami")
		Expect(errors.Is(err, internal.ErrAuthMissing)).To(BeTrue())
	})

	Context("when logged in", func() {
		BeforeEach(login)

		It("should list, sort and page records", func() {
			for _, name := range []string{"Laptops", "Monitors", "Cables"} {
				createCategory(name)
			}

			out, _, err := run("", "list", "categories", "--sort", "name", "--limit", "10")
			Expect(err).NotTo(HaveOccurred())
			lines := strings.Split(strings.TrimSpace(out), "\n")
			Expect(lines[0]).To(MatchRegexp(`^ID\s+NAME\s+DESCRIPTION\s+ASSETS$`))
			Expect(lines[1]).To(ContainSubstring("Cables"))
			Expect(lines[3]).To(ContainSubstring("Monitors"))
			Expect(lines[4]).To(Equal("Showing 1-3 of 3 (page 1 of 1)"))

			out, _, err = run("", "ls", "category", "--filter", "name=laptops")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Laptops"))
			Expect(out).NotTo(ContainSubstring("Cables"))
		})

		It("should say when nothing matches", func() {
			out, _, err := run("", "list", "categories", "--search", "nothing-here")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("No records found"))
		})

		It("should create and update through the form rules", func() {
			out, errOut, err := run("", "create", "category", "--set", "name=  Printers ", "--set", "description=Office")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(MatchRegexp(`NAME:\s+Printers`))
			Expect(errOut).To(ContainSubstring("[success] Record created successfully"))

			_, _, err = run("", "create", "category", "--set", "name=Printers")
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Fields).To(HaveKeyWithValue("name", "Name already exists"))

			_, _, err = run("", "create", "category", "--set", "name=P")
			Expect(errorText(err)).To(ContainSubstring("name: Name must be at least 2 characters"))

			_, _, err = run("", "create", "category", "--set", "colour=red")
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())

			id := createCategory("Scanners")
			out, _, err = run("", "update", "category", id, "--set", "description=Flatbed")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(MatchRegexp(`DESCRIPTION:\s+Flatbed`))
			Expect(out).To(MatchRegexp(`NAME:\s+Scanners`))
		})

		It("should refuse renaming system groups", func() {
			_, err := records.Seed()
			Expect(err).NotTo(HaveOccurred())

			out, _, err := run("", "list", "security-groups", "--filter", "isSystemGroup=true", "--sort", "name")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Administrators"))
			id := strings.Fields(strings.Split(out, "\n")[1])[0]

			_, _, err = run("", "update", "security-group", id, "--set", "name=Admins")
			Expect(errors.Is(err, internal.ErrSystemOwned)).To(BeTrue())
		})

		It("should view a record and step through the list", func() {
			first := createCategory("Alpha")
			createCategory("Bravo")
			createCategory("Charlie")

			out, _, err := run("", "view", "category", first, "--sort", "name")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(MatchRegexp(`NAME:\s+Alpha`))
			Expect(out).To(ContainSubstring("(--next available)"))

			out, _, err = run("", "view", "category", first, "--sort", "name", "--next", "2")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(MatchRegexp(`NAME:\s+Charlie`))
			Expect(out).To(ContainSubstring("(--prev available)"))

			_, _, err = run("", "view", "category", first, "--sort", "name", "--prev", "1")
			Expect(errors.Is(err, detail.ErrNoPrevious)).To(BeTrue())
		})

		It("should confirm before deleting", func() {
			id := createCategory("Desks")

			out, _, err := run("n\n", "delete", "category", id)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("[y/N]"))
			Expect(out).To(ContainSubstring("Cancelled"))

			_, errOut, err := run("y\n", "delete", "category", id)
			Expect(err).NotTo(HaveOccurred())
			Expect(errOut).To(ContainSubstring("[success] Record deleted successfully"))

			out, _, err = run("", "list", "categories")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("No records found"))
		})

		It("should refuse deleting records in use", func() {
			catID := createCategory("Laptops")
			_, err := records.Create(resource.KindAsset, map[string]any{
				"assetTag": "LT-1", "name": "ThinkPad", "categoryId": catID, "status": "available",
			})
			Expect(err).NotTo(HaveOccurred())

			_, _, err = run("", "delete", "category", catID, "--yes")
			Expect(errors.Is(err, internal.ErrRecordInUse)).To(BeTrue())
		})

		It("should bulk delete records of the page", func() {
			a := createCategory("Chairs")
			b := createCategory("Tables")
			createCategory("Lamps")

			_, errOut, err := run("", "bulk-delete", "category", a, b, "--yes")
			Expect(err).NotTo(HaveOccurred())
			Expect(errOut).To(ContainSubstring("2 record(s) deleted successfully"))

			_, _, err = run("", "bulk-delete", "category", "999", "--yes")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("999"))

			_, _, err = run("", "bulk-delete", "category", "--yes", "--all")
			Expect(err).NotTo(HaveOccurred())
			out, _, err := run("", "list", "category")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("No records found"))
		})

		It("should import a spreadsheet and export the result", func() {
			createCategory("Laptops")
			file := filepath.Join(dir, "categories.csv")
			Expect(os.WriteFile(file, []byte("Name,Description\nMonitors,Screens\nLaptops,Duplicate\n"), 0o600)).To(Succeed())

			out, errOut, err := run("", "import", "category", file)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Imported 1 of 2 rows (1 failed)"))
			Expect(out).To(ContainSubstring("Row 3: Name already exists"))
			Expect(errOut).To(ContainSubstring("[warning] Import completed: 1 imported, 1 failed, 2 total rows"))

			out, _, err = run("", "export", "category", "--filter", "name=Monitors")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(HavePrefix("id,name,description,assetCount"))
			Expect(out).To(ContainSubstring(",Monitors,Screens,0"))
			Expect(out).NotTo(ContainSubstring("Laptops"))

			target := filepath.Join(dir, "out.csv")
			out, _, err = run("", "export", "category", "-o", target)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Wrote"))
			written, err := os.ReadFile(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(written)).To(ContainSubstring("Laptops"))
		})

		It("should refuse files the server cannot read", func() {
			file := filepath.Join(dir, "notes.txt")
			Expect(os.WriteFile(file, []byte("hello"), 0o600)).To(Succeed())

			_, _, err := run("", "import", "category", file)
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())
		})

		It("should arrange and persist the dashboard", func() {
			out, _, err := run("", "dashboard", "show")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("WIDGETS (3 columns)"))
			Expect(out).To(MatchRegexp(`-\s+assets-by-status\s+Assets by status\s+available`))

			_, errOut, err := run("", "dashboard", "select", "total-assets", "assets-by-status")
			Expect(err).NotTo(HaveOccurred())
			Expect(errOut).To(ContainSubstring("[success] Dashboard configuration saved successfully"))

			_, _, err = run("", "dashboard", "resize", "assets-by-status", "3")
			Expect(err).NotTo(HaveOccurred())
			_, _, err = run("", "dashboard", "columns", "charts", "4")
			Expect(err).NotTo(HaveOccurred())

			out, _, err = run("", "dashboard", "show")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(MatchRegexp(`1\.\s+total-assets`))
			Expect(out).To(MatchRegexp(`1\.\s+assets-by-status\s+Assets by status\s+size 3`))
			Expect(out).To(ContainSubstring("CHARTS (4 columns)"))

			_, _, err = run("", "dashboard", "resize", "assets-by-status", "9")
			Expect(internal.IsType(err, internal.ErrorTypeValidation)).To(BeTrue())

			_, _, err = run("", "dashboard", "select", "no-such-item")
			Expect(err).To(HaveOccurred())
		})

		It("should report the session store migrations", func() {
			out, _, err := run("", "migrate", "--status")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(MatchRegexp(`VERSION\s+STATE`))
			Expect(out).To(MatchRegexp(`1\s+applied`))
		})
	})
})

var _ = Describe("sandbox seed", func() {
	It("should create the login user and sample data once", func() {
		dir := GinkgoT().TempDir()
		GinkgoT().Setenv("ASSETCTL_SANDBOX_DATABASE_SOURCE", filepath.Join(dir, "sandbox.db"))
		GinkgoT().Setenv("ASSETCTL_LOGGING_LEVEL", "error")

		seed := func(args ...string) string {
			root := newRootCmd()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(io.Discard)
			root.SetArgs(append([]string{"--config", dir, "sandbox", "seed"}, args...))
			Expect(root.Execute()).To(Succeed())
			return out.String()
		}

		out := seed()
		Expect(out).To(ContainSubstring("Seeded user: admin@example.com"))
		Expect(out).To(MatchRegexp(`Seeded \d+ record\(s\)`))

		out = seed()
		Expect(out).To(ContainSubstring("User already exists: admin@example.com"))
		Expect(out).To(ContainSubstring("Records already present, nothing seeded"))

		out = seed("--clear")
		Expect(out).To(MatchRegexp(`Cleared \d+ record\(s\)`))
		Expect(out).To(MatchRegexp(`Seeded \d+ record\(s\)`))
	})
})
