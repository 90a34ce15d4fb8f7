package postgres

import (
	"testing"

	userDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestUserRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "UserRepository Suite")
}

var _ = Describe("UserRepository", func() {
	var (
		db   *gorm.DB
		repo *UserRepository
	)

	BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&userDatamodel.User{})).To(Succeed())
		repo = NewUserRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.Close()
	})

	It("should return nil for unknown users", func() {
		u, err := repo.GetByEmail("nobody@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(u).To(BeNil())

		u, err = repo.GetByID(99)
		Expect(err).NotTo(HaveOccurred())
		Expect(u).To(BeNil())
	})

	It("should create and find users", func() {
		Expect(repo.Create(&userDatamodel.User{Email: "admin@example.com", Name: "Admin", PasswordHash: "hash", IsActive: true})).To(Succeed())

		u, err := repo.GetByEmail("admin@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(u.Name).To(Equal("Admin"))

		byID, err := repo.GetByID(u.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Email).To(Equal("admin@example.com"))

		hash, id, err := repo.GetPasswordForUsername("admin@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).To(Equal("hash"))
		Expect(id).To(Equal("1"))
	})

	It("should refuse credentials of inactive users", func() {
		Expect(repo.Create(&userDatamodel.User{Email: "old@example.com", Name: "Old", PasswordHash: "hash", IsActive: true})).To(Succeed())
		Expect(db.Model(&userDatamodel.User{}).Where("email = ?", "old@example.com").Update("is_active", false).Error).To(Succeed())

		_, _, err := repo.GetPasswordForUsername("old@example.com")
		Expect(err).To(HaveOccurred())
	})
})
