package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/frahmantamala/asset-management/internal"
	"github.com/frahmantamala/asset-management/internal/session"
	"github.com/frahmantamala/asset-management/internal/session/store"
	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSession(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Suite")
}

func signedToken(exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Session", func() {
	var (
		ctx  context.Context
		repo *store.SessionStore
		sess *session.Session
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		repo, err = store.Open(ctx, ":memory:", nil)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(repo.Close)

		sess = session.New(repo, "default")
	})

	It("should report missing auth before anyone logs in", func() {
		_, err := sess.Token(ctx)

		Expect(err).To(MatchError(internal.ErrAuthMissing))
		Expect(internal.IsType(err, internal.ErrorTypeAuthMissing)).To(BeTrue())
	})

	It("should hand out the token after login and persist it", func() {
		token := signedToken(time.Now().Add(time.Hour))
		Expect(sess.Begin(ctx, "http://api", "admin@example.com", token, "refresh")).To(Succeed())

		got, err := sess.Token(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(token))

		reopened := session.New(repo, "default")
		got, err = reopened.Token(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(token))

		current, err := reopened.Current(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(current.Email).To(Equal("admin@example.com"))
		Expect(current.ExpiresAt).NotTo(BeNil())
	})

	It("should keep profiles apart", func() {
		Expect(sess.Begin(ctx, "http://api", "a@example.com", "opaque-token", "")).To(Succeed())

		other := session.New(repo, "staging")
		_, err := other.Token(ctx)
		Expect(err).To(MatchError(internal.ErrAuthMissing))
	})

	It("should treat an expired token as a missing session", func() {
		Expect(sess.Begin(ctx, "http://api", "", signedToken(time.Now().Add(-time.Hour)), "")).To(Succeed())

		_, err := sess.Token(ctx)
		Expect(err).To(MatchError(internal.ErrTokenExpired))
		Expect(internal.IsType(err, internal.ErrorTypeAuthMissing)).To(BeTrue())
	})

	It("should forget the token on logout", func() {
		Expect(sess.Begin(ctx, "http://api", "", "opaque-token", "")).To(Succeed())
		Expect(sess.End(ctx)).To(Succeed())

		_, err := sess.Token(ctx)
		Expect(err).To(MatchError(internal.ErrAuthMissing))

		stored, err := repo.Load(ctx, "default")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(BeNil())
	})

	It("should overwrite an earlier login for the same profile", func() {
		Expect(sess.Begin(ctx, "http://api", "", "first", "")).To(Succeed())
		Expect(sess.Begin(ctx, "http://api", "", "second", "")).To(Succeed())

		all, err := repo.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(1))
		Expect(all[0].AccessToken).To(Equal("second"))
	})
})

var _ = Describe("TokenExpiry", func() {
	It("should read the exp claim", func() {
		exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)

		got := session.TokenExpiry(signedToken(exp))
		Expect(got).NotTo(BeNil())
		Expect(got.Unix()).To(Equal(exp.Unix()))
	})

	It("should not guess an expiry for opaque tokens", func() {
		Expect(session.TokenExpiry("not-a-jwt")).To(BeNil())
	})
})

var _ = Describe("Static", func() {
	It("should reject blank tokens", func() {
		_, err := session.Static("  ").Token(context.Background())
		Expect(err).To(MatchError(internal.ErrAuthMissing))
	})

	It("should pass through a usable token", func() {
		got, err := session.Static("abc").Token(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal("abc"))
	})
})
