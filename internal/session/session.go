package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/asset-management/internal"
	sessionDatamodel "github.com/frahmantamala/asset-management/internal/core/datamodel/session"
	"github.com/golang-jwt/jwt/v5"
)

// Repository persists sessions per profile.
type Repository interface {
	Load(ctx context.Context, profile string) (*sessionDatamodel.Session, error)
	Save(ctx context.Context, sess *sessionDatamodel.Session) error
	Delete(ctx context.Context, profile string) error
}

// Session is the explicit login state handed to the API client. It is created
// once at the application root.
type Session struct {
	repo    Repository
	profile string
	now     func() time.Time

	mu      sync.Mutex
	current *sessionDatamodel.Session
	loaded  bool
}

func New(repo Repository, profile string) *Session {
	if profile == "" {
		profile = "default"
	}
	return &Session{repo: repo, profile: profile, now: time.Now}
}

func (s *Session) Profile() string {
	return s.profile
}

// Token returns the access token, internal.ErrAuthMissing when nobody is
// logged in, or internal.ErrTokenExpired once the token has run out.
func (s *Session) Token(ctx context.Context) (string, error) {
	sess, err := s.Current(ctx)
	if err != nil {
		return "", err
	}
	if sess == nil || sess.AccessToken == "" {
		return "", internal.ErrAuthMissing
	}
	if sess.Expired(s.now()) {
		return "", internal.ErrTokenExpired
	}
	return sess.AccessToken, nil
}

// Current returns the stored session or nil.
func (s *Session) Current(ctx context.Context) (*sessionDatamodel.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.current, nil
	}
	sess, err := s.repo.Load(ctx, s.profile)
	if err != nil {
		return nil, internal.NewInternalError("failed to load session", err)
	}
	s.current = sess
	s.loaded = true
	return sess, nil
}

// Begin stores a fresh login for the profile.
func (s *Session) Begin(ctx context.Context, baseURL, email, accessToken, refreshToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return internal.ErrAuthMissing
	}
	sess := &sessionDatamodel.Session{
		Profile:      s.profile,
		BaseURL:      baseURL,
		Email:        email,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    TokenExpiry(accessToken),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, sess); err != nil {
		return internal.NewInternalError("failed to save session", err)
	}
	s.current = sess
	s.loaded = true
	return nil
}

// End forgets the login for the profile.
func (s *Session) End(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Delete(ctx, s.profile); err != nil {
		return internal.NewInternalError("failed to delete session", err)
	}
	s.current = nil
	s.loaded = true
	return nil
}

// TokenExpiry reads the exp claim of a JWT without verifying it. The backend
// verifies; the client only needs to know when to stop sending it. Opaque
// tokens have no known expiry.
func TokenExpiry(token string) *time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}

// Static is a TokenSource for a token supplied directly, e.g. through the
// environment.
type Static string

func (t Static) Token(context.Context) (string, error) {
	if strings.TrimSpace(string(t)) == "" {
		return "", internal.ErrAuthMissing
	}
	if exp := TokenExpiry(string(t)); exp != nil && !time.Now().Before(*exp) {
		return "", internal.ErrTokenExpired
	}
	return string(t), nil
}
