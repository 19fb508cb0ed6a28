package auth_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"storefront-api/internal/auth"
	"storefront-api/internal/core/datamodel/user"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Service Suite")
}

type mockUserRepository struct {
	byEmail map[string]*user.User
	byID    map[string]*user.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		byEmail: make(map[string]*user.User),
		byID:    make(map[string]*user.User),
	}
}

func (m *mockUserRepository) add(u *user.User) {
	m.byEmail[u.Email] = u
	m.byID[u.ID] = u
}

func (m *mockUserRepository) GetByEmail(email string) (*user.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) GetByID(id string) (*user.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

var _ = Describe("AuthService", func() {
	var (
		service *auth.Service
		repo    *mockUserRepository
	)

	quietLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	tokenGen := auth.NewJWTTokenGenerator("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)

	newUser := func(id, email, password, role string, active bool) *user.User {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		Expect(err).ToNot(HaveOccurred())
		return &user.User{
			ID:           id,
			Email:        email,
			Name:         "Test User",
			PasswordHash: string(hash),
			Role:         role,
			IsActive:     active,
		}
	}

	BeforeEach(func() {
		repo = newMockUserRepository()
		repo.add(newUser("user-1", "customer@storefront.test", "password", user.RoleCustomer, true))
		repo.add(newUser("user-2", "dormant@storefront.test", "password", user.RoleCustomer, false))

		service = auth.NewService(repo, tokenGen, quietLogger)
	})

	Describe("Authenticate", func() {
		Context("with valid credentials", func() {
			It("issues an access and refresh token pair", func() {
				// When
				tokens, err := service.Authenticate(auth.LoginDTO{
					Email:    "customer@storefront.test",
					Password: "password",
				})

				// Then
				Expect(err).ToNot(HaveOccurred())
				Expect(tokens.AccessToken).ToNot(BeEmpty())
				Expect(tokens.RefreshToken).ToNot(BeEmpty())

				claims, err := tokenGen.ValidateAccessToken(tokens.AccessToken)
				Expect(err).ToNot(HaveOccurred())
				Expect(claims.UserID).To(Equal("user-1"))
				Expect(claims.Role).To(Equal(user.RoleCustomer))
			})
		})

		Context("with a wrong password", func() {
			It("returns invalid credentials", func() {
				// When
				_, err := service.Authenticate(auth.LoginDTO{
					Email:    "customer@storefront.test",
					Password: "wrong",
				})

				// Then
				Expect(err).To(MatchError(auth.ErrInvalidCredentials))
			})
		})

		Context("with an unknown email", func() {
			It("returns the same invalid credentials error", func() {
				// When
				_, err := service.Authenticate(auth.LoginDTO{
					Email:    "nobody@storefront.test",
					Password: "password",
				})

				// Then
				Expect(err).To(MatchError(auth.ErrInvalidCredentials))
			})
		})

		Context("with a deactivated account", func() {
			It("refuses to issue tokens", func() {
				// When
				_, err := service.Authenticate(auth.LoginDTO{
					Email:    "dormant@storefront.test",
					Password: "password",
				})

				// Then
				Expect(err).To(MatchError(auth.ErrUserInactive))
			})
		})
	})

	Describe("RefreshTokens", func() {
		It("exchanges a valid refresh token for a new pair", func() {
			// Given
			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "customer@storefront.test",
				Password: "password",
			})
			Expect(err).ToNot(HaveOccurred())

			// When
			refreshed, err := service.RefreshTokens(tokens.RefreshToken)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(refreshed.AccessToken).ToNot(BeEmpty())
		})

		It("rejects an access token used as a refresh token", func() {
			// Given
			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "customer@storefront.test",
				Password: "password",
			})
			Expect(err).ToNot(HaveOccurred())

			// When
			_, err = service.RefreshTokens(tokens.AccessToken)

			// Then
			Expect(err).To(HaveOccurred())
		})

		It("rejects garbage tokens", func() {
			// When
			_, err := service.RefreshTokens("not-a-jwt")

			// Then
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetUser", func() {
		It("returns the principal without the password hash", func() {
			// When
			principal, err := service.GetUser("user-1")

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(principal.Email).To(Equal("customer@storefront.test"))
			Expect(principal.IsAdmin()).To(BeFalse())
		})

		It("refuses a deactivated account", func() {
			// When
			_, err := service.GetUser("user-2")

			// Then
			Expect(err).To(MatchError(auth.ErrUserInactive))
		})
	})
})
