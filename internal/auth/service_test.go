package auth_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/talentdesk/backoffice/internal"
	"github.com/talentdesk/backoffice/internal/auth"
	"github.com/talentdesk/backoffice/internal/store"
	"github.com/talentdesk/backoffice/pkg/logger"
)

func TestAuthService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Service Suite")
}

var _ = Describe("Auth Service", func() {
	var (
		gateway *store.MemoryGateway
		service *auth.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		gateway = store.NewMemoryGateway()
		tokenGen := auth.NewJWTTokenGenerator("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
		service = auth.NewService(gateway, tokenGen, 4, logger.L())
		ctx = context.Background()
	})

	Describe("CreateAccount", func() {
		It("stores credentials and returns the new key", func() {
			key, err := service.CreateAccount(ctx, "ops@corp.example", "supersecret")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(HaveLen(20))

			var account auth.Account
			found, err := gateway.Get(ctx, store.Join("accounts", key), &account)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(account.Email).To(Equal("ops@corp.example"))
			Expect(account.PasswordHash).NotTo(Equal("supersecret"))
		})

		It("rejects a duplicate email as a conflict", func() {
			_, err := service.CreateAccount(ctx, "ops@corp.example", "supersecret")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateAccount(ctx, "ops@corp.example", "othersecret")
			Expect(err).To(MatchError(internal.ErrEmailAlreadyInUse))
		})

		It("rejects empty credentials", func() {
			_, err := service.CreateAccount(ctx, "", "")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Authenticate", func() {
		BeforeEach(func() {
			_, err := service.CreateAccount(ctx, "ops@corp.example", "supersecret")
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "ops@corp.example",
				Password: "supersecret",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(tokens.AccessToken).NotTo(BeEmpty())
			Expect(tokens.RefreshToken).NotTo(BeEmpty())
		})

		It("rejects a wrong password", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "ops@corp.example",
				Password: "wrong-password",
			})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})

		It("rejects an unknown email", func() {
			_, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "ghost@corp.example",
				Password: "supersecret",
			})
			Expect(err).To(MatchError(internal.ErrInvalidCredentials))
		})
	})

	Describe("token validation", func() {
		It("accepts its own access tokens", func() {
			key, err := service.CreateAccount(ctx, "ops@corp.example", "supersecret")
			Expect(err).NotTo(HaveOccurred())

			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "ops@corp.example",
				Password: "supersecret",
			})
			Expect(err).NotTo(HaveOccurred())

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.UserID).To(Equal(key))
			Expect(claims.Email).To(Equal("ops@corp.example"))
		})

		It("rejects garbage tokens", func() {
			_, err := service.ValidateAccessToken("not-a-token")
			Expect(err).To(MatchError(internal.ErrInvalidToken))
		})

		It("rotates the pair from a refresh token", func() {
			_, err := service.CreateAccount(ctx, "ops@corp.example", "supersecret")
			Expect(err).NotTo(HaveOccurred())

			tokens, err := service.Authenticate(ctx, auth.LoginDTO{
				Email:    "ops@corp.example",
				Password: "supersecret",
			})
			Expect(err).NotTo(HaveOccurred())

			rotated, err := service.RefreshTokens(tokens.RefreshToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(rotated.AccessToken).NotTo(BeEmpty())
		})
	})

	Describe("DeleteAccount", func() {
		It("removes the stored credentials", func() {
			key, err := service.CreateAccount(ctx, "ops@corp.example", "supersecret")
			Expect(err).NotTo(HaveOccurred())

			Expect(service.DeleteAccount(ctx, key)).To(Succeed())

			var account auth.Account
			found, err := gateway.Get(ctx, store.Join("accounts", key), &account)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})
})
