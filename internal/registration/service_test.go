package registration_test

import (
	"context"
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/talentdesk/backoffice/internal"
	"github.com/talentdesk/backoffice/internal/cache"
	"github.com/talentdesk/backoffice/internal/indexer"
	"github.com/talentdesk/backoffice/internal/registration"
	"github.com/talentdesk/backoffice/internal/store"
	"github.com/talentdesk/backoffice/pkg/logger"
)

func TestRegistrationService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Registration Service Suite")
}

var _ = Describe("Registration Service", func() {
	var (
		gateway *store.MemoryGateway
		session *cache.Session
		service *registration.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		gateway = store.NewMemoryGateway()
		session = cache.NewSession()
		service = registration.NewService(gateway, session, registration.Config{PageSize: 5}, logger.L())
		ctx = context.Background()
	})

	seedIndex := func(n int) {
		for i := 0; i < n; i++ {
			key := fmt.Sprintf("client%03d_reg%03d", i, i)
			row := map[string]string{
				"firstName": fmt.Sprintf("Person %03d", i),
				"service":   "recruitment",
				"status":    "registered",
			}
			Expect(gateway.Set(ctx, store.Join("service_registrations_index", key), row)).To(Succeed())
		}
	}

	Describe("ListPage", func() {
		It("returns one decoded display page", func() {
			seedIndex(40)

			page, err := service.ListPage(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Number).To(Equal(1))
			Expect(page.Records).To(HaveLen(5))
			Expect(page.HasMore).To(BeTrue())

			Expect(page.Records[0].Key).To(Equal("client000_reg000"))
			Expect(page.Records[0].Fields).To(HaveKeyWithValue("firstName", "Person 000"))
		})

		It("advances page 2 past the first raw fetch window", func() {
			seedIndex(40)

			first, err := service.ListPage(ctx, 1)
			Expect(err).NotTo(HaveOccurred())

			second, err := service.ListPage(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Records[0].Key).To(Equal("client015_reg015"))

			seen := map[string]bool{}
			for _, r := range append(first.Records, second.Records...) {
				Expect(seen[r.Key]).To(BeFalse())
				seen[r.Key] = true
			}
		})

		It("returns an empty page over an empty index", func() {
			page, err := service.ListPage(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(page.Records).To(BeEmpty())
			Expect(page.HasMore).To(BeFalse())
		})

		It("refetches after InvalidateListing", func() {
			seedIndex(3)

			before, err := service.ListPage(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(before.Records).To(HaveLen(3))

			Expect(gateway.Set(ctx, "service_registrations_index/client999_reg999", map[string]string{
				"firstName": "Late",
			})).To(Succeed())

			cached, err := service.ListPage(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(cached.Records).To(HaveLen(3))

			service.InvalidateListing(ctx)

			after, err := service.ListPage(ctx, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(after.Records).To(HaveLen(4))
		})
	})

	Describe("Get", func() {
		BeforeEach(func() {
			client := map[string]any{
				"firstName": "Avery",
				"serviceRegistrations": map[string]any{
					"regabc": map[string]any{
						"service":        "recruitment",
						"registeredDate": "2024-03-05",
					},
				},
			}
			Expect(gateway.Set(ctx, "clients/clientabc", client)).To(Succeed())
			Expect(gateway.Set(ctx, "service_registrations_index/clientabc_regabc", map[string]string{
				"clientKey":       "clientabc",
				"registrationKey": "regabc",
				"service":         "recruitment",
			})).To(Succeed())
		})

		It("loads the nested record the index row points at", func() {
			reg, err := service.Get(ctx, "clientabc_regabc")
			Expect(err).NotTo(HaveOccurred())
			Expect(reg.ClientKey).To(Equal("clientabc"))
			Expect(reg.RegistrationKey).To(Equal("regabc"))
			Expect(reg.Fields).To(HaveKeyWithValue("service", "recruitment"))
		})

		It("resolves source keys from the row when the client key contains an underscore", func() {
			client := map[string]any{
				"firstName": "Blake",
				"serviceRegistrations": map[string]any{
					"r1": map[string]any{"service": "payroll"},
				},
			}
			Expect(gateway.Set(ctx, "clients/A_B", client)).To(Succeed())

			_, err := indexer.NewService(gateway, logger.L()).Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())

			reg, err := service.Get(ctx, "A_B_r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(reg.ClientKey).To(Equal("A_B"))
			Expect(reg.RegistrationKey).To(Equal("r1"))
			Expect(reg.Fields).To(HaveKeyWithValue("service", "payroll"))
		})

		It("returns not found for an unknown index key", func() {
			_, err := service.Get(ctx, "no-such-row")
			Expect(err).To(MatchError(internal.ErrRegistrationNotFound))
		})

		It("returns not found for a dangling index row", func() {
			Expect(gateway.Set(ctx, "service_registrations_index/clientabc_gone", map[string]string{
				"clientKey":       "clientabc",
				"registrationKey": "gone",
			})).To(Succeed())

			_, err := service.Get(ctx, "clientabc_gone")
			Expect(err).To(MatchError(internal.ErrRegistrationNotFound))
		})

		It("rejects an index row missing its source keys", func() {
			Expect(gateway.Set(ctx, "service_registrations_index/legacy", map[string]string{
				"firstName": "Orphan",
			})).To(Succeed())

			_, err := service.Get(ctx, "legacy")
			Expect(err).To(HaveOccurred())

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})
})
