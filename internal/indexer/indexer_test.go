package indexer_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/talentdesk/backoffice/internal/indexer"
	"github.com/talentdesk/backoffice/internal/store"
	"github.com/talentdesk/backoffice/pkg/logger"
)

func TestIndexer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Indexer Suite")
}

var _ = Describe("Rebuild", func() {
	var (
		gateway *store.MemoryGateway
		service *indexer.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		gateway = store.NewMemoryGateway()
		service = indexer.NewService(gateway, logger.L())
		ctx = context.Background()
	})

	Context("with nested registrations and internal users", func() {
		BeforeEach(func() {
			client := map[string]any{
				"firstName": "Avery",
				"lastName":  "Client",
				"email":     "avery@client.example",
				"country":   "Canada",
				"serviceRegistrations": map[string]any{
					"r1": map[string]any{
						"service":        "recruitment",
						"registeredDate": "2024-03-05T14:22:31Z",
					},
					"r2": map[string]any{
						"firstName": "Billing",
						"email":     "billing@client.example",
					},
				},
			}
			Expect(gateway.Set(ctx, "clients/c1", client)).To(Succeed())

			users := map[string]map[string]any{
				"u1": {"firstName": "Ina", "role": "admin", "departmentId": "d1"},
				"u2": {"firstName": "Cal", "roles": []string{"Client"}},
				"u3": {"firstName": "Sam", "roles": map[string]any{"HR": true}},
			}
			for key, u := range users {
				Expect(gateway.Set(ctx, store.Join("users", key), u)).To(Succeed())
			}
		})

		It("flattens registrations under deterministic keys", func() {
			report, err := service.Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Registrations).To(Equal(2))

			var record map[string]string
			found, err := gateway.Get(ctx, "service_registrations_index/c1_r1", &record)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(record["clientKey"]).To(Equal("c1"))
			Expect(record["registrationKey"]).To(Equal("r1"))
		})

		It("fills fields from the registration first, then the client, then defaults", func() {
			_, err := service.Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())

			var record map[string]string
			_, err = gateway.Get(ctx, "service_registrations_index/c1_r2", &record)
			Expect(err).NotTo(HaveOccurred())

			// registration wins over client
			Expect(record["firstName"]).To(Equal("Billing"))
			Expect(record["email"]).To(Equal("billing@client.example"))
			// client fills what the registration lacks
			Expect(record["lastName"]).To(Equal("Client"))
			Expect(record["country"]).To(Equal("Canada"))
			// defaults fill what neither has
			Expect(record["service"]).To(Equal("Unknown"))
			Expect(record["visaStatus"]).To(Equal("Unknown"))
			Expect(record["status"]).To(Equal("registered"))
			Expect(record["jobTitle"]).To(Equal(""))
		})

		It("truncates timestamps to dates and defaults missing dates to today", func() {
			_, err := service.Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())

			var withDate map[string]string
			_, err = gateway.Get(ctx, "service_registrations_index/c1_r1", &withDate)
			Expect(err).NotTo(HaveOccurred())
			Expect(withDate["registeredDate"]).To(Equal("2024-03-05"))

			var withoutDate map[string]string
			_, err = gateway.Get(ctx, "service_registrations_index/c1_r2", &withoutDate)
			Expect(err).NotTo(HaveOccurred())
			Expect(withoutDate["registeredDate"]).To(Equal(time.Now().Format("2006-01-02")))
		})

		It("indexes only users holding an internal role", func() {
			report, err := service.Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Employees).To(Equal(2))

			var admin map[string]string
			found, err := gateway.Get(ctx, "employees_index/u1", &admin)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(admin["role"]).To(Equal("admin"))
			Expect(admin["department"]).To(Equal("d1"))

			// set-shaped roles object with mixed case still qualifies
			var hr map[string]string
			found, err = gateway.Get(ctx, "employees_index/u3", &hr)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(hr["role"]).To(Equal("hr"))

			var client map[string]string
			found, err = gateway.Get(ctx, "employees_index/u2", &client)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})

		It("produces identical output when re-run over unchanged source", func() {
			_, err := service.Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())

			var first map[string]map[string]string
			_, err = gateway.Get(ctx, "service_registrations_index", &first)
			Expect(err).NotTo(HaveOccurred())

			report, err := service.Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Registrations).To(Equal(2))

			var second map[string]map[string]string
			_, err = gateway.Get(ctx, "service_registrations_index", &second)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})
	})

	Context("with nothing to index", func() {
		It("writes nothing and reports zero", func() {
			report, err := service.Rebuild(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(report).To(Equal(indexer.Report{}))

			var index map[string]any
			found, err := gateway.Get(ctx, "service_registrations_index", &index)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})
})
