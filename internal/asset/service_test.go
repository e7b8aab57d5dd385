package asset_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/talentdesk/backoffice/internal"
	"github.com/talentdesk/backoffice/internal/asset"
	"github.com/talentdesk/backoffice/internal/cache"
	"github.com/talentdesk/backoffice/internal/store"
	"github.com/talentdesk/backoffice/pkg/logger"
)

func TestAssetService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Asset Service Suite")
}

var _ = Describe("Asset Service", func() {
	var (
		gateway *store.MemoryGateway
		durable *cache.Session
		service *asset.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		gateway = store.NewMemoryGateway()
		durable = cache.NewSession()
		service = asset.NewService(gateway, durable, logger.L())
		ctx = context.Background()

		Expect(gateway.Set(ctx, "users/u1", map[string]any{
			"firstName":      "Ina",
			"functionalRole": "employee",
		})).To(Succeed())
	})

	create := func(name, serial string) *asset.Asset {
		a, err := service.Create(ctx, asset.CreateAssetDTO{
			Name:         name,
			Category:     "laptop",
			SerialNumber: serial,
		})
		Expect(err).NotTo(HaveOccurred())
		return a
	}

	Describe("Create and List", func() {
		It("creates assets as available", func() {
			a := create("MacBook Pro 14", "SN-001")
			Expect(a.Status).To(Equal(asset.StatusAvailable))
			Expect(a.Key).NotTo(BeEmpty())
		})

		It("lists from the cache until a mutation drops it", func() {
			create("MacBook Pro 14", "SN-001")

			first, err := service.List(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(first).To(HaveLen(1))

			// a raw write behind the service stays invisible
			Expect(gateway.Set(ctx, "assets/raw", map[string]any{
				"name": "Ghost", "status": "available",
			})).To(Succeed())

			cached, err := service.List(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(cached).To(HaveLen(1))

			// a mutation through the service drops the cache
			create("ThinkPad X1", "SN-002")

			refreshed, err := service.List(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(refreshed).To(HaveLen(3))
		})
	})

	Describe("Assign", func() {
		It("moves an available asset to assigned with a stamped date", func() {
			a := create("MacBook Pro 14", "SN-001")

			assigned, err := service.Assign(ctx, a.Key, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(assigned.Status).To(Equal(asset.StatusAssigned))
			Expect(assigned.AssignedTo).To(HaveValue(Equal("u1")))
			Expect(assigned.AssignedDate).To(Equal(time.Now().Format("02/01/2006")))
			Expect(assigned.ReturnDate).To(BeNil())

			stored, err := service.Get(ctx, a.Key)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Status).To(Equal(asset.StatusAssigned))
		})

		It("refuses to assign an already assigned asset", func() {
			a := create("MacBook Pro 14", "SN-001")

			_, err := service.Assign(ctx, a.Key, "u1")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Assign(ctx, a.Key, "u1")
			Expect(err).To(MatchError(internal.ErrAssetNotAvailable))
		})

		It("refuses a missing employee", func() {
			a := create("MacBook Pro 14", "SN-001")

			_, err := service.Assign(ctx, a.Key, "ghost")
			Expect(err).To(MatchError(internal.ErrEmployeeNotFound))
		})
	})

	Describe("Return", func() {
		It("stamps the return date and clears the assignee", func() {
			a := create("MacBook Pro 14", "SN-001")
			_, err := service.Assign(ctx, a.Key, "u1")
			Expect(err).NotTo(HaveOccurred())

			returned, err := service.Return(ctx, a.Key)
			Expect(err).NotTo(HaveOccurred())
			Expect(returned.Status).To(Equal(asset.StatusAvailable))
			Expect(returned.AssignedTo).To(BeNil())
			Expect(returned.ReturnDate).To(HaveValue(Equal(time.Now().Format("02/01/2006"))))

			var stored map[string]any
			_, err = gateway.Get(ctx, store.Join("assets", a.Key), &stored)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).NotTo(HaveKey("assignedTo"))
		})

		It("refuses to return an asset that is not assigned", func() {
			a := create("MacBook Pro 14", "SN-001")

			_, err := service.Return(ctx, a.Key)
			Expect(err).To(HaveOccurred())
		})

		It("clears the previous return date on reassignment", func() {
			a := create("MacBook Pro 14", "SN-001")
			_, err := service.Assign(ctx, a.Key, "u1")
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Return(ctx, a.Key)
			Expect(err).NotTo(HaveOccurred())

			reassigned, err := service.Assign(ctx, a.Key, "u1")
			Expect(err).NotTo(HaveOccurred())
			Expect(reassigned.ReturnDate).To(BeNil())

			var stored map[string]any
			_, err = gateway.Get(ctx, store.Join("assets", a.Key), &stored)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).NotTo(HaveKey("returnDate"))
		})
	})

	Describe("maintenance", func() {
		var key string

		BeforeEach(func() {
			a := create("MacBook Pro 14", "SN-001")
			key = a.Key

			updated, err := service.Update(ctx, key, asset.UpdateAssetDTO{
				Name:         a.Name,
				Category:     a.Category,
				SerialNumber: a.SerialNumber,
				Status:       asset.StatusInMaintenance,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(asset.StatusInMaintenance))
		})

		It("refuses to assign an asset in maintenance", func() {
			_, err := service.Assign(ctx, key, "u1")
			Expect(err).To(MatchError(internal.ErrAssetNotAvailable))
		})

		It("keeps maintenance assets out of the assignment picker", func() {
			results, err := service.SearchAvailable(ctx, "macbook")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("still deletes a maintenance asset when confirmed", func() {
			Expect(service.Delete(ctx, key, true)).To(Succeed())

			_, err := service.Get(ctx, key)
			Expect(err).To(MatchError(internal.ErrAssetNotFound))
		})

		It("refuses a status change while the asset is assigned", func() {
			b := create("ThinkPad X1", "SN-002")
			_, err := service.Assign(ctx, b.Key, "u1")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, b.Key, asset.UpdateAssetDTO{
				Name:   b.Name,
				Status: asset.StatusInMaintenance,
			})
			Expect(err).To(HaveOccurred())
		})

		It("rejects an unknown status on update", func() {
			_, err := service.Update(ctx, key, asset.UpdateAssetDTO{
				Name:   "MacBook Pro 14",
				Status: "broken",
			})
			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("SearchAvailable", func() {
		BeforeEach(func() {
			create("MacBook Pro 14", "SN-001")
			create("ThinkPad X1", "SN-002")
			taken := create("MacBook Air", "SN-003")
			_, err := service.Assign(ctx, taken.Key, "u1")
			Expect(err).NotTo(HaveOccurred())
		})

		It("matches on name case-insensitively", func() {
			results, err := service.SearchAvailable(ctx, "macbook")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Name).To(Equal("MacBook Pro 14"))
		})

		It("matches on serial number", func() {
			results, err := service.SearchAvailable(ctx, "sn-002")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Name).To(Equal("ThinkPad X1"))
		})

		It("never returns assigned assets", func() {
			results, err := service.SearchAvailable(ctx, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			for _, a := range results {
				Expect(a.Status).To(Equal(asset.StatusAvailable))
			}
		})
	})

	Describe("Delete", func() {
		It("refuses without confirmation and identifies the asset", func() {
			a := create("MacBook Pro 14", "SN-001")

			err := service.Delete(ctx, a.Key, false)
			Expect(err).To(MatchError(internal.ErrConfirmationRequired))

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Details).To(HaveKeyWithValue("serialNumber", "SN-001"))
		})

		It("refuses while the asset is assigned, even confirmed", func() {
			a := create("MacBook Pro 14", "SN-001")
			_, err := service.Assign(ctx, a.Key, "u1")
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(ctx, a.Key, true)).To(HaveOccurred())

			_, err = service.Get(ctx, a.Key)
			Expect(err).NotTo(HaveOccurred())
		})

		It("removes the asset when confirmed", func() {
			a := create("MacBook Pro 14", "SN-001")

			Expect(service.Delete(ctx, a.Key, true)).To(Succeed())

			_, err := service.Get(ctx, a.Key)
			Expect(err).To(MatchError(internal.ErrAssetNotFound))
		})
	})
})
