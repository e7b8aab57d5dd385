package project_test

import (
	"context"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/talentdesk/backoffice/internal"
	"github.com/talentdesk/backoffice/internal/blob"
	"github.com/talentdesk/backoffice/internal/cache"
	"github.com/talentdesk/backoffice/internal/project"
	"github.com/talentdesk/backoffice/internal/store"
	"github.com/talentdesk/backoffice/pkg/logger"
)

func TestProjectService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Project Service Suite")
}

var _ = Describe("Project Service", func() {
	var (
		gateway *store.MemoryGateway
		session *cache.Session
		blobs   *blob.MemoryStore
		service *project.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		gateway = store.NewMemoryGateway()
		session = cache.NewSession()
		blobs = blob.NewMemoryStore()
		service = project.NewService(gateway, session, blobs, logger.L())
		ctx = context.Background()
	})

	create := func(title string) *project.Project {
		p, err := service.Create(ctx, project.CreateProjectDTO{
			Title:        title,
			Description:  "demo",
			Technologies: []string{"go"},
		})
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	titles := func(projects []project.Project) []string {
		out := make([]string, len(projects))
		for i, p := range projects {
			out[i] = p.Title
		}
		return out
	}

	orders := func(projects []project.Project) []int {
		out := make([]int, len(projects))
		for i, p := range projects {
			out[i] = p.Order
		}
		return out
	}

	Describe("Create", func() {
		It("carries category and client name into the stored record", func() {
			p, err := service.Create(ctx, project.CreateProjectDTO{
				Title:      "Retail Relaunch",
				Category:   "e-commerce",
				ClientName: "Acme Retail",
			})
			Expect(err).NotTo(HaveOccurred())

			var stored map[string]any
			_, err = gateway.Get(ctx, store.Join("projects", p.Key), &stored)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored["category"]).To(Equal("e-commerce"))
			Expect(stored["clientName"]).To(Equal("Acme Retail"))

			updated, err := service.Update(ctx, p.Key, project.UpdateProjectDTO{
				Title:      "Retail Relaunch",
				Category:   "web",
				ClientName: "Acme Group",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Category).To(Equal("web"))

			_, err = gateway.Get(ctx, store.Join("projects", p.Key), &stored)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored["category"]).To(Equal("web"))
			Expect(stored["clientName"]).To(Equal("Acme Group"))
		})

		It("appends each new project at the end of the display order", func() {
			first := create("Alpha")
			second := create("Beta")
			third := create("Gamma")

			Expect(first.Order).To(Equal(0))
			Expect(second.Order).To(Equal(1))
			Expect(third.Order).To(Equal(2))
		})
	})

	Describe("List", func() {
		It("returns projects in display order regardless of key order", func() {
			create("Alpha")
			create("Beta")
			create("Gamma")

			listed, err := service.List(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(listed)).To(Equal([]string{"Alpha", "Beta", "Gamma"}))
		})

		It("serves from the session cache until a mutation", func() {
			create("Alpha")

			_, err := service.List(ctx, false)
			Expect(err).NotTo(HaveOccurred())

			Expect(gateway.Set(ctx, "projects/raw", map[string]any{
				"title": "Ghost", "order": 9,
			})).To(Succeed())

			cached, err := service.List(ctx, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(cached).To(HaveLen(1))

			forced, err := service.List(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(forced).To(HaveLen(2))
		})
	})

	Describe("Reorder", func() {
		var keys map[string]string

		BeforeEach(func() {
			keys = map[string]string{}
			for _, title := range []string{"Alpha", "Beta", "Gamma", "Delta"} {
				keys[title] = create(title).Key
			}
		})

		It("moves the project and keeps orders dense", func() {
			reordered, err := service.Reorder(ctx, keys["Delta"], 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(reordered)).To(Equal([]string{"Alpha", "Delta", "Beta", "Gamma"}))
			Expect(orders(reordered)).To(Equal([]int{0, 1, 2, 3}))

			fresh, err := service.List(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(fresh)).To(Equal([]string{"Alpha", "Delta", "Beta", "Gamma"}))
		})

		It("writes orders only for projects whose position changed", func() {
			_, err := service.Reorder(ctx, keys["Gamma"], 2)
			Expect(err).NotTo(HaveOccurred())

			// nothing moved, so the marker was never touched
			var marker string
			found, err := gateway.Get(ctx, "metadata/projects_last_updated", &marker)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})

		It("records the change marker after a real move", func() {
			_, err := service.Reorder(ctx, keys["Alpha"], 3)
			Expect(err).NotTo(HaveOccurred())

			var marker string
			found, err := gateway.Get(ctx, "metadata/projects_last_updated", &marker)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(marker).NotTo(BeEmpty())
		})

		It("clamps an out-of-range position to the last slot", func() {
			reordered, err := service.Reorder(ctx, keys["Alpha"], 99)
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(reordered)).To(Equal([]string{"Beta", "Gamma", "Delta", "Alpha"}))
			Expect(orders(reordered)).To(Equal([]int{0, 1, 2, 3}))
		})

		It("rejects a missing project", func() {
			_, err := service.Reorder(ctx, "ghost", 0)
			Expect(err).To(MatchError(internal.ErrProjectNotFound))
		})
	})

	Describe("UploadImage", func() {
		It("stores the image and links the project to its URL", func() {
			p := create("Alpha")

			updated, err := service.UploadImage(ctx, p.Key, strings.NewReader("png-bytes"), "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.ImageURL).To(HavePrefix("memory://projects/"))
			Expect(updated.ImageURL).To(HaveSuffix(".png"))

			var stored map[string]any
			_, err = gateway.Get(ctx, store.Join("projects", p.Key), &stored)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored["imageUrl"]).To(Equal(updated.ImageURL))

			data, ok := blobs.Object(strings.TrimPrefix(updated.ImageURL, "memory://"))
			Expect(ok).To(BeTrue())
			Expect(string(data)).To(Equal("png-bytes"))
		})
	})

	Describe("Delete", func() {
		It("refuses without confirmation", func() {
			p := create("Alpha")

			err := service.Delete(ctx, p.Key, false)
			Expect(err).To(MatchError(internal.ErrConfirmationRequired))
		})

		It("renumbers the remainder densely when confirmed", func() {
			create("Alpha")
			beta := create("Beta")
			create("Gamma")

			Expect(service.Delete(ctx, beta.Key, true)).To(Succeed())

			remaining, err := service.List(ctx, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(titles(remaining)).To(Equal([]string{"Alpha", "Gamma"}))
			Expect(orders(remaining)).To(Equal([]int{0, 1}))

			var marker string
			found, err := gateway.Get(ctx, "metadata/projects_last_updated", &marker)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
		})
	})
})
