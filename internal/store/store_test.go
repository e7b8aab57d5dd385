package store_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/talentdesk/backoffice/internal/store"
	"github.com/talentdesk/backoffice/pkg/logger"
)

func TestStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Store Suite")
}

var _ = Describe("MemoryGateway", func() {
	var (
		gateway *store.MemoryGateway
		ctx     context.Context
	)

	BeforeEach(func() {
		gateway = store.NewMemoryGateway()
		ctx = context.Background()
	})

	Describe("Get and Set", func() {
		It("round-trips a record", func() {
			record := map[string]any{"name": "Laptop", "status": "available"}
			Expect(gateway.Set(ctx, "assets/a1", record)).To(Succeed())

			var got map[string]string
			found, err := gateway.Get(ctx, "assets/a1", &got)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(got["name"]).To(Equal("Laptop"))
		})

		It("reports a missing path without error", func() {
			var got map[string]any
			found, err := gateway.Get(ctx, "assets/nope", &got)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})
	})

	Describe("Patch", func() {
		BeforeEach(func() {
			Expect(gateway.Set(ctx, "users/u1", map[string]any{
				"firstName":    "Jo",
				"departmentId": "d1",
			})).To(Succeed())
		})

		It("merges fields without touching siblings", func() {
			Expect(gateway.Patch(ctx, "users/u1", map[string]any{"firstName": "Joan"})).To(Succeed())

			var got map[string]string
			_, err := gateway.Get(ctx, "users/u1", &got)
			Expect(err).NotTo(HaveOccurred())
			Expect(got["firstName"]).To(Equal("Joan"))
			Expect(got["departmentId"]).To(Equal("d1"))
		})

		It("deletes a field patched to nil", func() {
			Expect(gateway.Patch(ctx, "users/u1", map[string]any{"departmentId": nil})).To(Succeed())

			var got map[string]string
			_, err := gateway.Get(ctx, "users/u1", &got)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).NotTo(HaveKey("departmentId"))
		})

		It("writes absolute paths when patching the root", func() {
			writes := map[string]any{
				"users/u1/departmentId": nil,
				"departments/d1":        nil,
				"index/u1":              map[string]any{"firstName": "Jo"},
			}
			Expect(gateway.Patch(ctx, "", writes)).To(Succeed())

			var user map[string]string
			_, err := gateway.Get(ctx, "users/u1", &user)
			Expect(err).NotTo(HaveOccurred())
			Expect(user).NotTo(HaveKey("departmentId"))

			var dept map[string]any
			found, err := gateway.Get(ctx, "departments/d1", &dept)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())

			var indexed map[string]string
			found, err = gateway.Get(ctx, "index/u1", &indexed)
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(indexed["firstName"]).To(Equal("Jo"))
		})
	})

	Describe("GetRange", func() {
		BeforeEach(func() {
			people := map[string]map[string]string{
				"k1": {"firstName": "Alice", "workEmail": "alice@corp.example"},
				"k2": {"firstName": "Bob", "workEmail": "bob@corp.example"},
				"k3": {"firstName": "Alicia", "workEmail": "alicia@corp.example"},
			}
			for key, p := range people {
				Expect(gateway.Set(ctx, store.Join("users", key), p)).To(Succeed())
			}
		})

		It("orders by key and honors limitToFirst", func() {
			entries, err := gateway.GetRange(ctx, "users", store.Query{
				OrderBy:      store.OrderByKey,
				LimitToFirst: 2,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
			Expect(entries[0].Key).To(Equal("k1"))
			Expect(entries[1].Key).To(Equal("k2"))
		})

		It("matches equalTo on a child field", func() {
			email := "bob@corp.example"
			entries, err := gateway.GetRange(ctx, "users", store.Query{
				OrderBy: "workEmail",
				EqualTo: &email,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Key).To(Equal("k2"))
		})

		It("treats startAt and endAt as an inclusive prefix range", func() {
			start := "Ali"
			end := "Ali"
			entries, err := gateway.GetRange(ctx, "users", store.Query{
				OrderBy: "firstName",
				StartAt: &start,
				EndAt:   &end,
			})
			Expect(err).NotTo(HaveOccurred())

			keys := make([]string, len(entries))
			for i, e := range entries {
				keys[i] = e.Key
			}
			Expect(keys).To(ConsistOf("k1", "k3"))
		})

		It("returns nothing for a missing collection", func() {
			entries, err := gateway.GetRange(ctx, "ghosts", store.Query{OrderBy: store.OrderByKey})
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(BeEmpty())
		})
	})

	Describe("Push", func() {
		It("generates keys that sort in insertion order", func() {
			keys := make([]string, 0, 20)
			for i := 0; i < 20; i++ {
				key, err := gateway.Push(ctx, "submissions", map[string]any{"n": i})
				Expect(err).NotTo(HaveOccurred())
				Expect(key).To(HaveLen(20))
				keys = append(keys, key)
			}

			sorted := append([]string(nil), keys...)
			sort.Strings(sorted)
			Expect(sorted).To(Equal(keys))
		})
	})
})

var _ = Describe("RESTGateway", func() {
	var (
		server  *httptest.Server
		gateway *store.RESTGateway
		ctx     context.Context

		lastRequest *http.Request
		lastBody    []byte
		respond     func(w http.ResponseWriter)
	)

	BeforeEach(func() {
		ctx = context.Background()
		respond = func(w http.ResponseWriter) {
			w.Write([]byte(`null`))
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastRequest = r
			lastBody, _ = io.ReadAll(r.Body)
			respond(w)
		}))
		gateway = store.NewRESTGateway(store.Config{
			BaseURL:        server.URL,
			AuthToken:      "secret-token",
			RequestTimeout: 5 * time.Second,
		}, logger.L())
	})

	AfterEach(func() {
		server.Close()
	})

	It("targets the .json path and sends the auth token", func() {
		var dest map[string]any
		_, err := gateway.Get(ctx, "users/u1", &dest)
		Expect(err).NotTo(HaveOccurred())

		Expect(lastRequest.URL.Path).To(Equal("/users/u1.json"))
		Expect(lastRequest.URL.Query().Get("auth")).To(Equal("secret-token"))
	})

	It("treats a JSON null body as a missing value", func() {
		var dest map[string]any
		found, err := gateway.Get(ctx, "users/u1", &dest)
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(BeFalse())
	})

	It("quotes range query parameters", func() {
		respond = func(w http.ResponseWriter) {
			w.Write([]byte(`{}`))
		}

		start := "Jo"
		_, err := gateway.GetRange(ctx, "users", store.Query{
			OrderBy:      "firstName",
			StartAt:      &start,
			LimitToFirst: 5,
		})
		Expect(err).NotTo(HaveOccurred())

		q := lastRequest.URL.Query()
		Expect(q.Get("orderBy")).To(Equal(`"firstName"`))
		Expect(q.Get("startAt")).To(Equal(`"Jo"`))
		Expect(q.Get("limitToFirst")).To(Equal("5"))
	})

	It("re-sorts range results that arrive out of order", func() {
		respond = func(w http.ResponseWriter) {
			w.Write([]byte(`{"b":{"firstName":"Bea"},"a":{"firstName":"Abe"}}`))
		}

		entries, err := gateway.GetRange(ctx, "users", store.Query{OrderBy: store.OrderByKey})
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Key).To(Equal("a"))
		Expect(entries[1].Key).To(Equal("b"))
	})

	It("wraps non-2xx responses in ErrUnavailable", func() {
		respond = func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusInternalServerError)
		}

		var dest map[string]any
		_, err := gateway.Get(ctx, "users/u1", &dest)
		Expect(err).To(MatchError(store.ErrUnavailable))
	})

	It("sends patches with the PATCH method", func() {
		respond = func(w http.ResponseWriter) {
			w.Write([]byte(`{}`))
		}

		Expect(gateway.Patch(ctx, "users/u1", map[string]any{"firstName": "Joan"})).To(Succeed())
		Expect(lastRequest.Method).To(Equal(http.MethodPatch))

		var gotBody map[string]any
		Expect(json.Unmarshal(lastBody, &gotBody)).To(Succeed())
		Expect(gotBody).To(HaveKeyWithValue("firstName", "Joan"))
	})
})
