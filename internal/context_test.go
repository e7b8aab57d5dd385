package internal_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/talentdesk/backoffice/internal"
)

func TestInternal(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Internal Suite")
}

var _ = Describe("request context helpers", func() {
	It("round-trips the operator key", func() {
		ctx := internal.ContextWithOperator(context.Background(), "op-123")
		Expect(internal.OperatorFromContext(ctx)).To(Equal("op-123"))
	})

	It("returns empty for an unauthenticated context", func() {
		Expect(internal.OperatorFromContext(context.Background())).To(BeEmpty())
	})

	Describe("WithTimeout", func() {
		It("keeps the requested duration", func() {
			ctx, cancel := internal.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			deadline, ok := ctx.Deadline()
			Expect(ok).To(BeTrue())
			Expect(time.Until(deadline)).To(BeNumerically(">", 50*time.Second))
		})

		It("applies a default when the duration is not positive", func() {
			ctx, cancel := internal.WithTimeout(context.Background(), 0)
			defer cancel()

			deadline, ok := ctx.Deadline()
			Expect(ok).To(BeTrue())
			Expect(time.Until(deadline)).To(BeNumerically("<=", 5*time.Second))
		})
	})
})
