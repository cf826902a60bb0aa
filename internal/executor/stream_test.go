package executor_test

import (
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/peercheck/peercheck/internal/executor"
)

func TestExecutor(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Executor Suite")
}

var _ = Describe("Stream", func() {
	It("should run tasks in submission order", func() {
		s := executor.NewStream()

		var mu sync.Mutex
		var order []int
		for i := 0; i < 10; i++ {
			i := i
			Expect(s.Submit(func() {
				mu.Lock()
				order = append(order, i)
				mu.Unlock()
			})).To(Succeed())
		}
		s.Close()

		Expect(order).To(Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
	})

	It("should drain queued tasks on Close", func() {
		s := executor.NewStream()

		ran := make(chan struct{}, 1)
		Expect(s.Submit(func() { ran <- struct{}{} })).To(Succeed())
		s.Close()

		Expect(ran).To(Receive())
	})

	It("should reject Submit after Close", func() {
		s := executor.NewStream()
		s.Close()

		err := s.Submit(func() {})
		Expect(err).To(MatchError(executor.ErrClosed))
	})

	It("should tolerate repeated Close calls", func() {
		s := executor.NewStream()
		s.Close()
		Expect(s.Close).NotTo(Panic())
	})

	It("should not serialize two independent streams", func() {
		a := executor.NewStream()
		b := executor.NewStream()
		defer a.Close()
		defer b.Close()

		release := make(chan struct{})
		blocked := make(chan struct{})
		Expect(a.Submit(func() {
			close(blocked)
			<-release
		})).To(Succeed())
		<-blocked

		ran := make(chan struct{})
		Expect(b.Submit(func() { close(ran) })).To(Succeed())

		// Stream b makes progress while stream a is stuck.
		Eventually(ran).Should(BeClosed())
		close(release)
	})
})
