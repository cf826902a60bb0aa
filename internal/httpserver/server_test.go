package httpserver_test

import (
	"context"
	"net/http"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/peercheck/peercheck/internal/httpserver"
)

func TestHTTPServer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "HTTPServer Suite")
}

var _ = Describe("Server", func() {
	var handler http.Handler

	BeforeEach(func() {
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	Describe("New", func() {
		It("should accept a host:port address", func() {
			srv, err := httpserver.New("localhost:0", handler)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
		})

		It("should accept a port-only address", func() {
			srv, err := httpserver.New(":0", handler)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
		})

		It("should reject an address without a port", func() {
			_, err := httpserver.New("localhost", handler)
			Expect(err).To(HaveOccurred())
		})

		It("should reject an empty address", func() {
			_, err := httpserver.New("", handler)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Start and Shutdown", func() {
		It("should return cleanly from Start after Shutdown", func() {
			srv, err := httpserver.New("127.0.0.1:0", handler)
			Expect(err).NotTo(HaveOccurred())

			startErr := make(chan error, 1)
			go func() {
				startErr <- srv.Start()
			}()

			Expect(srv.Shutdown(context.Background())).To(Succeed())
			Eventually(startErr).Should(Receive(BeNil()))
		})
	})
})
