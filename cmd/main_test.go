package main

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/peercheck/peercheck/config"
	"github.com/peercheck/peercheck/internal/engine"
	"github.com/peercheck/peercheck/internal/metrics"
	"github.com/peercheck/peercheck/internal/store"
)

func TestMain(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Main Suite")
}

type okProber struct{}

func (okProber) Setup(_ context.Context, _ int) error { return nil }
func (okProber) Probe(_ int) error                    { return nil }
func (okProber) Close() error                         { return nil }

var _ = Describe("buildEngineConfig", func() {
	It("should parse durations from the healthcheck section", func() {
		cfg, err := buildEngineConfig(config.HealthcheckConfig{
			AbortOnError: true,
			Interval:     "30s",
			Timeout:      "5s",
			SetupTimeout: "1m",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Interval).To(Equal(30 * time.Second))
		Expect(cfg.Timeout).To(Equal(5 * time.Second))
		Expect(cfg.SetupTimeout).To(Equal(time.Minute))
		Expect(cfg.AbortOnError).To(BeTrue())
	})

	It("should leave the setup timeout unbounded when empty", func() {
		cfg, err := buildEngineConfig(config.HealthcheckConfig{
			Interval: "30s",
			Timeout:  "5s",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.SetupTimeout).To(BeZero())
	})

	It("should reject a malformed interval", func() {
		_, err := buildEngineConfig(config.HealthcheckConfig{
			Interval: "soon",
			Timeout:  "5s",
		})
		Expect(err).To(HaveOccurred())
	})

	It("should reject a malformed timeout", func() {
		_, err := buildEngineConfig(config.HealthcheckConfig{
			Interval: "30s",
			Timeout:  "whenever",
		})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("buildStore", func() {
	It("should build a memory store for the memory backend", func() {
		s := buildStore(config.StoreConfig{Backend: config.StoreMemory})
		Expect(s).To(BeAssignableToTypeOf(&store.MemoryStore{}))
	})

	It("should build a redis store for the redis backend", func() {
		s := buildStore(config.StoreConfig{Backend: config.StoreRedis, Address: "localhost:6379"})
		Expect(s).To(BeAssignableToTypeOf(&store.RedisStore{}))
	})
})

var _ = Describe("statusHandler", func() {
	It("should report the engine state and metrics snapshot", func() {
		collector := metrics.NewCollector(16, zap.NewNop())
		eng := engine.New(engine.Config{
			Interval: time.Hour,
			Timeout:  time.Second,
		}, okProber{}, zap.NewNop(), engine.WithTerminator(func() {}))
		defer eng.Shutdown()

		Eventually(eng.State).Should(Equal(engine.StateRunning))

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest("GET", "/statusz", nil)
		statusHandler(collector, eng).ServeHTTP(recorder, request)

		Expect(recorder.Code).To(Equal(200))
		Expect(recorder.Header().Get("Content-Type")).To(Equal("application/json"))

		var got status
		Expect(json.NewDecoder(recorder.Result().Body).Decode(&got)).To(Succeed())
		Expect(got.State).To(Equal("RUNNING"))
		Expect(got.LastFailures).To(BeZero())
	})
})

var _ = Describe("setupRouter", func() {
	It("should expose the metrics endpoint", func() {
		collector := metrics.NewCollector(16, zap.NewNop())
		eng := engine.New(engine.Config{
			Interval: time.Hour,
			Timeout:  time.Second,
		}, okProber{}, zap.NewNop(), engine.WithTerminator(func() {}))
		defer eng.Shutdown()

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest("GET", "/metrics", nil)
		setupRouter(collector, eng).ServeHTTP(recorder, request)

		Expect(recorder.Code).To(Equal(200))
	})
})
