package interceptor_test

import (
	"fmt"
	"net"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"code.cloudfoundry.org/lager"
	"code.cloudfoundry.org/lager/lagertest"

	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/hook"
	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/hook/fakes"
	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/interceptor"
	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/lookup"
	h "github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/testhelpers"
)

const (
	evTimeout  = "5s"
	evInterval = "10ms"

	ctlyTimeout  = "200ms"
	ctlyInterval = "10ms"
)

var _ = Describe("Interceptor", func() {
	var (
		i      *interceptor.Interceptor
		logger lager.Logger

		mu      sync.Mutex
		records []lookup.Record

		lookupsTotal float64
	)

	BeforeEach(func() {
		logger = lager.NewLogger("interceptor-test")
		logger.RegisterSink(lager.NewWriterSink(GinkgoWriter, lager.INFO))

		records = make([]lookup.Record, 0)
		i = interceptor.New(func(r lookup.Record) {
			mu.Lock()
			defer mu.Unlock()
			records = append(records, r)
		}, logger)

		By("setting the metric values before each test")
		lookupsTotal = h.CurrentMetricValue(interceptor.InterceptorLookupsTotal)
	})

	received := func() []lookup.Record {
		mu.Lock()
		defer mu.Unlock()
		return append([]lookup.Record{}, records...)
	}

	It("should wait for the resource to be ready before listening", func() {
		owner := lookup.NewNotifier()
		handle := fakes.NewFakeHandle(owner)

		i.Init(hook.Resource{ID: 1, Kind: hook.KindTCPConnect, Handle: handle})
		Eventually(i.Pending, evTimeout, evInterval).Should(Equal(1))

		handle.MarkReady()
		Eventually(i.Pending, evTimeout, evInterval).Should(Equal(0))

		owner.Fire(lookup.Succeeded("github.com", net.IPv4(1, 2, 3, 4)))

		Eventually(received, evTimeout, evInterval).Should(HaveLen(1))
		record := received()[0]
		Expect(record.Hostname).To(Equal("github.com"))
		Expect(record.Error).To(BeFalse())
		Expect(*record.Address).To(Equal("1.2.3.4"))
		Expect(*record.Family).To(Equal(4))

		By("checking the metrics")
		Expect(interceptor.InterceptorLookupsTotal).To(
			h.MetricIncrementedBy(lookupsTotal, "==", 1),
		)
	})

	It("should not miss a lookup which completes before the listener is attached", func() {
		owner := lookup.NewNotifier()
		handle := fakes.NewFakeHandle(owner)

		i.Init(hook.Resource{ID: 1, Kind: hook.KindTCPConnect, Handle: handle})

		owner.Fire(lookup.Failed("klfsdjngkjdfljs.com", fmt.Errorf("no such host")))
		handle.MarkReady()

		Eventually(received, evTimeout, evInterval).Should(HaveLen(1))
		record := received()[0]
		Expect(record.Hostname).To(Equal("klfsdjngkjdfljs.com"))
		Expect(record.Error).To(BeTrue())
		Expect(record.Address).To(BeNil())
		Expect(record.Family).To(BeNil())
	})

	It("should produce nothing for a resource without a handle", func() {
		Expect(func() {
			i.Init(hook.Resource{ID: 1, Kind: hook.KindTCPConnect})
		}).NotTo(Panic())

		Consistently(received, ctlyTimeout, ctlyInterval).Should(BeEmpty())
		Expect(i.Pending()).To(Equal(0))
	})

	It("should produce nothing for a resource without an owner", func() {
		handle := fakes.NewFakeHandle(nil)
		i.Init(hook.Resource{ID: 1, Kind: hook.KindTCPConnect, Handle: handle})
		handle.MarkReady()

		Eventually(i.Pending, evTimeout, evInterval).Should(Equal(0))
		Consistently(received, ctlyTimeout, ctlyInterval).Should(BeEmpty())
	})

	It("should give up on a resource which finishes without becoming ready", func() {
		owner := lookup.NewNotifier()
		handle := fakes.NewFakeHandle(owner)

		i.Init(hook.Resource{ID: 1, Kind: hook.KindTCPConnect, Handle: handle})
		handle.MarkDone()

		Eventually(i.Pending, evTimeout, evInterval).Should(Equal(0))

		owner.Fire(lookup.Succeeded("github.com", net.IPv4(1, 2, 3, 4)))
		Consistently(received, ctlyTimeout, ctlyInterval).Should(BeEmpty())
	})

	It("should still listen when ready and done are both signalled", func() {
		owner := lookup.NewNotifier()
		handle := fakes.NewFakeHandle(owner)

		owner.Fire(lookup.Succeeded("github.com", net.IPv4(1, 2, 3, 4)))
		handle.MarkReady()
		handle.MarkDone()

		i.Init(hook.Resource{ID: 1, Kind: hook.KindTCPConnect, Handle: handle})

		Eventually(received, evTimeout, evInterval).Should(HaveLen(1))
	})

	It("should keep concurrent attempts apart", func() {
		owners := make([]*lookup.Notifier, 0)
		hosts := []string{"github.com", "google.com", "finn.no", "db.no"}

		for index := range hosts {
			owner := lookup.NewNotifier()
			handle := fakes.NewFakeHandle(owner)
			owners = append(owners, owner)

			i.Init(hook.Resource{ID: uint64(index), Kind: hook.KindTCPConnect, Handle: handle})
			handle.MarkReady()
		}

		var wg sync.WaitGroup
		for index := len(hosts) - 1; index >= 0; index-- {
			wg.Add(1)
			go func(index int) {
				defer wg.Done()
				owners[index].Fire(lookup.Succeeded(
					hosts[index], net.IPv4(10, 0, 0, byte(index)),
				))
			}(index)
		}
		wg.Wait()

		Eventually(received, evTimeout, evInterval).Should(HaveLen(len(hosts)))

		for _, record := range received() {
			index := -1
			for candidate, host := range hosts {
				if host == record.Hostname {
					index = candidate
				}
			}
			Expect(index).NotTo(Equal(-1))
			Expect(*record.Address).To(Equal(fmt.Sprintf("10.0.0.%d", index)))
		}
	})

	It("should log the resource and the trigger which caused it", func() {
		testLogger := lagertest.NewTestLogger("interceptor-test")
		i = interceptor.New(func(r lookup.Record) {
			mu.Lock()
			defer mu.Unlock()
			records = append(records, r)
		}, testLogger)

		owner := lookup.NewNotifier()
		handle := fakes.NewFakeHandle(owner)
		i.Init(hook.Resource{
			ID: 3, TriggerID: 7, Kind: hook.KindTCPConnect, Handle: handle,
		})
		handle.MarkReady()
		owner.Fire(lookup.Succeeded("github.com", net.IPv4(1, 2, 3, 4)))

		Eventually(received, evTimeout, evInterval).Should(HaveLen(1))

		lookups := make([]lager.LogFormat, 0)
		for _, log := range testLogger.Logs() {
			if strings.HasSuffix(log.Message, ".lookup") {
				lookups = append(lookups, log)
			}
		}
		Expect(lookups).To(HaveLen(1))
		Expect(lookups[0].Data).To(HaveKeyWithValue("resource-id", BeNumerically("==", 3)))
		Expect(lookups[0].Data).To(HaveKeyWithValue("trigger-id", BeNumerically("==", 7)))
		Expect(lookups[0].Data).To(HaveKeyWithValue("host", "github.com"))
	})

	It("should survive a panicking sink", func() {
		i = interceptor.New(func(lookup.Record) { panic("boom") }, logger)

		owner := lookup.NewNotifier()
		handle := fakes.NewFakeHandle(owner)
		i.Init(hook.Resource{ID: 1, Kind: hook.KindTCPConnect, Handle: handle})
		handle.MarkReady()
		Eventually(i.Pending, evTimeout, evInterval).Should(Equal(0))

		Expect(func() {
			owner.Fire(lookup.Succeeded("github.com", net.IPv4(1, 2, 3, 4)))
		}).NotTo(Panic())
	})
})
