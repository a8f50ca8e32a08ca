package hook_test

import (
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"code.cloudfoundry.org/lager"

	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/hook"
	h "github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/testhelpers"
)

var _ = Describe("Tap", func() {
	var (
		tap    *hook.Tap
		logger lager.Logger

		seen   []hook.Resource
		seenMu sync.Mutex

		record hook.InitFunc

		resourcesAnnouncedTotal float64
		callbackPanicsTotal     float64
	)

	BeforeEach(func() {
		logger = lager.NewLogger("tap-test")
		logger.RegisterSink(lager.NewWriterSink(GinkgoWriter, lager.INFO))

		tap = hook.NewTap(logger)

		seen = make([]hook.Resource, 0)
		record = func(r hook.Resource) {
			seenMu.Lock()
			defer seenMu.Unlock()
			seen = append(seen, r)
		}

		By("setting the metric values before each test")
		resourcesAnnouncedTotal = h.CurrentMetricValue(hook.HookResourcesAnnouncedTotal)
		callbackPanicsTotal = h.CurrentMetricValue(hook.HookCallbackPanicsTotal)
	})

	announce := func(kind hook.Kind) {
		tap.Announce(hook.Resource{ID: tap.NextID(), Kind: kind})
	}

	It("should hand out increasing resource ids", func() {
		first := tap.NextID()
		second := tap.NextID()
		Expect(second).To(BeNumerically(">", first))
	})

	It("should not call hooks which have not been enabled", func() {
		tap.NewHook(record)

		announce(hook.KindTCPConnect)

		Expect(seen).To(BeEmpty())
		Expect(tap.ActiveHooks()).To(Equal(0))
	})

	It("should call enabled hooks for every resource", func() {
		hk := tap.NewHook(record)
		hk.Enable()
		Expect(hk.Enabled()).To(BeTrue())

		announce(hook.KindTCPConnect)
		announce(hook.KindTimer)

		Expect(seen).To(HaveLen(2))
		Expect(seen[0].Kind).To(Equal(hook.KindTCPConnect))
		Expect(seen[1].Kind).To(Equal(hook.KindTimer))

		By("checking the metrics")
		Expect(hook.HookResourcesAnnouncedTotal).To(
			h.MetricIncrementedBy(resourcesAnnouncedTotal, "==", 2),
		)
	})

	It("should remove disabled hooks from the tap", func() {
		hk := tap.NewHook(record)

		By("enabling twice")
		hk.Enable()
		hk.Enable()
		Expect(tap.ActiveHooks()).To(Equal(1))

		By("disabling twice")
		hk.Disable()
		hk.Disable()
		Expect(hk.Enabled()).To(BeFalse())
		Expect(tap.ActiveHooks()).To(Equal(0))

		announce(hook.KindTCPConnect)
		Expect(seen).To(BeEmpty())

		By("enabling again")
		hk.Enable()
		announce(hook.KindTCPConnect)
		Expect(seen).To(HaveLen(1))
	})

	It("should keep hooks of different subscribers independent", func() {
		other := make([]hook.Resource, 0)

		first := tap.NewHook(record)
		second := tap.NewHook(func(r hook.Resource) { other = append(other, r) })

		first.Enable()
		second.Enable()
		announce(hook.KindTCPConnect)

		first.Disable()
		announce(hook.KindTCPConnect)

		Expect(seen).To(HaveLen(1))
		Expect(other).To(HaveLen(2))
	})

	It("should not let a panicking hook reach the announcer", func() {
		tap.NewHook(func(hook.Resource) { panic("boom") }).Enable()
		tap.NewHook(record).Enable()

		Expect(func() { announce(hook.KindTCPConnect) }).NotTo(Panic())

		By("still calling the other hooks")
		Expect(seen).To(HaveLen(1))

		By("checking the metrics")
		Expect(hook.HookCallbackPanicsTotal).To(
			h.MetricIncrementedBy(callbackPanicsTotal, "==", 1),
		)
	})

	It("should allow enabling and disabling while announcing", func() {
		hk := tap.NewHook(record)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				hk.Enable()
				hk.Disable()
			}()
			go func() {
				defer wg.Done()
				announce(hook.KindTCPConnect)
			}()
		}
		wg.Wait()

		Expect(hk.Enabled()).To(BeFalse())
		Expect(tap.ActiveHooks()).To(Equal(0))
	})
})

var _ = Describe("FilterKind", func() {
	It("should only pass resources of the requested kind", func() {
		kinds := make([]hook.Kind, 0)
		filtered := hook.FilterKind(hook.KindTCPConnect, func(r hook.Resource) {
			kinds = append(kinds, r.Kind)
		})

		for _, kind := range []hook.Kind{
			hook.KindTimer,
			hook.KindFileIO,
			hook.KindTCPConnect,
			hook.KindUDPConnect,
			hook.KindTLSHandshake,
		} {
			filtered(hook.Resource{Kind: kind})
		}

		Expect(kinds).To(Equal([]hook.Kind{hook.KindTCPConnect}))
	})
})
