package memctrl_test

import (
	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/simtsim/timing/memctrl"
)

var _ = Describe("Store", func() {
	var (
		mockCtrl *gomock.Controller
		backing  *MockBacking
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		backing = NewMockBacking(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should answer a read after one cycle", func() {
		store := memctrl.NewStore(backing, 1, 1)
		backing.EXPECT().Read(uint8(9)).Return(uint16(42)).Times(1)

		store.Tick([]memctrl.Request{{Valid: true, Addr: 9}})

		Expect(store.Response(0)).To(Equal(memctrl.Response{Ready: true, Data: 42}))
	})

	It("should perform a held request exactly once", func() {
		store := memctrl.NewStore(backing, 1, 1)
		backing.EXPECT().Write(uint8(3), uint16(7)).Times(1)

		req := []memctrl.Request{{Valid: true, Write: true, Addr: 3, Data: 7}}
		for i := 0; i < 5; i++ {
			store.Tick(req)
			Expect(store.Response(0).Ready).To(BeTrue())
		}
	})

	It("should wait for the configured latency", func() {
		store := memctrl.NewStore(backing, 1, 3)
		backing.EXPECT().Read(uint8(1)).Return(uint16(5))

		req := []memctrl.Request{{Valid: true, Addr: 1}}
		store.Tick(req)
		Expect(store.Response(0).Ready).To(BeFalse())
		store.Tick(req)
		Expect(store.Response(0).Ready).To(BeFalse())
		store.Tick(req)
		Expect(store.Response(0)).To(Equal(memctrl.Response{Ready: true, Data: 5}))
	})

	It("should drop Ready once the request is withdrawn", func() {
		store := memctrl.NewStore(backing, 1, 1)
		backing.EXPECT().Read(uint8(0)).Return(uint16(1)).Times(2)

		store.Tick([]memctrl.Request{{Valid: true}})
		store.Tick([]memctrl.Request{{}})
		Expect(store.Response(0).Ready).To(BeFalse())

		store.Tick([]memctrl.Request{{Valid: true}})
		Expect(store.Response(0).Ready).To(BeTrue())
	})

	It("should serve channels independently", func() {
		store := memctrl.NewStore(backing, 2, 1)
		backing.EXPECT().Read(uint8(4)).Return(uint16(40))
		backing.EXPECT().Write(uint8(5), uint16(50))

		store.Tick([]memctrl.Request{
			{Valid: true, Addr: 4},
			{Valid: true, Write: true, Addr: 5, Data: 50},
		})

		Expect(store.Responses()).To(Equal([]memctrl.Response{
			{Ready: true, Data: 40},
			{Ready: true},
		}))
	})

	It("should clamp latency to at least one cycle", func() {
		store := memctrl.NewStore(backing, 1, 0)
		Expect(store.Latency()).To(Equal(1))
	})

	It("should forget in-flight requests on reset", func() {
		store := memctrl.NewStore(backing, 1, 2)
		store.Tick([]memctrl.Request{{Valid: true, Addr: 2}})
		store.Reset()

		Expect(store.Response(0)).To(Equal(memctrl.Response{}))
	})
})
