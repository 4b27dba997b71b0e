package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/simtsim/timing/memctrl"
	"github.com/sarchlab/simtsim/timing/pipeline"
)

var _ = Describe("FetchUnit", func() {
	var (
		fetch *pipeline.FetchUnit
		none  memctrl.Response
	)

	BeforeEach(func() {
		fetch = pipeline.NewFetchUnit()
		none = memctrl.Response{}
	})

	It("should start idle with no request", func() {
		Expect(fetch.State()).To(Equal(pipeline.FetchIdle))
		Expect(fetch.Request().Valid).To(BeFalse())
		Expect(fetch.Ready()).To(BeFalse())
	})

	It("should request the PC in the Fetch stage", func() {
		fetch.Tick(pipeline.StageFetch, true, 12, none)

		Expect(fetch.State()).To(Equal(pipeline.FetchRequesting))
		Expect(fetch.Request()).To(Equal(memctrl.Request{Valid: true, Addr: 12}))
	})

	It("should ignore the Fetch stage of another warp", func() {
		fetch.Tick(pipeline.StageFetch, false, 12, none)

		Expect(fetch.State()).To(Equal(pipeline.FetchIdle))
	})

	It("should hold the request until acknowledged", func() {
		fetch.Tick(pipeline.StageFetch, true, 3, none)
		for i := 0; i < 4; i++ {
			fetch.Tick(pipeline.StageFetch, true, 3, none)
			Expect(fetch.Request().Valid).To(BeTrue())
		}

		fetch.Tick(pipeline.StageFetch, true, 3, memctrl.Response{Ready: true, Data: 0xF000})

		Expect(fetch.Ready()).To(BeTrue())
		Expect(fetch.Instruction()).To(Equal(uint16(0xF000)))
		Expect(fetch.Request().Valid).To(BeFalse())
	})

	It("should complete a request even when its warp is switched out", func() {
		fetch.Tick(pipeline.StageFetch, true, 3, none)
		fetch.Tick(pipeline.StageFetch, false, 9, memctrl.Response{Ready: true, Data: 7})

		Expect(fetch.Ready()).To(BeTrue())
	})

	It("should be released by the Decode stage and keep the word", func() {
		fetch.Tick(pipeline.StageFetch, true, 3, none)
		fetch.Tick(pipeline.StageFetch, true, 3, memctrl.Response{Ready: true, Data: 0x9105})
		fetch.Tick(pipeline.StageDecode, true, 3, none)

		Expect(fetch.State()).To(Equal(pipeline.FetchIdle))
		Expect(fetch.Instruction()).To(Equal(uint16(0x9105)))
	})

	It("should drop everything on reset", func() {
		fetch.Tick(pipeline.StageFetch, true, 3, none)
		fetch.Tick(pipeline.StageFetch, true, 3, memctrl.Response{Ready: true, Data: 1})
		fetch.Reset()

		Expect(fetch.State()).To(Equal(pipeline.FetchIdle))
		Expect(fetch.Instruction()).To(BeZero())
	})
})
