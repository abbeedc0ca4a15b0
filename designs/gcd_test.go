// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package designs_test

import (
	"math/big"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/db47h/cyclesim/designs"
	"github.com/db47h/cyclesim/tester"
)

var _ = Describe("GCD", func() {
	var bench *tester.SingleBench

	BeforeEach(func() {
		sim, d, err := designs.GCD(16)
		Expect(err).NotTo(HaveOccurred())
		bench = tester.NewSingleBench(d, tester.NewEngineSim(sim))
	})

	peek := func(name string) int64 {
		v, err := bench.PeekBits(name)
		Expect(err).NotTo(HaveOccurred())
		return v.Int64()
	}
	poke := func(name string, v int64) {
		Expect(bench.PokeBits(name, big.NewInt(v))).To(Succeed())
	}

	runGCD := func(a, b int64) int64 {
		Expect(bench.Step("clk", 1)).To(Succeed())
		poke("a", a)
		poke("b", b)
		poke("e", 1)
		Expect(bench.Step("clk", 1)).To(Succeed())
		poke("e", 0)
		for i := 0; i < 200; i++ {
			Expect(bench.Step("clk", 1)).To(Succeed())
			if peek("v") == 1 {
				return peek("z")
			}
		}
		Fail("gcd did not converge")
		return -1
	}

	DescribeTable("computes cycle accurate results",
		func(a, b, want int64) {
			Expect(runGCD(a, b)).To(Equal(want))
		},
		Entry("gcd(12, 18)", int64(12), int64(18), int64(6)),
		Entry("gcd(0, 5)", int64(0), int64(5), int64(5)),
		Entry("gcd(17, 13)", int64(17), int64(13), int64(1)),
		Entry("gcd(30, 18)", int64(30), int64(18), int64(6)),
	)

	It("keeps outputs stable between steps", func() {
		z := runGCD(30, 18)
		Expect(peek("z")).To(Equal(z))
		Expect(peek("v")).To(Equal(int64(1)))
	})

	It("reports coverage annotations through Run", func() {
		sim, d, err := designs.GCD(16)
		Expect(err).NotTo(HaveOccurred())
		cov, err := tester.Run(d, tester.NewEngineSim(sim), func(b tester.Bench) error {
			return b.Step("clk", 5)
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(cov).NotTo(BeEmpty())
		Expect(cov).To(HaveKey("GCD/mux0/0"))
	})
})
