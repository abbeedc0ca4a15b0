// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package designs_test

import (
	"math/big"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/db47h/cyclesim/designs"
	"github.com/db47h/cyclesim/tester"
)

// countingSim wraps a simulator and counts the pokes that actually reach it.
type countingSim struct {
	tester.Simulator
	pokes int
}

func (c *countingSim) Poke(name string, v *big.Int) error {
	c.pokes++
	return c.Simulator.Poke(name, v)
}

var _ = Describe("poke coalescing and timeouts", func() {
	var (
		bench *tester.SingleBench
		sim   *countingSim
	)

	BeforeEach(func() {
		s, d, err := designs.Counter(16)
		Expect(err).NotTo(HaveOccurred())
		sim = &countingSim{Simulator: tester.NewEngineSim(s)}
		bench = tester.NewSingleBench(d, sim)
	})

	It("forwards one poke for fifty identical ones, then times out", func() {
		Expect(bench.SetTimeout("clk", 100)).To(Succeed())
		for i := 0; i < 50; i++ {
			Expect(bench.PokeBits("d", big.NewInt(3))).To(Succeed())
			Expect(bench.Step("clk", 1)).To(Succeed())
		}
		Expect(sim.pokes).To(Equal(1), "coalesced pokes do not reach the simulator")

		// coalesced pokes did not reset the idle counter, so the timeout
		// fires 100 cycles after the single real poke
		err := bench.Step("clk", 100)
		var to *tester.TimeoutError
		Expect(errors.As(err, &to)).To(BeTrue())
		n, _ := bench.StepCount("clk")
		Expect(n).To(Equal(100))
	})

	It("raises the timeout exactly at the idle limit", func() {
		Expect(bench.SetTimeout("clk", 10)).To(Succeed())
		Expect(bench.Step("clk", 9)).To(Succeed())
		err := bench.Step("clk", 1)
		var to *tester.TimeoutError
		Expect(errors.As(err, &to)).To(BeTrue())
		Expect(to.Cycles).To(Equal(10))
	})

	It("needs a full idle window again after a value changing poke", func() {
		Expect(bench.SetTimeout("clk", 10)).To(Succeed())
		Expect(bench.Step("clk", 5)).To(Succeed())
		Expect(bench.PokeBits("d", big.NewInt(7))).To(Succeed())
		Expect(bench.Step("clk", 9)).To(Succeed())
		err := bench.Step("clk", 1)
		var to *tester.TimeoutError
		Expect(errors.As(err, &to)).To(BeTrue())
	})
})

var _ = Describe("threaded bench", func() {
	It("wakes forked threads in fork order", func() {
		s, d, err := designs.GCD(16)
		Expect(err).NotTo(HaveOccurred())
		var log []string
		_, err = tester.RunThreaded(d, tester.NewEngineSim(s), func(b tester.Bench) error {
			a, err := b.Fork("a", func() error {
				if err := b.Step("clk", 3); err != nil {
					return err
				}
				log = append(log, "a")
				return nil
			})
			if err != nil {
				return err
			}
			bid, err := b.Fork("b", func() error {
				if err := b.Step("clk", 3); err != nil {
					return err
				}
				log = append(log, "b")
				return nil
			})
			if err != nil {
				return err
			}
			return b.Join([]int{a, bid}, 0)
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(log).To(Equal([]string{"a", "b"}))
	})

	It("rejects same tick cross thread accesses", func() {
		s, d, err := designs.Adder(16)
		Expect(err).NotTo(HaveOccurred())
		var childErr error
		_, err = tester.RunThreaded(d, tester.NewEngineSim(s), func(b tester.Bench) error {
			if err := b.PokeBits("a", big.NewInt(1)); err != nil {
				return err
			}
			_, ferr := b.Fork("reader", func() error {
				// sum combinationally depends on the freshly poked a
				_, childErr = b.PeekBits("sum")
				return nil
			})
			return ferr
		})
		Expect(err).NotTo(HaveOccurred())
		var toe *tester.ThreadOrderError
		Expect(errors.As(childErr, &toe)).To(BeTrue())
		Expect(toe.Conflict).To(Equal(tester.ConflictPokeOnDependent))
	})

	It("detects join cycles as deadlock", func() {
		s, d, err := designs.GCD(16)
		Expect(err).NotTo(HaveOccurred())
		_, err = tester.RunThreaded(d, tester.NewEngineSim(s), func(b tester.Bench) error {
			var aID, bID int
			aID, err := b.Fork("a", func() error {
				if err := b.Step("clk", 1); err != nil {
					return err
				}
				return b.Join([]int{bID}, 0)
			})
			if err != nil {
				return err
			}
			bID, err = b.Fork("b", func() error {
				if err := b.Step("clk", 1); err != nil {
					return err
				}
				return b.Join([]int{aID}, 0)
			})
			if err != nil {
				return err
			}
			return b.Join([]int{aID}, 0)
		})
		Expect(errors.Cause(err)).To(MatchError(tester.ErrDeadlock))
	})
})

var _ = Describe("RAM", func() {
	var bench *tester.SingleBench

	BeforeEach(func() {
		s, d, err := designs.RAM(8, 4)
		Expect(err).NotTo(HaveOccurred())
		bench = tester.NewSingleBench(d, tester.NewEngineSim(s))
	})

	poke := func(name string, v int64) {
		Expect(bench.PokeBits(name, big.NewInt(v))).To(Succeed())
	}
	peek := func(name string) int64 {
		v, err := bench.PeekBits(name)
		Expect(err).NotTo(HaveOccurred())
		return v.Int64()
	}

	It("stores and reads back elements", func() {
		poke("wen", 1)
		poke("waddr", 3)
		poke("wdata", 0x5a)
		poke("raddr", 3)
		Expect(bench.Step("clk", 1)).To(Succeed())
		Expect(peek("rdata")).To(Equal(int64(0x5a)))

		// other elements are untouched
		poke("raddr", 2)
		Expect(bench.Step("clk", 1)).To(Succeed())
		Expect(peek("rdata")).To(Equal(int64(0)))

		// writes are gated by wen
		poke("wen", 0)
		poke("waddr", 1)
		poke("wdata", 0x77)
		poke("raddr", 1)
		Expect(bench.Step("clk", 1)).To(Succeed())
		Expect(peek("rdata")).To(Equal(int64(0)))
	})
})

var _ = Describe("Accumulator", func() {
	It("sums in the arbitrary precision class", func() {
		s, d, err := designs.Accumulator()
		Expect(err).NotTo(HaveOccurred())
		bench := tester.NewSingleBench(d, tester.NewEngineSim(s))

		din := new(big.Int).Lsh(big.NewInt(1), 79)
		Expect(bench.PokeBits("din", din)).To(Succeed())
		Expect(bench.Step("clk", 1)).To(Succeed())
		total, err := bench.PeekBits("total")
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(din))

		// the poked value stays on the input: the accumulator keeps adding
		Expect(bench.Step("clk", 1)).To(Succeed())
		total, _ = bench.PeekBits("total")
		Expect(total).To(Equal(new(big.Int).Lsh(big.NewInt(1), 80)))

		low, _ := bench.PeekBits("low")
		Expect(low.Sign()).To(BeZero())
		hi, _ := bench.PeekBits("hi")
		Expect(hi.Sign()).To(BeZero())

		// 2^16 additions of 2^79 reach bit 95
		for i := 0; i < (1 << 16) - 2; i++ {
			Expect(bench.Step("clk", 1)).To(Succeed())
		}
		hi, _ = bench.PeekBits("hi")
		Expect(hi.Int64()).To(Equal(int64(1)))
	})
})
