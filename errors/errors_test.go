/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package errors_test

import (
	stderr "errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	liberr "github.com/nabbar/zstream/errors"
)

var _ = Describe("TC-ER-001: errors creation & codes", func() {
	Context("TC-ER-010: New", func() {
		It("TC-ER-011: must carry code, message and one frame", func() {
			e := liberr.New(liberr.CodeSrcSizeTooSmall, "have %d need %d", 3, 8)
			Expect(e.Code()).To(Equal(liberr.CodeSrcSizeTooSmall))
			Expect(e.Message()).To(Equal("have 3 need 8"))
			Expect(e.Frames()).To(HaveLen(1))
			Expect(e.Frames()[0].Line).To(BeNumerically(">", 0))
			Expect(e.Context().IsEmpty()).To(BeTrue())
		})

		It("TC-ER-012: description must match the closed taxonomy", func() {
			Expect(liberr.CodeCorruption.Description()).To(Equal("frame content is corrupted"))
			Expect(liberr.CodeHeaderUnknown.Description()).To(Equal("frame header is unknown"))
		})

		It("TC-ER-013: CodeOf must unwrap engine errors", func() {
			e := liberr.New(liberr.CodeGraphInvalid, "bad wiring")
			Expect(liberr.CodeOf(e)).To(Equal(liberr.CodeGraphInvalid))
			Expect(liberr.CodeOf(stderr.New("plain"))).To(Equal(liberr.CodeUnknown))
		})
	})

	Context("TC-ER-020: Forward", func() {
		It("TC-ER-021: must append a frame and keep code and message", func() {
			e := liberr.New(liberr.CodeCorruption, "root cause")
			f := liberr.Forward(e, "while decoding chunk %d", 2)
			Expect(f.Code()).To(Equal(liberr.CodeCorruption))
			Expect(f.Message()).To(Equal("root cause"))
			Expect(f.Frames()).To(HaveLen(2))
			Expect(f.Frames()[1].Message).To(Equal("while decoding chunk 2"))
		})

		It("TC-ER-022: must wrap a plain error under the generic code", func() {
			f := liberr.Forward(stderr.New("boom"), "while opening")
			Expect(f.Code()).To(Equal(liberr.CodeGeneric))
			Expect(f.Unwrap()).To(HaveOccurred())
		})

		It("TC-ER-023: must coerce a logic error in release mode", func() {
			liberr.SetMode(liberr.ModeRelease)
			e := liberr.New(liberr.CodeLogic, "programmer bug")
			f := liberr.Forward(e, "propagated")
			Expect(f.Code()).To(Equal(liberr.CodeGeneric))
		})

		It("TC-ER-024: must panic on a logic error in debug mode", func() {
			liberr.SetMode(liberr.ModeDebug)
			defer liberr.SetMode(liberr.ModeRelease)
			e := liberr.New(liberr.CodeLogic, "programmer bug")
			Expect(func() { _ = liberr.Forward(e, "propagated") }).To(Panic())
		})
	})

	Context("TC-ER-030: operation context", func() {
		It("TC-ER-031: must stamp the active scope onto new errors", func() {
			op := liberr.NewOperationContext()
			ctx := liberr.EmptyGraphContext()
			ctx.Graph = 7
			op.PushScope(ctx)

			inner := liberr.EmptyGraphContext()
			inner.Node = 3
			op.PushScope(inner)

			e := op.New(liberr.CodeNodeInvalidInput, "wrong type")
			Expect(e.Context().Graph).To(Equal(int64(7)))
			Expect(e.Context().Node).To(Equal(int64(3)))
			Expect(e.Context().Transform).To(Equal(liberr.UnsetID))

			op.PopScope()
			op.PopScope()
			Expect(op.Active().IsEmpty()).To(BeTrue())
		})

		It("TC-ER-032: must reuse the slot for a repeated code", func() {
			op := liberr.NewOperationContext()
			e1 := op.New(liberr.CodeCorruption, "first")
			e2 := op.New(liberr.CodeCorruption, "second")
			Expect(e1).To(BeIdenticalTo(e2))
			Expect(e2.Message()).To(Equal("second"))
		})

		It("TC-ER-033: report must combine code, context and reverse trace", func() {
			op := liberr.NewOperationContext()
			ctx := liberr.EmptyGraphContext()
			ctx.Graph, ctx.Node, ctx.Transform = 1, 2, 3
			op.PushScope(ctx)

			e := op.New(liberr.CodeTransformExecution, "codec exploded")
			f := op.Forward(e, "running leaf")
			s := liberr.ContextString(f)

			Expect(s).To(ContainSubstring("transform execution failed"))
			Expect(s).To(ContainSubstring("graph=1 node=2 transform=3"))
			idxOuter := strings.Index(s, "running leaf")
			idxInner := strings.Index(s, "codec exploded")
			Expect(idxOuter).To(BeNumerically(">", 0))
			// outermost forwarding site renders before the creation site
			Expect(idxOuter).To(BeNumerically("<", strings.LastIndex(s, "codec exploded")))
			Expect(idxInner).To(BeNumerically(">", 0))
		})
	})
})
