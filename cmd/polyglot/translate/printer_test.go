package translatecmder

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/keepgogogo/polyglot/pkg/chat"
	"github.com/keepgogogo/polyglot/pkg/task"
)

func deltaChunk(text string) chat.Chunk {
	return chat.Chunk{
		Choices: []chat.ChunkChoice{
			{Delta: chat.Delta{Content: text}},
		},
	}
}

var _ = Describe("streamPrinter", func() {
	var buf bytes.Buffer
	var acc *task.Accumulator

	BeforeEach(func() {
		buf.Reset()
		acc = task.New(task.WithNotify(streamPrinter(&buf)))
	})

	It("prints the translation as it grows", func() {
		acc.ApplyChunk(deltaChunk("Hi"))
		acc.ApplyChunk(deltaChunk(" there"))
		acc.Complete()

		Expect(buf.String()).To(Equal("Hi there"))
	})

	It("prints the full text when the blank-line prefix arrives split across chunks", func() {
		acc.ApplyChunk(deltaChunk("\n"))
		acc.ApplyChunk(deltaChunk("\n"))
		acc.ApplyChunk(deltaChunk("Hi"))
		acc.ApplyChunk(deltaChunk(" there"))
		acc.Complete()

		Expect(buf.String()).To(Equal("Hi there"))
	})

	It("preserves a single leading newline that is part of the result", func() {
		acc.ApplyChunk(deltaChunk("\n"))
		acc.ApplyChunk(deltaChunk("Hello"))
		acc.Complete()

		Expect(buf.String()).To(Equal("\nHello"))
	})

	It("prints nothing extra when the trimmed prefix arrives in one chunk", func() {
		acc.ApplyChunk(deltaChunk("\n\nBonjour"))
		acc.Complete()

		Expect(buf.String()).To(Equal("Bonjour"))
	})

	It("does not print the failure placeholder", func() {
		acc.ApplyChunk(deltaChunk("Gu"))
		_ = acc.FailTransport(500)

		Expect(buf.String()).To(Equal("Gu"))
	})
})
