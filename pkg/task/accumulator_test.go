package task

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/keepgogogo/polyglot/pkg/chat"
)

// deltaChunk builds a streaming chunk carrying the given delta text.
func deltaChunk(text string) chat.Chunk {
	return chat.Chunk{Choices: []chat.ChunkChoice{{Delta: chat.Delta{Content: text}}}}
}

var _ = Describe("Accumulator", func() {
	var acc *Accumulator

	BeforeEach(func() {
		acc = New()
	})

	Describe("ApplyChunk", func() {
		It("appends delta text in application order", func() {
			acc.ApplyChunk(deltaChunk("Hel"))
			acc.ApplyChunk(deltaChunk("lo"))
			acc.ApplyChunk(deltaChunk(" world"))

			Expect(acc.Text()).To(Equal("Hello world"))
			Expect(acc.Status()).To(Equal(StatusPending))
		})

		It("accepts a chunk with no content without changing the text", func() {
			acc.ApplyChunk(deltaChunk("abc"))
			acc.ApplyChunk(chat.Chunk{})

			Expect(acc.Text()).To(Equal("abc"))
		})
	})

	Describe("Complete", func() {
		It("marks the task successful", func() {
			acc.ApplyChunk(deltaChunk("done"))
			acc.Complete()

			Expect(acc.Status()).To(Equal(StatusSuccess))
			Expect(acc.Text()).To(Equal("done"))
		})

		It("freezes the result against further chunks", func() {
			acc.ApplyChunk(deltaChunk("final"))
			acc.Complete()
			acc.ApplyChunk(deltaChunk(" straggler"))

			Expect(acc.Text()).To(Equal("final"))
		})

		It("is idempotent", func() {
			acc.Complete()
			acc.Complete()
			Expect(acc.Status()).To(Equal(StatusSuccess))
		})
	})

	Describe("Text", func() {
		It("strips one leading double newline", func() {
			acc.ApplyChunk(deltaChunk("\n\nBonjour"))
			Expect(acc.Text()).To(Equal("Bonjour"))
		})

		It("strips only the first occurrence", func() {
			acc.ApplyChunk(deltaChunk("\n\n\n\nBonjour"))
			Expect(acc.Text()).To(Equal("\n\nBonjour"))
		})

		It("handles the trim arriving across separate chunks", func() {
			acc.ApplyChunk(deltaChunk("\n"))
			acc.ApplyChunk(deltaChunk("\n"))
			acc.ApplyChunk(deltaChunk("salut"))
			Expect(acc.Text()).To(Equal("salut"))
		})

		It("leaves interior double newlines alone", func() {
			acc.ApplyChunk(deltaChunk("para one\n\npara two"))
			Expect(acc.Text()).To(Equal("para one\n\npara two"))
		})

		It("is idempotent across repeated calls", func() {
			acc.ApplyChunk(deltaChunk("\n\ntext"))
			Expect(acc.Text()).To(Equal(acc.Text()))
		})
	})

	Describe("ApplyDocument", func() {
		It("completes with the document content on success", func() {
			doc := []byte(`{"choices":[{"message":{"role":"assistant","content":"Hallo Welt"}}]}`)

			Expect(acc.ApplyDocument(doc)).To(Succeed())
			Expect(acc.Status()).To(Equal(StatusSuccess))
			Expect(acc.Text()).To(Equal("Hallo Welt"))
		})

		It("strips a leading double newline from the document content", func() {
			doc := []byte(`{"choices":[{"message":{"content":"\n\nHallo"}}]}`)

			Expect(acc.ApplyDocument(doc)).To(Succeed())
			Expect(acc.Text()).To(Equal("Hallo"))
		})

		It("fails with a placeholder result on malformed JSON", func() {
			err := acc.ApplyDocument([]byte("this is not json"))

			Expect(err).To(HaveOccurred())
			Expect(acc.Status()).To(Equal(StatusFail))
			Expect(acc.Text()).To(Equal("Translating..."))
		})

		It("fails with ErrMissingContent when the document has no choices", func() {
			err := acc.ApplyDocument([]byte(`{"choices":[]}`))

			Expect(err).To(MatchError(ErrMissingContent))
			Expect(acc.Status()).To(Equal(StatusFail))
		})

		It("is a no-op after the task is terminal", func() {
			acc.Complete()
			Expect(acc.ApplyDocument([]byte("garbage"))).To(Succeed())
			Expect(acc.Status()).To(Equal(StatusSuccess))
		})
	})

	Describe("FailTransport", func() {
		It("records a diagnostic result embedding the status code", func() {
			err := acc.FailTransport(502)

			Expect(acc.Status()).To(Equal(StatusFail))
			Expect(acc.Text()).To(ContainSubstring("502"))

			terr, ok := IsTransportError(err)
			Expect(ok).To(BeTrue())
			Expect(terr.StatusCode).To(Equal(502))
		})

		It("does not disturb a task that already completed", func() {
			acc.ApplyChunk(deltaChunk("ok"))
			acc.Complete()

			Expect(acc.FailTransport(500)).To(BeNil())
			Expect(acc.Status()).To(Equal(StatusSuccess))
			Expect(acc.Text()).To(Equal("ok"))
		})
	})

	Describe("WithLocale", func() {
		It("localizes the failure placeholder", func() {
			acc = New(WithLocale("fr"))
			_ = acc.ApplyDocument([]byte("not json"))
			Expect(acc.Text()).To(Equal("Traduction en cours..."))
		})

		It("matches the base language of a regional tag", func() {
			acc = New(WithLocale("de-AT"))
			_ = acc.ApplyDocument([]byte("not json"))
			Expect(acc.Text()).To(Equal("Übersetzung läuft..."))
		})

		It("falls back to English for unknown locales", func() {
			acc = New(WithLocale("tlh"))
			_ = acc.ApplyDocument([]byte("not json"))
			Expect(acc.Text()).To(Equal("Translating..."))
		})
	})

	Describe("WithNotify", func() {
		type event struct {
			text   string
			status Status
		}

		It("reports every state change with the exposed text", func() {
			var events []event
			acc = New(WithNotify(func(text string, status Status) {
				events = append(events, event{text, status})
			}))

			acc.ApplyChunk(deltaChunk("\n\nHi"))
			acc.ApplyChunk(deltaChunk(" there"))
			acc.Complete()

			Expect(events).To(Equal([]event{
				{"Hi", StatusPending},
				{"Hi there", StatusPending},
				{"Hi there", StatusSuccess},
			}))
		})

		It("stays silent for applies after the terminal state", func() {
			count := 0
			acc = New(WithNotify(func(string, Status) { count++ }))

			acc.Complete()
			acc.ApplyChunk(deltaChunk("late"))
			acc.Complete()

			Expect(count).To(Equal(1))
		})

		It("reports the failure placeholder on document parse failure", func() {
			var last event
			acc = New(WithNotify(func(text string, status Status) {
				last = event{text, status}
			}))

			_ = acc.ApplyDocument([]byte("not json"))

			Expect(last.status).To(Equal(StatusFail))
			Expect(last.text).To(Equal("Translating..."))
		})
	})
})
