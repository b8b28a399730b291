package translate

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Messages", func() {
	It("builds a system prompt and a user instruction", func() {
		msgs := Messages("Bonjour", "French", "English")

		Expect(msgs).To(HaveLen(2))
		Expect(msgs[0].Role).To(Equal("system"))
		Expect(msgs[0].Content).To(ContainSubstring("translation engine"))
		Expect(msgs[1].Role).To(Equal("user"))
		Expect(msgs[1].Content).To(ContainSubstring("from French into English"))
		Expect(msgs[1].Content).To(ContainSubstring("Bonjour"))
	})

	It("omits the source language when empty, leaving detection to the model", func() {
		msgs := Messages("Hola", "", "German")

		Expect(msgs[1].Content).To(ContainSubstring("into German"))
		Expect(msgs[1].Content).NotTo(ContainSubstring("from"))
	})
})
