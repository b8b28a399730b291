package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/keepgogogo/polyglot/pkg/logger"
)

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("creates a default text logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("hello", "key", "value")

			output := buf.String()
			Expect(output).To(ContainSubstring("hello"))
			Expect(output).To(ContainSubstring("key"))
			Expect(output).To(ContainSubstring("value"))
		})

		It("respects debug level", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
			l.Debug("debug msg")

			Expect(buf.String()).To(ContainSubstring("debug msg"))
		})

		It("filters debug when not enabled", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(false))
			l.Debug("hidden")

			Expect(buf.String()).To(BeEmpty())
		})

		It("creates a JSON logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Info("structured", "count", 42)

			var parsed map[string]any
			err := json.Unmarshal(buf.Bytes(), &parsed)
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed["msg"]).To(Equal("structured"))
			Expect(parsed["count"]).To(BeNumerically("==", 42))
		})

		It("creates a pretty logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true))
			l.Info("pretty output")

			Expect(buf.String()).To(ContainSubstring("pretty output"))
		})

		It("supports multiple writers", func() {
			var buf1, buf2 bytes.Buffer
			l := logger.New(logger.WithWriters(&buf1, &buf2))
			l.Info("multi")

			Expect(buf1.String()).To(ContainSubstring("multi"))
			Expect(buf2.String()).To(ContainSubstring("multi"))
		})
	})

	Describe("Multi", func() {
		It("dispatches to all loggers", func() {
			var buf1, buf2 bytes.Buffer
			l1 := logger.New(logger.WithWriter(&buf1))
			l2 := logger.New(logger.WithWriter(&buf2))
			multi := logger.Multi(l1, l2)

			multi.Info("broadcast", "key", "val")

			Expect(buf1.String()).To(ContainSubstring("broadcast"))
			Expect(buf2.String()).To(ContainSubstring("broadcast"))
		})

		It("respects each handler's level independently", func() {
			var quiet, chatty bytes.Buffer
			multi := logger.Multi(
				logger.New(logger.WithWriter(&quiet)),
				logger.New(logger.WithWriter(&chatty), logger.WithDebug(true)),
			)

			multi.Debug("verbose detail")

			Expect(quiet.String()).To(BeEmpty())
			Expect(chatty.String()).To(ContainSubstring("verbose detail"))
		})

		It("supports With on the fanned-out logger", func() {
			var buf bytes.Buffer
			multi := logger.Multi(logger.New(logger.WithWriter(&buf)))

			multi.With("request_id", "abc").Info("tagged")

			Expect(buf.String()).To(ContainSubstring("request_id"))
			Expect(buf.String()).To(ContainSubstring("abc"))
		})
	})

	Describe("NewZapWithWriters", func() {
		It("writes through the provided writer", func() {
			var buf bytes.Buffer
			l := logger.NewZapWithWriters(false, &buf)
			l.Info("zap message")
			_ = l.Sync()

			Expect(buf.String()).To(ContainSubstring("zap message"))
		})

		It("filters debug when not enabled", func() {
			var buf bytes.Buffer
			l := logger.NewZapWithWriters(false, &buf)
			l.Debug("hidden")
			_ = l.Sync()

			Expect(buf.String()).To(BeEmpty())
		})

		It("emits debug when enabled", func() {
			var buf bytes.Buffer
			l := logger.NewZapWithWriters(true, &buf)
			l.Debug("visible")
			_ = l.Sync()

			Expect(buf.String()).To(ContainSubstring("visible"))
		})
	})

	Describe("Nop", func() {
		It("does not panic on any method", func() {
			l := logger.Nop()
			Expect(func() {
				l.Debug("msg")
				l.Info("msg")
				l.Warn("msg")
				l.Error("msg")
			}).NotTo(Panic())
		})
	})
})
