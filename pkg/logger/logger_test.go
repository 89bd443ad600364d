package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fiekai/fiekchat/pkg/logger"
)

func parseJSONLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)
	Expect(err).NotTo(HaveOccurred())
	return parsed
}

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("writes text records", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf))
			l.Info("request sent", "request_id", "abc")

			output := buf.String()
			Expect(output).To(ContainSubstring("request sent"))
			Expect(output).To(ContainSubstring("request_id=abc"))
		})

		It("emits debug records when debug is on", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
			l.Debug("skipping malformed record")

			Expect(buf.String()).To(ContainSubstring("skipping malformed record"))
		})

		It("drops debug records by default", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(false))
			l.Debug("hidden")

			Expect(buf.String()).To(BeEmpty())
		})

		It("writes JSON records", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Info("turn completed", "malformed", 2)

			parsed := parseJSONLine(&buf)
			Expect(parsed["msg"]).To(Equal("turn completed"))
			Expect(parsed["malformed"]).To(BeNumerically("==", 2))
		})

		It("prefers JSON over pretty", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithPretty(true))
			l.Info("both")

			Expect(parseJSONLine(&buf)["msg"]).To(Equal("both"))
		})

		It("writes pretty records", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithPretty(true), logger.WithDebug(true))
			l.Debug("pretty output", "status", 200)

			Expect(buf.String()).To(ContainSubstring("pretty output"))
			Expect(buf.String()).To(ContainSubstring("200"))
		})

		It("fans out to multiple writers", func() {
			var buf1, buf2 bytes.Buffer
			l := logger.New(logger.WithWriters(&buf1, &buf2))
			l.Info("multi")

			Expect(buf1.String()).To(ContainSubstring("multi"))
			Expect(buf2.String()).To(ContainSubstring("multi"))
		})

		It("includes the source location when asked", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithSource(true))
			l.Info("located")

			Expect(parseJSONLine(&buf)).To(HaveKey("source"))
		})
	})

	Describe("Nop", func() {
		It("is disabled at every level", func() {
			l := logger.Nop()
			for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelError} {
				Expect(l.Handler().Enabled(context.Background(), level)).To(BeFalse())
			}
		})

		It("does not panic when used", func() {
			l := logger.Nop()
			Expect(func() {
				l.With("key", "value").WithGroup("group").Error("msg", logger.Err(errors.New("x")))
			}).NotTo(Panic())
		})
	})

	Describe("OrNop", func() {
		It("substitutes a nil logger", func() {
			Expect(logger.OrNop(nil)).NotTo(BeNil())
		})

		It("keeps a provided logger", func() {
			l := logger.New()
			Expect(logger.OrNop(l)).To(BeIdenticalTo(l))
		})
	})

	Describe("Err", func() {
		It("logs the error under the error key", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Warn("publish failed", logger.Err(errors.New("broker down")))

			Expect(parseJSONLine(&buf)["error"]).To(Equal("broker down"))
		})
	})

	Describe("Multi", func() {
		It("dispatches to all loggers", func() {
			var buf1, buf2 bytes.Buffer
			multi := logger.Multi(
				logger.New(logger.WithWriter(&buf1)),
				logger.New(logger.WithWriter(&buf2), logger.WithJSON(true)),
			)

			multi.Info("broadcast", "key", "val")

			Expect(buf1.String()).To(ContainSubstring("broadcast"))
			Expect(parseJSONLine(&buf2)["key"]).To(Equal("val"))
		})

		It("respects each logger's level", func() {
			var quiet, verbose bytes.Buffer
			multi := logger.Multi(
				logger.New(logger.WithWriter(&quiet)),
				logger.New(logger.WithWriter(&verbose), logger.WithDebug(true)),
			)

			multi.Debug("details")

			Expect(quiet.String()).To(BeEmpty())
			Expect(verbose.String()).To(ContainSubstring("details"))
		})

		It("carries With and WithGroup attributes", func() {
			var buf bytes.Buffer
			multi := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))

			multi.With("component", "chatapi").WithGroup("request").Info("sent", "method", "POST")

			parsed := parseJSONLine(&buf)
			Expect(parsed["component"]).To(Equal("chatapi"))
			group, ok := parsed["request"].(map[string]any)
			Expect(ok).To(BeTrue(), "expected 'request' group in JSON output")
			Expect(group["method"]).To(Equal("POST"))
		})
	})
})
