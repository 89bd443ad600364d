package stream_test

import (
	"errors"
	"fmt"
	"syscall"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fiekai/fiekchat/pkg/stream"
)

var _ = Describe("errors", func() {
	It("classifies wrapped errors", func() {
		conn := fmt.Errorf("sending: %w", &stream.ConnectivityError{URL: "http://localhost:5001", Err: syscall.ECONNREFUSED})
		Expect(stream.IsConnectivity(conn)).To(BeTrue())
		Expect(stream.IsServer(conn)).To(BeFalse())
		Expect(errors.Is(conn, syscall.ECONNREFUSED)).To(BeTrue())
		Expect(conn.Error()).To(ContainSubstring("http://localhost:5001"))

		srv := fmt.Errorf("streaming: %w", &stream.ServerError{Status: 503})
		Expect(stream.IsServer(srv)).To(BeTrue())
		Expect(stream.IsTransport(srv)).To(BeFalse())
	})

	It("describes server errors", func() {
		Expect((&stream.ServerError{Message: "Chatbot not initialized"}).Error()).To(Equal("Chatbot not initialized"))
		Expect((&stream.ServerError{Status: 500}).Error()).To(Equal("Backend error: 500"))
		Expect((&stream.ServerError{}).Error()).NotTo(BeEmpty())
	})

	It("exposes partial text", func() {
		Expect(stream.PartialText(&stream.ServerError{Partial: "a"})).To(Equal("a"))
		Expect(stream.PartialText(fmt.Errorf("x: %w", &stream.TransportError{Partial: "b"}))).To(Equal("b"))
		Expect(stream.PartialText(errors.New("other"))).To(BeEmpty())
	})

	It("unwraps malformed record causes", func() {
		cause := errors.New("bad json")
		err := &stream.MalformedRecordError{Line: "data: {", Err: cause}
		Expect(errors.Is(err, cause)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("data: {"))
	})
})

var _ = Describe("ParseEvent", func() {
	It("parses every known kind", func() {
		for _, kind := range []stream.Kind{stream.KindChunk, stream.KindSources, stream.KindDone, stream.KindError} {
			ev, err := stream.ParseEvent(fmt.Sprintf(`{"type":%q,"content":"c"}`, kind))
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Kind).To(Equal(kind))
		}
	})

	It("rejects unknown and missing kinds", func() {
		for _, payload := range []string{`{"type":"ping"}`, `{}`, `null`, `[]`, `{"type":1}`} {
			_, err := stream.ParseEvent(payload)
			Expect(err).To(HaveOccurred(), payload)
		}
	})
})
