package chatapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/fiekai/fiekchat/pkg/chatapi"
	"github.com/fiekai/fiekchat/pkg/stream"
)

// streamLines writes each line as its own flushed chunk.
func streamLines(w http.ResponseWriter, lines ...string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	flusher := w.(http.Flusher)
	for _, line := range lines {
		_, _ = fmt.Fprint(w, line)
		flusher.Flush()
	}
}

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		mux      *http.ServeMux
		client   *chatapi.Client
		received chatapi.ChatRequest
		ctx      context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		received = chatapi.ChatRequest{}
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)

		var err error
		client, err = chatapi.NewClient(chatapi.Config{BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	decodeRequest := func(r *http.Request) {
		defer GinkgoRecover()
		Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))
		Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
	}

	Describe("NewClient", func() {
		It("requires a base URL", func() {
			_, err := chatapi.NewClient(chatapi.Config{})
			Expect(err).To(HaveOccurred())
		})

		It("rejects non-HTTP schemes", func() {
			_, err := chatapi.NewClient(chatapi.Config{BaseURL: "ftp://fiek.uni-pr.edu"})
			Expect(err).To(HaveOccurred())
		})

		It("trims a trailing slash", func() {
			c, err := chatapi.NewClient(chatapi.Config{BaseURL: "https://fiek-ai-chatbot.onrender.com/"})
			Expect(err).NotTo(HaveOccurred())
			Expect(c.BaseURL()).To(Equal("https://fiek-ai-chatbot.onrender.com"))
		})
	})

	Describe("Stream", func() {
		It("streams the assembled reply", func() {
			mux.HandleFunc("POST /api/chat/stream", func(w http.ResponseWriter, r *http.Request) {
				decodeRequest(r)
				streamLines(w,
					"data: {\"type\":\"chunk\",\"content\":\"Provimet \"}\n",
					"data: {\"type\":\"chunk\",\"con",
					"tent\":\"fillojnë në qershor.\"}\n",
					"data: {\"type\":\"done\"}\n",
				)
			})

			history := []chatapi.Message{{Role: chatapi.RoleUser, Content: "Kur fillojnë provimet?"}}
			task, err := client.Stream(ctx, history)
			Expect(err).NotTo(HaveOccurred())

			var texts []string
			for u := range task.Updates() {
				texts = append(texts, u.Text)
			}
			Expect(texts).To(Equal([]string{"Provimet ", "Provimet fillojnë në qershor.", "Provimet fillojnë në qershor."}))

			res, err := task.Wait()
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Truncated).To(BeFalse())
			Expect(received.Messages).To(Equal(history))
		})

		It("sends the system prompt and temperature when set", func() {
			mux.HandleFunc("POST /api/chat/stream", func(w http.ResponseWriter, r *http.Request) {
				decodeRequest(r)
				streamLines(w, "data: {\"type\":\"done\"}\n")
			})

			temp := 0.2
			client.SetOptions("Answer briefly.", &temp)
			task, err := client.Stream(ctx, []chatapi.Message{{Role: chatapi.RoleUser, Content: "hi"}})
			Expect(err).NotTo(HaveOccurred())
			_, err = task.Wait()
			Expect(err).NotTo(HaveOccurred())

			Expect(received.SystemPrompt).To(Equal("Answer briefly."))
			Expect(received.Temperature).NotTo(BeNil())
			Expect(*received.Temperature).To(BeNumerically("==", 0.2))
		})

		It("returns the server's error message for non-2xx responses", func() {
			mux.HandleFunc("POST /api/chat/stream", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"error":"Chatbot not initialized"}`))
			})

			task, err := client.Stream(ctx, nil)
			Expect(task).To(BeNil())

			var serr *stream.ServerError
			Expect(err).To(BeAssignableToTypeOf(serr))
			Expect(err).To(MatchError("Chatbot not initialized"))
		})

		It("falls back to a generic message when the error body is unreadable", func() {
			mux.HandleFunc("POST /api/chat/stream", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("<html>bad gateway</html>"))
			})

			_, err := client.Stream(ctx, nil)
			Expect(err).To(MatchError("Backend error: 502"))
		})

		It("reports connectivity failures", func() {
			server.Close()

			_, err := client.Stream(ctx, nil)
			Expect(stream.IsConnectivity(err)).To(BeTrue())
		})

		It("records the raw body", func() {
			var raw bytes.Buffer
			c, err := chatapi.NewClient(chatapi.Config{BaseURL: server.URL, Record: &raw})
			Expect(err).NotTo(HaveOccurred())

			body := "data: {\"type\":\"chunk\",\"content\":\"x\"}\ndata: {\"type\":\"done\"}\n"
			mux.HandleFunc("POST /api/chat/stream", func(w http.ResponseWriter, _ *http.Request) {
				streamLines(w, body)
			})

			task, err := c.Stream(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = task.Wait()
			Expect(err).NotTo(HaveOccurred())
			Expect(raw.String()).To(Equal(body))
		})

		It("can be cancelled while the server is still sending", func() {
			release := make(chan struct{})
			mux.HandleFunc("POST /api/chat/stream", func(w http.ResponseWriter, r *http.Request) {
				streamLines(w, "data: {\"type\":\"chunk\",\"content\":\"slow\"}\n")
				select {
				case <-release:
				case <-r.Context().Done():
				}
			})
			defer close(release)

			task, err := client.Stream(ctx, nil)
			Expect(err).NotTo(HaveOccurred())

			var first stream.Update
			Eventually(task.Updates(), 2*time.Second).Should(Receive(&first))
			Expect(first.Text).To(Equal("slow"))

			task.Cancel()
			_, err = task.Wait()
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("Chat", func() {
		It("returns the reply and sources", func() {
			mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
				decodeRequest(r)
				_, _ = w.Write([]byte(`{"reply":"Dekanati është në katin e dytë.","sources":["udhezues.pdf"]}`))
			})

			resp, err := client.Chat(ctx, []chatapi.Message{{Role: chatapi.RoleUser, Content: "Ku është dekanati?"}})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Reply).To(Equal("Dekanati është në katin e dytë."))
			Expect(resp.Sources).To(ConsistOf("udhezues.pdf"))
		})

		It("treats an error field as a server error", func() {
			mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"error":"Question too long"}`))
			})

			_, err := client.Chat(ctx, nil)
			Expect(stream.IsServer(err)).To(BeTrue())
			Expect(err).To(MatchError("Question too long"))
		})

		It("fails on a body that is not JSON", func() {
			mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`nope`))
			})

			_, err := client.Chat(ctx, nil)
			Expect(err).To(MatchError(ContainSubstring("decoding chat response")))
		})
	})

	Describe("Health", func() {
		It("reports the chatbot status", func() {
			mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"status":"healthy","chatbot_initialized":true}`))
			})

			status, err := client.Health(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Status).To(Equal("healthy"))
			Expect(status.Healthy()).To(BeTrue())
		})

		It("reports an uninitialized chatbot", func() {
			mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"status":"healthy","chatbot_initialized":false}`))
			})

			status, err := client.Health(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(status.Healthy()).To(BeFalse())
		})
	})

	Describe("Initialize", func() {
		It("posts to the initialize endpoint", func() {
			called := false
			mux.HandleFunc("POST /api/initialize", func(w http.ResponseWriter, _ *http.Request) {
				called = true
				_, _ = w.Write([]byte(`{"message":"Chatbot initialized successfully"}`))
			})

			Expect(client.Initialize(ctx)).To(Succeed())
			Expect(called).To(BeTrue())
		})

		It("returns server errors", func() {
			mux.HandleFunc("POST /api/initialize", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"missing API key"}`))
			})

			Expect(client.Initialize(ctx)).To(MatchError("missing API key"))
		})
	})
})
