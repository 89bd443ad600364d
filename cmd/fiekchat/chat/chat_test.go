package chatcmder_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/fiekai/fiekchat/cmd/fiekchat/chat"
	"github.com/fiekai/fiekchat/pkg/chatapi"
)

func chunk(text string) string {
	data, _ := json.Marshal(map[string]string{"type": "chunk", "content": text})
	return "data: " + string(data) + "\n"
}

var _ = Describe("NewChatCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
	})

	It("registers the chat flags", func() {
		cmd := chatcmder.NewChatCmd()
		for _, name := range []string{"base-url", "timeout", "stream", "system-prompt", "temperature", "lang", "record", "tui", "watch"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
		Expect(cmd.Flags().Lookup("tui").DefValue).To(Equal("false"))
		Expect(cmd.Flags().Lookup("watch").DefValue).To(Equal("true"))
	})
})

var _ = Describe("Chat REPL", func() {
	var (
		tmpDir  string
		origDir string
		server  *httptest.Server
		out     *bytes.Buffer

		mu       sync.Mutex
		requests []chatapi.ChatRequest
	)

	execute := func(input string, args ...string) error {
		cmd := chatcmder.NewChatCmd()
		cmd.SetIn(strings.NewReader(input))
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(append([]string{"--base-url", server.URL, "--watch=false"}, args...))
		return cmd.Execute()
	}

	allRequests := func() []chatapi.ChatRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]chatapi.ChatRequest(nil), requests...)
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "fiekchat-chat-*")
		Expect(err).NotTo(HaveOccurred())
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".fiekchat"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		out = &bytes.Buffer{}
		requests = nil

		record := func(r *http.Request) chatapi.ChatRequest {
			defer GinkgoRecover()
			var req chatapi.ChatRequest
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			mu.Lock()
			requests = append(requests, req)
			mu.Unlock()
			return req
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/api/chat/stream", func(w http.ResponseWriter, r *http.Request) {
			req := record(r)
			question := req.Messages[len(req.Messages)-1].Content

			w.Header().Set("Content-Type", "text/event-stream")
			flusher := w.(http.Flusher)
			for _, line := range []string{
				chunk("You asked: "),
				chunk(question),
				`data: {"type":"sources","content":"\n---\n**Sources:** faq.pdf"}` + "\n",
			} {
				fmt.Fprint(w, line)
				flusher.Flush()
			}
		})
		mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"reply":"plain reply"}`)
		})
		server = httptest.NewServer(mux)
	})

	AfterEach(func() {
		server.Close()
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("greets, answers and exits", func() {
		Expect(execute("hello\n/exit\nnever sent\n")).To(Succeed())

		Expect(out.String()).To(ContainSubstring("I'm the FIEK AI Chatbot"))
		Expect(out.String()).To(ContainSubstring("You asked: hello"))
		Expect(out.String()).To(ContainSubstring("**Sources:** faq.pdf"))
		Expect(allRequests()).To(HaveLen(1))
	})

	It("prints a repeated reply in full", func() {
		Expect(execute("hi\nhi\n")).To(Succeed())

		Expect(allRequests()).To(HaveLen(2))
		Expect(strings.Count(out.String(), "You asked: hi")).To(Equal(2))
	})

	It("exits at end of input", func() {
		Expect(execute("")).To(Succeed())
		Expect(allRequests()).To(BeEmpty())
	})

	It("sends the history without sources", func() {
		Expect(execute("first\nsecond\n")).To(Succeed())

		reqs := allRequests()
		Expect(reqs).To(HaveLen(2))
		Expect(reqs[1].Messages).To(Equal([]chatapi.Message{
			{Role: chatapi.RoleUser, Content: "first"},
			{Role: chatapi.RoleAssistant, Content: "You asked: first"},
			{Role: chatapi.RoleUser, Content: "second"},
		}))
	})

	It("asks a suggestion picked by number", func() {
		Expect(execute("/suggest\n2\n")).To(Succeed())

		Expect(out.String()).To(ContainSubstring("1. What study programs does FIEK offer?"))
		reqs := allRequests()
		Expect(reqs).To(HaveLen(1))
		Expect(reqs[0].Messages[0].Content).To(Equal("When does the exam period start?"))
	})

	It("asks a suggestion given inline", func() {
		Expect(execute("/suggest 1\n")).To(Succeed())
		Expect(allRequests()[0].Messages[0].Content).To(Equal("What study programs does FIEK offer?"))
	})

	It("rejects out of range suggestions", func() {
		Expect(execute("/suggest 9\n")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("between 1 and 4"))
		Expect(allRequests()).To(BeEmpty())
	})

	It("sends a number as a question when no suggestions are shown", func() {
		Expect(execute("42\n")).To(Succeed())
		Expect(allRequests()[0].Messages[0].Content).To(Equal("42"))
	})

	It("retries the last question", func() {
		Expect(execute("again?\n/retry\n")).To(Succeed())

		reqs := allRequests()
		Expect(reqs).To(HaveLen(2))
		last := reqs[1].Messages[len(reqs[1].Messages)-1]
		Expect(last.Content).To(Equal("again?"))
	})

	It("reports nothing to retry", func() {
		Expect(execute("/retry\n")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("nothing to retry"))
	})

	It("switches language", func() {
		Expect(execute("/lang sq\n/lang\n/suggest\n")).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Shqip"))
		Expect(out.String()).To(ContainSubstring("Cilat programe studimi ofron FIEK?"))
	})

	It("rejects unknown languages", func() {
		Expect(execute("/lang de\n")).To(Succeed())
		Expect(out.String()).To(ContainSubstring(`unknown language "de"`))
	})

	It("clears the conversation", func() {
		Expect(execute("first\n/clear\nsecond\n")).To(Succeed())

		reqs := allRequests()
		Expect(reqs).To(HaveLen(2))
		Expect(reqs[1].Messages).To(HaveLen(1))
		Expect(out.String()).To(ContainSubstring("Started a new conversation."))
	})

	It("reports unknown commands", func() {
		Expect(execute("/bogus\n")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Unknown command /bogus"))
	})

	It("prints plain replies with --stream=false", func() {
		Expect(execute("hi\n", "--stream=false")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("plain reply"))
	})

	It("keeps going after a failed turn", func() {
		url := server.URL
		server.Close()

		cmd := chatcmder.NewChatCmd()
		cmd.SetIn(strings.NewReader("hi\n/help\n"))
		cmd.SetOut(out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"--base-url", url, "--watch=false"})
		Expect(cmd.Execute()).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Cannot connect to the server"))
		Expect(out.String()).To(ContainSubstring("/suggest [n]"))
	})
})
