package askcmder_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	askcmder "github.com/fiekai/fiekchat/cmd/fiekchat/ask"
	"github.com/fiekai/fiekchat/pkg/chatapi"
)

func chunk(text string) string {
	data, _ := json.Marshal(map[string]string{"type": "chunk", "content": text})
	return "data: " + string(data) + "\n"
}

var _ = Describe("Ask command", func() {
	var (
		tmpDir  string
		origDir string
		server  *httptest.Server
		stdout  *bytes.Buffer
		stderr  *bytes.Buffer

		mu       sync.Mutex
		requests []chatapi.ChatRequest
	)

	execute := func(args ...string) error {
		cmd := askcmder.NewAskCmd()
		cmd.SetOut(stdout)
		cmd.SetErr(stderr)
		cmd.SetArgs(append([]string{"--base-url", server.URL}, args...))
		return cmd.Execute()
	}

	lastRequest := func() chatapi.ChatRequest {
		mu.Lock()
		defer mu.Unlock()
		Expect(requests).NotTo(BeEmpty())
		return requests[len(requests)-1]
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "fiekchat-ask-*")
		Expect(err).NotTo(HaveOccurred())
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".fiekchat"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())

		stdout = &bytes.Buffer{}
		stderr = &bytes.Buffer{}
		requests = nil

		record := func(r *http.Request) {
			defer GinkgoRecover()
			var req chatapi.ChatRequest
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			mu.Lock()
			requests = append(requests, req)
			mu.Unlock()
		}

		mux := http.NewServeMux()
		mux.HandleFunc("/api/chat/stream", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			w.Header().Set("Content-Type", "text/event-stream")
			flusher := w.(http.Flusher)
			for _, line := range []string{chunk("Hel"), chunk("lo!"), `data: {"type":"done"}` + "\n"} {
				fmt.Fprint(w, line)
				flusher.Flush()
			}
		})
		mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
			record(r)
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"reply":"A plain **answer**."}`)
		})
		server = httptest.NewServer(mux)
	})

	AfterEach(func() {
		server.Close()
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("requires a question", func() {
		Expect(execute()).NotTo(Succeed())
	})

	It("prints a streamed reply", func() {
		Expect(execute("What", "is", "FIEK?")).To(Succeed())
		Expect(stdout.String()).To(Equal("Hello!\n"))

		req := lastRequest()
		Expect(req.Messages).To(Equal([]chatapi.Message{{Role: chatapi.RoleUser, Content: "What is FIEK?"}}))
	})

	It("uses the plain endpoint with --stream=false", func() {
		Expect(execute("--stream=false", "hi")).To(Succeed())
		// Not a terminal, so the markdown is printed as is.
		Expect(stdout.String()).To(Equal("A plain **answer**.\n"))
	})

	It("sends the system prompt and temperature", func() {
		Expect(execute("--system-prompt", "Answer in one line.", "--temperature", "0.2", "hi")).To(Succeed())

		req := lastRequest()
		Expect(req.SystemPrompt).To(Equal("Answer in one line."))
		Expect(req.Temperature).NotTo(BeNil())
		Expect(*req.Temperature).To(Equal(0.2))
	})

	It("rejects an invalid temperature", func() {
		err := execute("--temperature", "3", "hi")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("chat.temperature"))
	})

	It("records the raw stream", func() {
		recordPath := filepath.Join(tmpDir, "reply.sse")
		Expect(execute("--record", recordPath, "hi")).To(Succeed())

		data, err := os.ReadFile(recordPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"type":"done"`))
	})

	It("reports an unreachable server", func() {
		url := server.URL
		server.Close()

		cmd := askcmder.NewAskCmd()
		cmd.SetOut(stdout)
		cmd.SetErr(stderr)
		cmd.SetArgs([]string{"--base-url", url, "hi"})
		Expect(cmd.Execute()).NotTo(Succeed())
		Expect(stderr.String()).To(ContainSubstring("Cannot connect to the server"))
	})
})
