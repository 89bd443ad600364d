package mcpcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	mcpcmder "github.com/fiekai/fiekchat/cmd/fiekchat/mcp"
)

var _ = Describe("NewMCPCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := mcpcmder.NewMCPCmd()
		Expect(cmd.Use).To(Equal("mcp"))
	})

	It("registers --listen with an empty default", func() {
		cmd := mcpcmder.NewMCPCmd()
		f := cmd.Flags().Lookup("listen")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})

	It("registers the chat flags", func() {
		cmd := mcpcmder.NewMCPCmd()
		for _, name := range []string{"base-url", "timeout", "stream", "system-prompt", "temperature", "eventstream-provider"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	It("rejects arguments", func() {
		cmd := mcpcmder.NewMCPCmd()
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})
})

var _ = Describe("MCP command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	execute := func(args ...string) error {
		cmd := mcpcmder.NewMCPCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "fiekchat-mcp-*")
		Expect(err).NotTo(HaveOccurred())
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.MkdirAll(filepath.Join(tmpDir, ".fiekchat"), 0o755)).To(Succeed())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("fails on an invalid base URL", func() {
		err := execute("--base-url", "ftp://example.com")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("must use http or https"))
	})

	It("fails on an unknown event provider", func() {
		err := execute("--eventstream-provider", "nats")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unsupported eventstream provider"))
	})

	It("fails when the listen address cannot be used", func() {
		err := execute("--listen", "256.0.0.1:99999")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("API server error"))
	})
})
