package fiekchatcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	fiekchatcmder "github.com/fiekai/fiekchat/cmd/fiekchat"
	"github.com/fiekai/fiekchat/pkg/config"
)

var _ = Describe("NewFiekchatCmd", func() {
	It("registers the global flags", func() {
		cmd := fiekchatcmder.NewFiekchatCmd()

		debug := cmd.PersistentFlags().Lookup("debug")
		Expect(debug).NotTo(BeNil())
		Expect(debug.Shorthand).To(Equal("d"))
		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
		Expect(cmd.PersistentFlags().Lookup("log-file")).NotTo(BeNil())
	})

	It("has every subcommand", func() {
		cmd := fiekchatcmder.NewFiekchatCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("chat", "ask", "health", "config", "mcp", "version"))
	})

	It("passes --config-dir down to subcommands", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "custom")

		cmd := fiekchatcmder.NewFiekchatCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs([]string{"--config-dir", dir, "config", "set", "chat.language", "sq"})
		Expect(cmd.Execute()).To(Succeed())

		cfg, err := config.LoadFile(filepath.Join(dir, "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Chat.Language).To(Equal("sq"))
	})

	It("prints the version", func() {
		var out bytes.Buffer
		cmd := fiekchatcmder.NewFiekchatCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"version"})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(HavePrefix("fiekchat dev"))
	})

	It("writes debug logs to --log-file", func() {
		tmp := GinkgoT().TempDir()
		logPath := filepath.Join(tmp, "fiekchat.log")

		cmd := fiekchatcmder.NewFiekchatCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		// Nothing listens on port 1, so the check fails after logging.
		cmd.SetArgs([]string{"--config-dir", tmp, "--log-file", logPath, "health", "--base-url", "http://127.0.0.1:1", "--timeout", "2s"})
		Expect(cmd.Execute()).NotTo(Succeed())

		data, err := os.ReadFile(logPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("health check failed"))
	})
})
