package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

const topicPage = `<script id="ajaxify-data" type="application/json">{"tid": 3, "slug": "3/hi", "title": "Hi"}</script>
<ul component="topic" data-tid="3"><li component="post" data-pid="1"><div component="post/content">hi</div></li></ul>`

func TestOverrides(t *testing.T) {
	var f watchFlags
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&f.url, "url", "", "")
	cmd.Flags().StringVar(&f.cookie, "cookie", "", "")
	cmd.Flags().StringVar(&f.lang, "lang", "", "")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "")
	if err := cmd.ParseFlags([]string{"--url", "wss://forum.example/socket", "--log-level", "debug"}); err != nil {
		t.Fatal(err)
	}

	want := map[string]any{
		"server": map[string]any{"url": "wss://forum.example/socket"},
		"log":    map[string]any{"level": "debug"},
	}
	if diff := cmp.Diff(want, overrides(cmd, f)); diff != "" {
		t.Errorf("overrides mismatch (-want +got):\n%s", diff)
	}
}

func TestWatch_WritesSnapshot(t *testing.T) {
	dir := t.TempDir()
	pagePath := filepath.Join(dir, "topic.html")
	if err := os.WriteFile(pagePath, []byte(topicPage), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "out.html")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{
		"watch",
		"--config", filepath.Join(dir, "missing.toml"),
		"--page", pagePath,
		"--out", outPath,
		"--log-level", "error",
	})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("watch: %v (%s)", err, stderr.String())
	}

	out, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `<div component="post/content">hi</div>`) {
		t.Errorf("snapshot = %s", out)
	}
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "topicview dev") {
		t.Errorf("version output = %q", out.String())
	}
}
