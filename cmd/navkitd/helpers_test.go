package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const navYAML = `nodes:
  - key: home
    title: Home
    url: /
    children:
      - key: about
        title: About
        url: /about
      - key: admin
        title: Admin
        url: /admin
        roles: [admin]
`

// writeFile writes content to name under a fresh temp dir and returns the path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func testSettings(t *testing.T) settings {
	t.Helper()
	return settings{
		ShutdownTimeout:  time.Second,
		ServiceName:      "navkitd-test",
		LogLevel:         "error",
		TracingExporter:  "none",
		MetricsExporter:  "none",
		Sources:          map[string][]string{"default": {writeFile(t, "nav.yaml", navYAML)}},
		DefaultSet:       "default",
		AppRoot:          "/",
		SecurityTrimming: true,
		APIKeys:          map[string]string{"ops": "op-key"},
		ReleaseRole:      "operator",
		PublishRetries:   1,
	}
}
