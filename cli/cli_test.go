package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecuteNoModeSelected(t *testing.T) {
	var buf bytes.Buffer

	cli := CLI{output: &buf}

	if err := cli.execute(context.Background()); err != nil {
		t.Fatalf("execute: unexpected error: %v", err)
	}

	if got := strings.TrimSpace(buf.String()); got != "{}" {
		t.Errorf("output = %q, want empty document", got)
	}
}

func TestExecuteList(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dcim/devices/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"count": 1,
			"next": null,
			"previous": null,
			"results": [{
				"id": 1,
				"name": "sw1",
				"tags": ["core"],
				"device_role": {"slug": "leaf"}
			}]
		}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "netbox.yml")
	doc := fmt.Sprintf(`
netbox:
  api:
    url: %s
  import:
    dcim:
      devices:
        group_by:
          - tags
        group_prefix: tag_
        host_vars:
          - role: device_role.slug
`, srv.URL)

	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer

	cli := CLI{ConfigFile: path, List: true, output: &buf}

	if err := cli.execute(context.Background()); err != nil {
		t.Fatalf("execute: unexpected error: %v", err)
	}

	out := buf.String()

	for _, want := range []string{
		`"tag_core"`,
		`"sw1"`,
		`"_meta"`,
		`"role": "leaf"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s:\n%s", want, out)
		}
	}
}

func TestExecuteHost(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dcim/devices/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") != "sw1" {
			fmt.Fprint(w, `{"count": 0, "next": null, "previous": null, "results": []}`)

			return
		}

		fmt.Fprint(w, `{
			"count": 1,
			"next": null,
			"previous": null,
			"results": [{"id": 1, "name": "sw1", "device_role": {"slug": "leaf"}}]
		}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "netbox.yml")
	doc := fmt.Sprintf(`
netbox:
  api:
    url: %s
  import:
    dcim:
      devices:
        host_vars:
          - role: device_role.slug
`, srv.URL)

	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer

	cli := CLI{ConfigFile: path, Host: "sw1", output: &buf}

	if err := cli.execute(context.Background()); err != nil {
		t.Fatalf("execute: unexpected error: %v", err)
	}

	if got := strings.TrimSpace(buf.String()); !strings.Contains(got, `"role": "leaf"`) {
		t.Errorf("host vars output = %s, want role leaf", got)
	}

	// Unknown hosts produce an empty document and a zero exit.
	buf.Reset()
	cli.Host = "nonesuch"

	if err := cli.execute(context.Background()); err != nil {
		t.Fatalf("execute: unexpected error: %v", err)
	}

	if got := strings.TrimSpace(buf.String()); got != "{}" {
		t.Errorf("unknown host output = %q, want empty document", got)
	}
}
