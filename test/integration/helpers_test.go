package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// testServer holds the base URL of a running calculator instance for tests.
var testServer string

var (
	reachableOnce sync.Once
	reachable     bool
)

func init() {
	testServer = os.Getenv("CALC_URL")
	if testServer == "" {
		testServer = "http://localhost:8080"
	}
	// Ensure the URL has a scheme.
	if !strings.HasPrefix(testServer, "http://") && !strings.HasPrefix(testServer, "https://") {
		testServer = "http://" + testServer
	}
}

// requireServer skips the test when no calculator is listening on testServer.
func requireServer(t *testing.T) {
	t.Helper()
	reachableOnce.Do(func() {
		client := &http.Client{Timeout: 2 * time.Second}
		resp, err := client.Get(serverURL("/healthz"))
		if err != nil {
			return
		}
		resp.Body.Close()
		reachable = resp.StatusCode == http.StatusOK
	})
	if !reachable {
		t.Skipf("calculator not reachable at %s; start one with `string-calculator serve` or set CALC_URL", testServer)
	}
}

// serverURL builds a full URL for the given path.
func serverURL(path string) string {
	return strings.TrimRight(testServer, "/") + path
}

// postJSON sends body to path and decodes the JSON response.
func postJSON(t *testing.T, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	data, _ := json.Marshal(body)
	resp, err := http.Post(serverURL(path), "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s HTTP error: %v", path, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("POST %s decode error: %v; body: %s", path, err, raw)
	}
	return resp.StatusCode, out
}

// evaluate posts one expression to /v1/evaluate.
func evaluate(t *testing.T, expression string) (int, map[string]interface{}) {
	t.Helper()
	return postJSON(t, "/v1/evaluate", map[string]string{"expression": expression})
}

// assertDisplay checks that the expression evaluates to the given display value.
func assertDisplay(t *testing.T, expression, want string) {
	t.Helper()
	status, body := evaluate(t, expression)
	if status != http.StatusOK {
		t.Fatalf("evaluate(%q): expected 200, got %d: %v", expression, status, body)
	}
	if got := body["display"]; got != want {
		t.Errorf("evaluate(%q) = %v, want %s", expression, got, want)
	}
}

// assertReason checks that the expression is rejected with the given reason.
func assertReason(t *testing.T, expression, reason string) {
	t.Helper()
	status, body := evaluate(t, expression)
	if status != http.StatusBadRequest {
		t.Fatalf("evaluate(%q): expected 400, got %d: %v", expression, status, body)
	}
	errBody, _ := body["error"].(map[string]interface{})
	if got := errBody["reason"]; got != reason {
		t.Errorf("evaluate(%q) reason = %v, want %s; error: %v", expression, got, reason, errBody)
	}
}
