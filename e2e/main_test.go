package e2e

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// appURL is the running portal's base URL. Empty when the e2e stack was not
// booted; the suite skips itself in that case.
var appURL string

func TestMain(m *testing.M) {
	os.Exit(runTestMain(m))
}

// runTestMain builds and boots the dev gateway and the portal, then runs the
// browser tests against the live pair. Opt in with PORTAL_E2E=1; the suite is
// skipped otherwise so ordinary test runs stay hermetic.
func runTestMain(m *testing.M) int {
	if os.Getenv("PORTAL_E2E") == "" {
		return m.Run()
	}

	root := ".."
	if _, err := os.Stat(filepath.Join(root, "cmd", "server")); os.IsNotExist(err) {
		root = "."
	}

	tmp, err := os.MkdirTemp("", "portal-e2e")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return 1
	}
	defer os.RemoveAll(tmp)

	gatewayBin := filepath.Join(tmp, "devgateway")
	serverBin := filepath.Join(tmp, "server")
	for target, bin := range map[string]string{
		"./cmd/devgateway": gatewayBin,
		"./cmd/server":     serverBin,
	} {
		cmd := exec.Command("go", "build", "-o", bin, target)
		cmd.Dir = root
		if output, err := cmd.CombinedOutput(); err != nil {
			fmt.Printf("Failed to build %s: %v\n%s\n", target, err, output)
			return 1
		}
	}

	gatewayURL := "http://localhost:8093"
	gatewayCmd := exec.Command(gatewayBin,
		"-addr", ":8093",
		"-db", filepath.Join(tmp, "devgateway.db"),
		"-public-url", gatewayURL,
	)
	gatewayCmd.Stdout = os.Stdout
	gatewayCmd.Stderr = os.Stderr
	if err := gatewayCmd.Start(); err != nil {
		fmt.Printf("Failed to start dev gateway: %v\n", err)
		return 1
	}
	defer gatewayCmd.Process.Kill()

	appURL = "http://localhost:8092"
	serverCmd := exec.Command(serverBin)
	serverCmd.Dir = root
	serverCmd.Env = append(os.Environ(),
		"PORTAL_SERVER_ADDR=:8092",
		"PORTAL_DATABASE_PATH="+filepath.Join(tmp, "portal.db"),
		"PORTAL_BACKEND_URL="+gatewayURL,
		"PORTAL_IDENTITY_API_KEY=e2e-key",
		"PORTAL_IDENTITY_AUTH_URL="+gatewayURL,
		"PORTAL_IDENTITY_TOKEN_URL="+gatewayURL,
		"PORTAL_STRIPE_PUBLISHABLE_KEY=pk_test_e2e",
		"PORTAL_PLAID_ENV=sandbox",
	)
	serverCmd.Stdout = os.Stdout
	serverCmd.Stderr = os.Stderr
	if err := serverCmd.Start(); err != nil {
		fmt.Printf("Failed to start portal: %v\n", err)
		return 1
	}
	defer serverCmd.Process.Kill()

	for _, url := range []string{gatewayURL + "/health", appURL + "/health"} {
		if !waitReady(url) {
			fmt.Printf("Server at %s failed to become ready\n", url)
			return 1
		}
	}

	return m.Run()
}

func waitReady(url string) bool {
	for range 50 {
		time.Sleep(100 * time.Millisecond)
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
	}
	return false
}
