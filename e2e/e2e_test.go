package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/ayusman/tracematch/internal/app"
	"github.com/ayusman/tracematch/internal/fixtures"
	"github.com/ayusman/tracematch/internal/gesture"
	"github.com/ayusman/tracematch/internal/location"
	"github.com/ayusman/tracematch/internal/server"
	"github.com/ayusman/tracematch/internal/store"
)

const scanScript = `#!/bin/sh
cat > /dev/null
printf '{"success":true,"data":{"readings":%s}}\n' "$(cat "$(dirname "$0")/readings.json")"
`

// fakeRadio is a scanner plugin whose visible access points are set by the test.
type fakeRadio struct {
	t   *testing.T
	dir string
}

func newFakeRadio(t *testing.T, pluginDir string) *fakeRadio {
	t.Helper()

	dir := filepath.Join(pluginDir, "fake-radio")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	manifest := `{"name":"fake-radio","version":"1.0.0","executable":"scan.sh","actions":["scan"]}`
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), []byte(manifest), 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scan.sh"), []byte(scanScript), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &fakeRadio{t: t, dir: dir}
}

func (r *fakeRadio) tune(readings []location.Reading) {
	r.t.Helper()
	data, _ := json.Marshal(readings)
	// Write then rename so a concurrent scan never sees a partial file
	tmp := filepath.Join(r.dir, "readings.json.tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		r.t.Fatalf("failed to write readings: %v", err)
	}
	if err := os.Rename(tmp, filepath.Join(r.dir, "readings.json")); err != nil {
		r.t.Fatalf("failed to rename readings: %v", err)
	}
}

func post(t *testing.T, client *http.Client, url string, body interface{}) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := client.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	return resp
}

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("scanner plugin script needs a POSIX shell")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	pluginDir := filepath.Join(tmpDir, "plugins")
	radio := newFakeRadio(t, pluginDir)

	kitchen := []location.Reading{{BSSID: "00:11:22:33:44:55", Level: -42}, {BSSID: "66:77:88:99:aa:bb", Level: -81}}
	office := []location.Reading{{BSSID: "00:11:22:33:44:55", Level: -88}, {BSSID: "66:77:88:99:aa:bb", Level: -39}, {BSSID: "cc:dd:ee:ff:00:11", Level: -60}}
	radio.tune(kitchen)

	cfg := app.Config{
		Store:              s,
		TemplatePath:       filepath.Join(tmpDir, "gestures.dat"),
		PluginDir:          pluginDir,
		ScanPeriod:         20 * time.Millisecond,
		PluginTimeout:      5 * time.Second,
		Locations:          []string{"Kitchen", "Office"},
		Gestures:           fixtures.Gestures(),
		ExamplesPerGesture: 3,
	}
	a := app.New(cfg)
	if err := a.LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates() error = %v", err)
	}
	if err := a.DiscoverPlugins(); err != nil {
		t.Fatalf("DiscoverPlugins() error = %v", err)
	}

	ts := httptest.NewServer(server.New(server.Config{App: a}))
	defer ts.Close()
	client := ts.Client()

	t.Run("TrainFromSamples", func(t *testing.T) {
		for _, name := range fixtures.Gestures() {
			samples, err := fixtures.LoadSamples(name)
			if err != nil {
				t.Fatalf("LoadSamples(%s) error = %v", name, err)
			}
			resp := post(t, client, ts.URL+"/api/gestures/"+name+"/samples", map[string]interface{}{"samples": samples})
			resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				t.Fatalf("POST samples for %s status = %d, want %d", name, resp.StatusCode, http.StatusCreated)
			}
		}
		if n := a.Templates().Len(); n != 9 {
			t.Errorf("expected 9 templates, got %d", n)
		}
	})

	t.Run("RecognizeRotatedStrokes", func(t *testing.T) {
		for _, name := range fixtures.Gestures() {
			strokes, _ := fixtures.LoadStrokes(name)
			probe := gesture.Scale(gesture.Rotate(strokes[0], 0.3), 2)

			resp := post(t, client, ts.URL+"/api/recognize", map[string]interface{}{"points": probe})
			var body struct {
				Match *struct {
					Name string `json:"name"`
				} `json:"match"`
			}
			json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close()

			if body.Match == nil || body.Match.Name != name {
				t.Errorf("expected %s, got %+v", name, body.Match)
			}
		}
	})

	t.Run("RecordFingerprintsByScanning", func(t *testing.T) {
		for _, step := range []struct {
			loc      string
			readings []location.Reading
		}{{"Kitchen", kitchen}, {"Kitchen", kitchen}, {"Office", office}, {"Office", office}} {
			radio.tune(step.readings)
			resp := post(t, client, ts.URL+"/api/fingerprints", map[string]string{"location": step.loc})
			resp.Body.Close()
			if resp.StatusCode != http.StatusCreated {
				t.Fatalf("POST /api/fingerprints status = %d, want %d", resp.StatusCode, http.StatusCreated)
			}
		}
		if n := a.Locator().Fingerprints(); n != 4 {
			t.Errorf("expected 4 fingerprints, got %d", n)
		}
	})

	t.Run("LocateLoopFollowsMovement", func(t *testing.T) {
		if err := a.Start(context.Background()); err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		defer a.Stop()

		waitFor := func(want string) {
			t.Helper()
			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) {
				resp, err := client.Get(ts.URL + "/api/locate")
				if err != nil {
					t.Fatalf("GET /api/locate error = %v", err)
				}
				var result location.Result
				json.NewDecoder(resp.Body).Decode(&result)
				resp.Body.Close()
				if result.OK && result.Location == want {
					return
				}
				time.Sleep(20 * time.Millisecond)
			}
			t.Fatalf("timed out waiting for %s", want)
		}

		radio.tune(office)
		waitFor("Office")
		radio.tune(kitchen)
		waitFor("Kitchen")
	})

	t.Run("RestartKeepsState", func(t *testing.T) {
		restarted := app.New(cfg)
		if err := restarted.LoadTemplates(); err != nil {
			t.Fatalf("LoadTemplates() error = %v", err)
		}
		if err := restarted.LoadFingerprints(context.Background()); err != nil {
			t.Fatalf("LoadFingerprints() error = %v", err)
		}

		if n := restarted.Templates().Len(); n != 9 {
			t.Errorf("expected 9 templates after restart, got %d", n)
		}
		if !restarted.Trainer().Done() {
			t.Error("expected training to be complete after restart")
		}
		if n := restarted.Locator().Fingerprints(); n != 4 {
			t.Errorf("expected 4 fingerprints after restart, got %d", n)
		}

		infos, err := restarted.Locations(context.Background())
		if err != nil {
			t.Fatalf("Locations() error = %v", err)
		}
		for _, info := range infos {
			if info.Fingerprints != 2 {
				t.Errorf("expected 2 fingerprints for %s, got %d", info.Name, info.Fingerprints)
			}
		}
	})
}
