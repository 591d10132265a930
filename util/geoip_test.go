package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestInitGeoIP_EmptyPath(t *testing.T) {
	if err := InitGeoIP(""); err != nil {
		t.Errorf("expected no error with empty path, got %v", err)
	}
}

func TestInitGeoIP_NonExistentFile(t *testing.T) {
	if err := InitGeoIP("/nonexistent/path/to/geoip.mmdb"); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestValidateGeoIP_NonExistentFile(t *testing.T) {
	if err := ValidateGeoIP("/nonexistent/path/to/geoip.mmdb"); err == nil {
		t.Error("expected error for non-existent file")
	}
}

func TestGetIPLocation_SkippedAddresses(t *testing.T) {
	geoipDB = nil
	geoipCache = nil

	cases := []string{
		"",              // empty
		"not-an-ip",     // unparsable
		"127.0.0.1",     // loopback v4
		"::1",           // loopback v6
		"10.0.0.1",      // private
		"192.168.1.1",   // private
		"172.16.0.1",    // private
		"169.254.10.10", // link-local
		"::",            // unspecified
	}
	for _, ip := range cases {
		if loc := GetIPLocation(ip); loc.City != "" || loc.Country != "" {
			t.Errorf("expected empty location for %q, got %+v", ip, loc)
		}
	}
}

func TestGetIPLocation_NoDB(t *testing.T) {
	geoipDB = nil
	geoipCache = nil

	if loc := GetIPLocation("8.8.8.8"); loc != (IPLocation{}) {
		t.Errorf("expected empty location when DB is nil, got %+v", loc)
	}
}

func TestGetGeoIPCacheMetrics_NoCache(t *testing.T) {
	geoipCache = nil
	_, _, size := GetGeoIPCacheMetrics()
	if size != 0 {
		t.Errorf("expected size 0 when cache is nil, got %d", size)
	}
}

func TestDownloadGeoIP_InvalidURL(t *testing.T) {
	destPath := filepath.Join(t.TempDir(), "geoip.mmdb")
	_, err := DownloadGeoIPWithRequest(context.Background(), DownloadRequest{
		URL:      "http://invalid-url-that-does-not-exist-12345.test/file.mmdb",
		DestPath: destPath,
	})
	if err == nil {
		t.Error("expected error for unresolvable URL")
	}
}

func TestDownloadGeoIP_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "geoip.mmdb")
	_, err := DownloadGeoIPWithRequest(context.Background(), DownloadRequest{URL: server.URL, DestPath: destPath})
	if err == nil {
		t.Error("expected error for HTTP 404")
	}
}

func TestDownloadGeoIP_Success(t *testing.T) {
	mockData := []byte("mock geoip database content")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write(mockData); err != nil {
			t.Errorf("failed to write mock response: %v", err)
		}
	}))
	defer server.Close()

	destPath := filepath.Join(t.TempDir(), "geoip.mmdb")
	resultPath, err := DownloadGeoIPWithRequest(context.Background(), DownloadRequest{URL: server.URL, DestPath: destPath})
	if err != nil {
		t.Fatalf("download failed: %v", err)
	}
	if resultPath != destPath {
		t.Errorf("expected result path %s, got %s", destPath, resultPath)
	}

	data, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("failed to read downloaded file: %v", err)
	}
	if string(data) != string(mockData) {
		t.Errorf("expected file content %q, got %q", mockData, data)
	}
}

func TestDownloadGeoIP_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	destPath := filepath.Join(t.TempDir(), "geoip.mmdb")
	_, err := DownloadGeoIPWithRequest(ctx, DownloadRequest{URL: server.URL, DestPath: destPath})
	if err == nil {
		t.Error("expected error due to context cancellation")
	}
}

func TestDownloadGeoIP_TempFileCleanupOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("partial data"))
		panic("simulated connection error")
	}))
	defer server.Close()

	tmpDir := t.TempDir()
	destPath := filepath.Join(tmpDir, "geoip.mmdb")

	_, err := DownloadGeoIPWithRequest(context.Background(), DownloadRequest{URL: server.URL, DestPath: destPath})
	if err == nil {
		t.Error("expected error from truncated body")
	}

	// The temp file must be removed on failure.
	files, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}
	if len(files) != 0 {
		for _, f := range files {
			t.Logf("remaining file: %s", f.Name())
		}
		t.Errorf("expected no files left in temp dir, found %d", len(files))
	}
}

func TestCloseGeoIP_NilDB(t *testing.T) {
	geoipDB = nil
	CloseGeoIP()
	if geoipDB != nil {
		t.Error("expected geoipDB to remain nil after CloseGeoIP")
	}
}
