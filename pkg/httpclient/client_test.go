package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("X-Custom"); r.URL.Path == "/with-header" && got != "yes" {
			t.Errorf("custom header not sent, got %q", got)
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	t.Run("success", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "nested", "out.bin")
		if err := DownloadFile(srv.URL+"/file", dest); err != nil {
			t.Fatalf("DownloadFile() error = %v", err)
		}
		data, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("ReadFile() error = %v", err)
		}
		if string(data) != "payload" {
			t.Errorf("content = %q, want payload", data)
		}
	})

	t.Run("non-2xx leaves no file", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out.bin")
		if err := DownloadFile(srv.URL+"/missing", dest); err == nil {
			t.Fatal("expected error on 404")
		}
		if _, err := os.Stat(dest); !os.IsNotExist(err) {
			t.Error("partial file left behind")
		}
	})

	t.Run("custom header", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "out.bin")
		opts := DefaultOptions().WithHeader("X-Custom", "yes")
		if err := DownloadFile(srv.URL+"/with-header", dest, opts); err != nil {
			t.Fatalf("DownloadFile() error = %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		dest := filepath.Join(t.TempDir(), "out.bin")
		opts := DefaultOptions().WithContext(ctx)
		if err := DownloadFile(srv.URL+"/file", dest, opts); err == nil {
			t.Fatal("expected error with cancelled context")
		}
	})
}
