package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"irportal/internal/config"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	st, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	key, err := st.Save(ctx, []byte("%PDF-1.4 evidence"), SaveOptions{Category: "evidence", BaseName: "user 7", Extension: ".pdf"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(key, "evidence/") || !strings.HasSuffix(key, "/user-7.pdf") {
		t.Fatalf("unexpected key %q", key)
	}

	rc, err := st.Open(ctx, key)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "%PDF-1.4 evidence" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestLocalStorageOpenErrors(t *testing.T) {
	st, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctx := context.Background()

	if _, err := st.Open(ctx, "evidence/missing.pdf"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := st.Open(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for empty key, got %v", err)
	}
	if _, err := st.Open(ctx, "../../etc/passwd"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected traversal to be rejected, got %v", err)
	}
	if _, err := st.Save(ctx, nil, SaveOptions{}); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestContentTypeFor(t *testing.T) {
	tests := map[string]string{
		"evidence/2024/01/01/a.pdf": "application/pdf",
		"evidence/a.png":            "image/png",
		"noext":                     "application/octet-stream",
	}
	for key, want := range tests {
		if got := ContentTypeFor(key); got != want {
			t.Fatalf("%s: expected %q, got %q", key, want, got)
		}
	}
}

func TestNewStorageSelectsBackend(t *testing.T) {
	st, err := NewStorage(config.Config{StorageType: "LOCAL", StorageLocalDir: t.TempDir()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := st.(*LocalStorage); !ok {
		t.Fatalf("expected local storage, got %T", st)
	}
	if _, err := NewStorage(config.Config{StorageType: "ftp"}); err == nil {
		t.Fatal("expected error for unknown storage type")
	}
	if _, err := NewStorage(config.Config{StorageType: TypeS3}); err == nil {
		t.Fatal("expected error for incomplete s3 config")
	}
	if _, err := NewStorage(config.Config{StorageType: TypeR2, StorageR2Bucket: "b"}); err == nil {
		t.Fatal("expected error for missing r2 credentials")
	}
}
