package core

import (
	"testing"
)

func TestNewScreenshotAttachment(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4E, 0x47} // PNG header
	attachment := NewScreenshotAttachment("screenshots/Login.Valid.png", data)

	if attachment.Name != AttachmentScreenshot {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentScreenshot)
	}
	if attachment.ContentType != ContentTypePNG {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypePNG)
	}
	if attachment.Path != "screenshots/Login.Valid.png" {
		t.Errorf("Path = %s, want 'screenshots/Login.Valid.png'", attachment.Path)
	}
	if len(attachment.Body) != 4 {
		t.Errorf("Body length = %d, want 4", len(attachment.Body))
	}
}

func TestNewPageSourceAttachment(t *testing.T) {
	attachment := NewPageSourceAttachment("Login.Valid.html", []byte("<html></html>"))

	if attachment.Name != AttachmentPageSource {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentPageSource)
	}
	if attachment.ContentType != ContentTypeHTML {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypeHTML)
	}
}

func TestDefaultArtifactConfig(t *testing.T) {
	cfg := DefaultArtifactConfig()

	if !cfg.CaptureOnFailure {
		t.Error("CaptureOnFailure should be true by default")
	}
	if cfg.CaptureOnSuccess {
		t.Error("CaptureOnSuccess should be false by default")
	}
	if !cfg.Screenshot {
		t.Error("Screenshot should be true by default")
	}
	if cfg.PageSource {
		t.Error("PageSource should be false by default")
	}
}

func TestArtifactConfig_ShouldCapture(t *testing.T) {
	cfg := DefaultArtifactConfig()

	tests := []struct {
		status TestStatus
		want   bool
	}{
		{StatusFailed, true},
		{StatusErrored, true},
		{StatusPassed, false},
		{StatusSkipped, false},
		{StatusPending, false},
	}

	for _, tt := range tests {
		if got := cfg.ShouldCapture(tt.status); got != tt.want {
			t.Errorf("ShouldCapture(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}

	cfg.CaptureOnSuccess = true
	if !cfg.ShouldCapture(StatusPassed) {
		t.Error("ShouldCapture(passed) should be true when CaptureOnSuccess is set")
	}
}
