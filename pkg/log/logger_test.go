package log

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetLevel(t *testing.T) {
	defer Logger.SetLevel(logrus.InfoLevel)

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel: %v", err)
	}
	if Logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %s", Logger.GetLevel())
	}
	if err := SetLevel("chatty"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestWithFieldsWritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stdout)

	WithFields(Fields{"path": "/tmp/upload-1"}).Info("temp file removed")

	if !strings.Contains(buf.String(), "path=/tmp/upload-1") {
		t.Fatalf("entry = %q", buf.String())
	}
}
