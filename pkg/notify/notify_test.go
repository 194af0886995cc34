package notify_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formdraft/pkg/editor"
	"github.com/goliatone/go-formdraft/pkg/notify"
	"github.com/goliatone/go-formdraft/pkg/testsupport"
)

func TestWriterEmitsJSONLines(t *testing.T) {
	var buf bytes.Buffer
	w := notify.NewWriter(&buf)

	at := time.Unix(100, 0).UTC()
	notes := []editor.Notification{
		{Kind: editor.KindReady, EditorID: "page", InstanceID: "i-1", Time: at},
		{Kind: editor.KindValues, EditorID: "page", InstanceID: "i-1", Time: at, Event: editor.EventChange, Data: map[string]any{"x": 1.0}},
	}
	for _, n := range notes {
		if err := w.Notify(context.Background(), n); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}

	var names []string
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var line map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("decode line %q: %v", scanner.Text(), err)
		}
		names = append(names, line["name"].(string))
		if line["editor_id"] != "page" {
			t.Fatalf("expected editor_id, got %v", line)
		}
	}
	if diff := cmp.Diff([]string{"page_ready", "page_values"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestWriterRespectsContext(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := notify.NewWriter(&buf).Notify(ctx, editor.Notification{EditorID: "x"}); err == nil {
		t.Fatal("expected context error")
	}
	if buf.Len() != 0 {
		t.Fatalf("expected nothing written, got %q", buf.String())
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := notify.Log(zerolog.New(&buf))
	if err := n.Notify(context.Background(), editor.Notification{Kind: editor.KindIssues, EditorID: "page"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if !strings.Contains(buf.String(), "page_issues") {
		t.Fatalf("expected channel name in log, got %q", buf.String())
	}
}

func TestFanout(t *testing.T) {
	boom := errors.New("boom")
	first := &testsupport.RecordingNotifier{Err: boom}
	second := &testsupport.RecordingNotifier{}

	err := notify.Fanout(first, nil, second).Notify(context.Background(), editor.Notification{Kind: editor.KindReady, EditorID: "a"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected first error, got %v", err)
	}
	if len(first.All()) != 1 || len(second.All()) != 1 {
		t.Fatalf("expected both notifiers called, got %d and %d", len(first.All()), len(second.All()))
	}
}
