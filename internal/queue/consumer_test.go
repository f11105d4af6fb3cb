package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
)

func TestFeedLineSubmitted(t *testing.T) {
    ev := "evt-1"
    body, _ := json.Marshal(SuggestionSubmittedEvent{
        SuggestionID:  "s-1",
        Kind:          "time_correction",
        EventID:       &ev,
        ProposedValue: "19:30",
        SubmittedAt:   "2025-01-05T10:00:00Z",
    })
    line, err := FeedLine(QueueSuggestionSubmitted, body)
    if err != nil {
        t.Fatalf("FeedLine: %v", err)
    }
    for _, want := range []string{"id=s-1", "kind=time_correction", "target=event:evt-1", `value="19:30"`} {
        if !strings.Contains(line, want) {
            t.Errorf("line %q missing %q", line, want)
        }
    }
    if !strings.HasSuffix(line, "\n") {
        t.Errorf("line should end with newline")
    }
}

func TestFeedLineFlattensMultilineValues(t *testing.T) {
    body, _ := json.Marshal(SuggestionResolvedEvent{
        SuggestionID:  "s-2",
        Kind:          "other",
        Outcome:       "rejected",
        ProposedValue: "first\nsecond   third",
    })
    line, err := FeedLine(QueueSuggestionResolved, body)
    if err != nil {
        t.Fatalf("FeedLine: %v", err)
    }
    if strings.Count(line, "\n") != 1 {
        t.Errorf("expected a single line, got %q", line)
    }
    if !strings.Contains(line, `value="first second third"`) {
        t.Errorf("unexpected value rendering: %q", line)
    }
}

func TestFeedLineErrors(t *testing.T) {
    if _, err := FeedLine("vote.cast", []byte(`{}`)); err == nil {
        t.Error("expected error for unknown queue")
    }
    if _, err := FeedLine(QueueSuggestionSubmitted, []byte(`{`)); err == nil {
        t.Error("expected error for malformed body")
    }
}

func TestHandleAppends(t *testing.T) {
    path := filepath.Join(t.TempDir(), "logs", "moderation.log")
    c := &FeedConsumer{LogPath: path}
    body, _ := json.Marshal(SuggestionResolvedEvent{SuggestionID: "s-3", Kind: "phone_correction", Outcome: "accepted", Applied: true})
    for i := 0; i < 2; i++ {
        if err := c.Handle(QueueSuggestionResolved, body); err != nil {
            t.Fatalf("Handle: %v", err)
        }
    }
    data, err := os.ReadFile(path)
    if err != nil {
        t.Fatalf("read feed: %v", err)
    }
    if got := strings.Count(string(data), "id=s-3"); got != 2 {
        t.Errorf("expected 2 lines, got %d in %q", got, data)
    }
}
