package stream

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func collectEvents(t *testing.T, r io.Reader) []Event {
	t.Helper()
	d := NewDecoder(r)
	var events []Event
	for {
		ev, err := d.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("unexpected decode error: %v", err)
		}
		events = append(events, ev)
	}
}

func TestDecoderBasicStream(t *testing.T) {
	input := `data: {"type":"reasoning","content":"Thinking about overfitting..."}

data: {"type":"content","content":"Overfitting is "}

data: {"type":"content","content":"when a model memorizes training data."}

data: {"type":"done"}

`
	events := collectEvents(t, strings.NewReader(input))

	expected := []Event{
		{Type: EventReasoning, Text: "Thinking about overfitting..."},
		{Type: EventContent, Text: "Overfitting is "},
		{Type: EventContent, Text: "when a model memorizes training data."},
		{Type: EventDone},
	}

	if len(events) != len(expected) {
		t.Fatalf("event count: got %d, want %d", len(events), len(expected))
	}
	for i, ev := range events {
		if ev != expected[i] {
			t.Errorf("event %d: got %+v, want %+v", i, ev, expected[i])
		}
	}
}

func TestDecoderChunkBoundaryIndependence(t *testing.T) {
	input := "data: {\"type\":\"content\",\"content\":\"hello \"}\n\n" +
		"data: {\"type\":\"content\",\"content\":\"world\"}\n\n" +
		"data: {\"type\":\"done\"}\n\n"

	whole := collectEvents(t, strings.NewReader(input))
	byteAtATime := collectEvents(t, iotest.OneByteReader(strings.NewReader(input)))

	if len(whole) != len(byteAtATime) {
		t.Fatalf("event count differs: whole=%d byteAtATime=%d", len(whole), len(byteAtATime))
	}
	for i := range whole {
		if whole[i] != byteAtATime[i] {
			t.Errorf("event %d differs: whole=%+v byteAtATime=%+v", i, whole[i], byteAtATime[i])
		}
	}
}

func TestDecoderSkipsMalformedFrames(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Event
	}{
		{
			name: "invalid json",
			input: "data: {not json}\n\n" +
				"data: {\"type\":\"content\",\"content\":\"ok\"}\n\n",
			want: []Event{{Type: EventContent, Text: "ok"}},
		},
		{
			name: "unknown type",
			input: "data: {\"type\":\"heartbeat\"}\n\n" +
				"data: {\"type\":\"done\"}\n\n",
			want: []Event{{Type: EventDone}},
		},
		{
			name: "frame without payload line",
			input: ": comment\n\n" +
				"data: {\"type\":\"content\",\"content\":\"after\"}\n\n",
			want: []Event{{Type: EventContent, Text: "after"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := collectEvents(t, strings.NewReader(tt.input))
			if len(events) != len(tt.want) {
				t.Fatalf("event count: got %d, want %d", len(events), len(tt.want))
			}
			for i, ev := range events {
				if ev != tt.want[i] {
					t.Errorf("event %d: got %+v, want %+v", i, ev, tt.want[i])
				}
			}
		})
	}
}

func TestDecoderDiscardsTrailingPartialFrame(t *testing.T) {
	input := "data: {\"type\":\"content\",\"content\":\"complete\"}\n\n" +
		"data: {\"type\":\"content\",\"cont" // stream cut mid-frame

	events := collectEvents(t, strings.NewReader(input))

	if len(events) != 1 {
		t.Fatalf("event count: got %d, want 1", len(events))
	}
	if events[0].Text != "complete" {
		t.Errorf("text: got %q, want %q", events[0].Text, "complete")
	}
}

func TestDecoderCRLFDelimiters(t *testing.T) {
	input := "data: {\"type\":\"content\",\"content\":\"a\"}\r\n\r\n" +
		"data: {\"type\":\"done\"}\r\n\r\n"

	events := collectEvents(t, strings.NewReader(input))

	expected := []Event{
		{Type: EventContent, Text: "a"},
		{Type: EventDone},
	}
	if len(events) != len(expected) {
		t.Fatalf("event count: got %d, want %d", len(events), len(expected))
	}
	for i, ev := range events {
		if ev != expected[i] {
			t.Errorf("event %d: got %+v, want %+v", i, ev, expected[i])
		}
	}
}

func TestDecoderThinkingMarkupPassedThrough(t *testing.T) {
	input := "data: {\"type\":\"content\",\"content\":\"<thinking>pla\"}\n\n" +
		"data: {\"type\":\"content\",\"content\":\"n</thinking>answer\"}\n\n"

	events := collectEvents(t, strings.NewReader(input))

	var joined strings.Builder
	for _, ev := range events {
		joined.WriteString(ev.Text)
	}
	if got := joined.String(); got != "<thinking>plan</thinking>answer" {
		t.Errorf("joined content: got %q", got)
	}
}

func TestDecoderPropagatesReadErrors(t *testing.T) {
	r := iotest.TimeoutReader(strings.NewReader("data: {\"type\":\"content\",\"content\":\"x\"}\n\npartial"))

	d := NewDecoder(r)
	ev, err := d.Next()
	if err != nil {
		t.Fatalf("first event: unexpected error %v", err)
	}
	if ev.Text != "x" {
		t.Errorf("first event text: got %q, want %q", ev.Text, "x")
	}

	_, err = d.Next()
	if err != iotest.ErrTimeout {
		t.Errorf("got %v, want %v", err, iotest.ErrTimeout)
	}
}
