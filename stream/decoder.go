package stream

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"canvaschat/config"
)

// frameMarker prefixes the payload line of every frame.
const frameMarker = "data: "

// wireFrame is the JSON body of one frame. Unknown fields are ignored.
type wireFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Name    string `json:"name"`
	Status  string `json:"status"`
	Result  string `json:"result"`
}

// Decoder turns a raw response body into a sequence of typed events. Frames
// split across physical reads are buffered until a complete blank-line
// delimiter is observed; a trailing partial frame at end-of-stream is
// discarded as an aborted frame, not reported as an error.
type Decoder struct {
	r       io.Reader
	buf     []byte
	readBuf []byte
	readErr error
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:       r,
		readBuf: make([]byte, 4096),
	}
}

// Next returns the next decoded event. It reads from the underlying stream
// as needed and returns io.EOF (or the read error) once no complete frame
// remains. Malformed frames are skipped with a warning; one bad frame never
// aborts the stream.
func (d *Decoder) Next() (Event, error) {
	for {
		for {
			frame, ok := d.takeFrame()
			if !ok {
				break
			}
			ev, ok := decodeFrame(frame)
			if !ok {
				continue
			}
			return ev, nil
		}

		if d.readErr != nil {
			if len(d.buf) > 0 && config.DebugLog != nil {
				config.DebugLog.Printf("[Stream] Discarding %d bytes of incomplete trailing frame", len(d.buf))
			}
			return Event{}, d.readErr
		}

		n, err := d.r.Read(d.readBuf)
		if n > 0 {
			d.buf = append(d.buf, d.readBuf[:n]...)
		}
		if err != nil {
			d.readErr = err
		}
	}
}

// takeFrame removes and returns the first complete frame from the buffer.
// The delimiter is two consecutive line breaks; CRLF streams are tolerated.
func (d *Decoder) takeFrame() ([]byte, bool) {
	lf := bytes.Index(d.buf, []byte("\n\n"))
	crlf := bytes.Index(d.buf, []byte("\r\n\r\n"))

	idx, width := lf, 2
	if idx == -1 || (crlf != -1 && crlf < idx) {
		idx, width = crlf, 4
	}
	if idx == -1 {
		return nil, false
	}

	frame := d.buf[:idx]
	d.buf = d.buf[idx+width:]
	return frame, true
}

// decodeFrame parses one frame into an event. Returns false for frames that
// should be skipped: no payload line, undecodable JSON, or an unknown type.
func decodeFrame(frame []byte) (Event, bool) {
	var payload string
	for _, line := range strings.Split(string(frame), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, frameMarker) {
			payload = line[len(frameMarker):]
			break
		}
	}
	if payload == "" {
		return Event{}, false
	}

	var wf wireFrame
	if err := json.Unmarshal([]byte(payload), &wf); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Stream] Skipping malformed frame: %v", err)
		}
		return Event{}, false
	}

	switch wf.Type {
	case "reasoning":
		return Event{Type: EventReasoning, Text: wf.Content}, true
	case "content":
		// Legacy servers leak inline thinking markup on this channel.
		// The text is passed through untouched; finalize extracts the
		// markup from the accumulated buffer, which also works when a
		// span is split across chunks.
		return Event{Type: EventContent, Text: wf.Content}, true
	case "tool_call":
		return Event{Type: EventToolCall, Name: wf.Name, Status: wf.Status, Result: wf.Result}, true
	case "done":
		return Event{Type: EventDone}, true
	case "error":
		return Event{Type: EventError, Text: wf.Content}, true
	default:
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Stream] Skipping frame with unknown type %q", wf.Type)
		}
		return Event{}, false
	}
}
