package lyrics

import (
	"bufio"
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/llehouerou/tide/internal/media"
)

// tickLine is a structured lyric line with a tick-based start time, as
// returned by the server's lyrics endpoint.
type tickLine struct {
	Start int64  `json:"Start"`
	Text  string `json:"Text"`
}

// tickPayload is the structured lyrics envelope.
type tickPayload struct {
	Lyrics []tickLine `json:"Lyrics"`
}

// Matches a leading timestamp like [00:12.34] or [00:12].
var timestampRe = regexp.MustCompile(`^\[(\d+):(\d+)(?:[.:](\d+))?\]`)

// Parse builds a timeline from a raw lyrics payload, detecting the format
// by shape: structured JSON with tick-based starts, line-prefixed
// timestamp text, or unstructured plain text. Lines without extractable
// text are discarded. Returns nil for an empty payload.
func Parse(payload []byte) *Timeline {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil
	}

	if trimmed[0] == '{' || (trimmed[0] == '[' && looksStructured(trimmed)) {
		if tl := parseStructured(trimmed); tl != nil {
			return tl
		}
	}

	return parseText(trimmed)
}

// looksStructured distinguishes a JSON array payload from LRC text, which
// also starts with '['.
func looksStructured(payload []byte) bool {
	return !timestampRe.Match(payload)
}

// parseStructured parses tick-based structured lyrics. Returns nil if the
// payload is not valid structured lyrics.
func parseStructured(payload []byte) *Timeline {
	var lines []tickLine

	if payload[0] == '{' {
		var envelope tickPayload
		if err := json.Unmarshal(payload, &envelope); err != nil {
			return nil
		}
		lines = envelope.Lyrics
	} else {
		if err := json.Unmarshal(payload, &lines); err != nil {
			return nil
		}
	}
	if len(lines) == 0 {
		return nil
	}

	tl := &Timeline{}
	for _, l := range lines {
		text := strings.TrimSpace(l.Text)
		if text == "" {
			continue
		}
		tl.Lines = append(tl.Lines, Line{
			Start: media.TicksToDuration(l.Start),
			Text:  text,
		})
		if l.Start > 0 {
			tl.Synced = true
		}
	}
	if len(tl.Lines) == 0 {
		return nil
	}
	return tl
}

// parseText parses timestamp-prefixed or plain text lyrics. Input order is
// preserved, including duplicate timestamps.
func parseText(payload []byte) *Timeline {
	tl := &Timeline{}
	scanner := bufio.NewScanner(bytes.NewReader(payload))

	for scanner.Scan() {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		m := timestampRe.FindStringSubmatch(raw)
		if m == nil {
			// Plain line: no timeline position.
			tl.Lines = append(tl.Lines, Line{Text: raw})
			continue
		}

		text := strings.TrimSpace(raw[len(m[0]):])
		if text == "" {
			continue
		}
		tl.Lines = append(tl.Lines, Line{
			Start: timestampToDuration(m),
			Text:  text,
		})
		tl.Synced = true
	}

	if len(tl.Lines) == 0 {
		return nil
	}
	return tl
}

// timestampToDuration converts matched [mm:ss.xx] groups to a duration.
func timestampToDuration(m []string) time.Duration {
	minutes, _ := strconv.Atoi(m[1])
	seconds, _ := strconv.Atoi(m[2])

	var millis int
	if m[3] != "" {
		millis, _ = strconv.Atoi(m[3])
		// Two digits are centiseconds, three are milliseconds.
		if len(m[3]) == 2 {
			millis *= 10
		}
	}

	return time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
}
