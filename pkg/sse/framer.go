package sse

import "strings"

// LineFramer splits decoded text into complete lines. The text after the last
// newline is buffered until a later Push completes it, so no line is ever
// returned before its newline has been seen and no line is returned twice.
type LineFramer struct {
	pending strings.Builder
}

// Push appends text to the pending buffer and returns every line it completes,
// in order. A trailing "\r" is stripped from each line.
func (f *LineFramer) Push(text string) []string {
	if !strings.Contains(text, "\n") {
		f.pending.WriteString(text)
		return nil
	}

	f.pending.WriteString(text)
	buf := f.pending.String()
	f.pending.Reset()

	parts := strings.Split(buf, "\n")
	f.pending.WriteString(parts[len(parts)-1])

	lines := parts[:len(parts)-1]
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	return lines
}

// Pending returns the buffered, not yet terminated tail.
func (f *LineFramer) Pending() string {
	return f.pending.String()
}

// Flush returns the buffered tail as a final line and clears the buffer.
// It returns false when nothing is buffered.
func (f *LineFramer) Flush() (string, bool) {
	if f.pending.Len() == 0 {
		return "", false
	}

	line := strings.TrimSuffix(f.pending.String(), "\r")
	f.pending.Reset()
	return line, true
}
