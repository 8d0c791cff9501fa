// iojson are utilities for writing JSON from a command line interface
// perspective
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// Error is the standard error format type that is returned when errors
// happen.
type Error struct {
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func jsonError(msg string, jsonErr error) string {
	msgBytes, _ := json.Marshal(msg)
	errBytes, _ := json.Marshal(jsonErr.Error())
	return fmt.Sprintf(`{"message":%s,"data":{"json_error":%s}}`, msgBytes, errBytes)
}

// MarshalError builds the JSON error document for msg. If marshaling fails a
// hand-built document carrying the marshal error is returned instead.
func MarshalError(msg string, data map[string]any) string {
	resp := Error{Message: msg, Data: data}

	bits, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return jsonError(msg, err)
	}

	return string(bits)
}

// WriteError prints the JSON error document to stderr.
func WriteError(str string, data map[string]any) error {
	_, err := fmt.Fprintln(os.Stderr, MarshalError(str, data))
	return err
}

// WriteWith writes obj as indented JSON to w, reporting marshal failures on ew.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_, err = fmt.Fprintln(ew, jsonError("error marshaling in iojson.Write", err))
		return err
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}

// Write calls WriteWith with [os.Stdout] and [os.Stderr]
func Write(obj any) error {
	return WriteWith(os.Stdout, os.Stderr, obj)
}

// LineWriter writes one compact JSON document per line. Safe for concurrent
// use, which matters for streams fed from several goroutines.
type LineWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewLineWriter creates a LineWriter on w.
func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{enc: json.NewEncoder(w)}
}

// Write encodes obj followed by a newline.
func (lw *LineWriter) Write(obj any) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if err := lw.enc.Encode(obj); err != nil {
		return fmt.Errorf("encode line: %w", err)
	}
	return nil
}
