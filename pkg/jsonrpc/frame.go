package jsonrpc

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// WriteMessage marshals v onto w as a single newline-terminated line and
// flushes, so the peer sees the message before the caller blocks on a reply.
func WriteMessage(w *bufio.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}

// ReadLine returns the next line from r without its terminator. A final
// unterminated line is still returned; the EOF surfaces on the next call.
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
