// Package snapshot defines the canonical representation of "current clipboard
// content". Binary payloads are always carried base64-encoded so that a
// Snapshot is safe to embed in JSON regardless of what is on the clipboard.
package snapshot

import "encoding/base64"

// MIME markers used throughout clipbridge.
const (
	MimeText = "text/plain"
	MimePNG  = "image/png"
)

// Snapshot is the clipboard's content plus its type metadata, computed fresh
// on demand and never stored. Content is base64 when Binary is true.
// An empty Content with Binary false means "empty/unavailable", which is
// not an error by itself.
type Snapshot struct {
	Content string
	Mime    string
	Binary  bool
}

// Empty returns the empty text snapshot.
func Empty() Snapshot {
	return Snapshot{Mime: MimeText}
}

// Text wraps a plain string.
func Text(s string) Snapshot {
	return Snapshot{Content: s, Mime: MimeText}
}

// Image wraps raw image bytes, encoding them for transport.
func Image(mime string, raw []byte) Snapshot {
	return Snapshot{
		Content: base64.StdEncoding.EncodeToString(raw),
		Mime:    mime,
		Binary:  true,
	}
}

// IsEmpty reports whether the snapshot carries no content.
func (s Snapshot) IsEmpty() bool {
	return s.Content == "" && !s.Binary
}
