package grab

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"
	"unicode/utf8"
)

// isoLayout matches the millisecond ISO-8601 form existing state files carry
// ("2024-05-01T09:30:00.000Z").
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// wireRecord is the persisted shape of a FileRecord.
type wireRecord struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         *int64 `json:"size"`
	DateModified string `json:"dateModified"`
}

// Encode serializes records as a JSON array. A nil or empty slice encodes as "[]".
// Paths and names must be valid UTF-8; JSON would silently rewrite anything else.
func Encode(records []FileRecord) ([]byte, error) {
	out := make([]wireRecord, 0, len(records))
	for i, r := range records {
		if !utf8.ValidString(r.Path) || !utf8.ValidString(r.Name) {
			return nil, fmt.Errorf("record %d: path %q is not valid UTF-8", i, r.Path)
		}
		size := r.Size
		out = append(out, wireRecord{
			Path:         r.Path,
			Name:         r.Name,
			Size:         &size,
			DateModified: r.ModifiedAt.UTC().Format(isoLayout),
		})
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode parses a persisted JSON array. Any shape mismatch fails the whole decode:
// unknown fields, missing path/name/size/dateModified, relative paths, negative
// sizes, bad timestamps, duplicate paths and trailing data are all rejected.
func Decode(data []byte) ([]FileRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var in []wireRecord
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode: trailing data after array")
	}
	if in == nil {
		return nil, errors.New("decode: expected array, got null")
	}

	seen := make(map[string]struct{}, len(in))
	out := make([]FileRecord, 0, len(in))
	for i, w := range in {
		switch {
		case w.Path == "":
			return nil, fmt.Errorf("record %d: missing path", i)
		case !filepath.IsAbs(w.Path):
			return nil, fmt.Errorf("record %d: path %q is not absolute", i, w.Path)
		case w.Name == "":
			return nil, fmt.Errorf("record %d: missing name", i)
		case w.Size == nil:
			return nil, fmt.Errorf("record %d: missing size", i)
		case *w.Size < 0:
			return nil, fmt.Errorf("record %d: negative size %d", i, *w.Size)
		}
		ts, err := time.Parse(time.RFC3339Nano, w.DateModified)
		if err != nil {
			return nil, fmt.Errorf("record %d: dateModified: %w", i, err)
		}
		if _, dup := seen[w.Path]; dup {
			return nil, fmt.Errorf("record %d: duplicate path %q", i, w.Path)
		}
		seen[w.Path] = struct{}{}
		out = append(out, FileRecord{Path: w.Path, Name: w.Name, Size: *w.Size, ModifiedAt: ts})
	}
	return out, nil
}
