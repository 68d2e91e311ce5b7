// Package text reads plain-text files into lines for profiling.
package text

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/umputun/lequel/pkg/trigram"
)

const defaultMaxLineSize = 1024 * 1024

// Options for Reader
type Options struct {
	Encoding    string // source encoding label (e.g. windows-1252, koi8-r), empty means utf-8
	MaxLineSize int    // longest accepted line in bytes, 1MB by default
}

// Reader loads text sources line by line
type Reader struct {
	encoding    string
	maxLineSize int
}

// NewReader makes a Reader with the given options
func NewReader(opts Options) *Reader {
	res := &Reader{encoding: opts.Encoding, maxLineSize: opts.MaxLineSize}
	if res.maxLineSize <= 0 {
		res.maxLineSize = defaultMaxLineSize
	}
	return res
}

// ReadFile reads all lines of the file at path, "-" reads stdin
func (r *Reader) ReadFile(path string) (trigram.Text, error) {
	if path == "-" {
		return r.Read(os.Stdin)
	}
	fh, err := os.Open(path) //nolint:gosec // path comes from the caller
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	res, err := r.Read(fh)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return res, nil
}

// Read splits src into lines on '\n'. A trailing '\r' stays in the line and is
// left for the profile builder to strip.
func (r *Reader) Read(src io.Reader) (trigram.Text, error) {
	if r.encoding != "" && !isUTF8(r.encoding) {
		enc, err := htmlindex.Get(r.encoding)
		if err != nil {
			return nil, fmt.Errorf("unsupported encoding %q: %w", r.encoding, err)
		}
		src = transform.NewReader(src, enc.NewDecoder())
	}

	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, min(64*1024, r.maxLineSize)), r.maxLineSize)
	scanner.Split(splitLines)

	res := trigram.Text{}
	for scanner.Scan() {
		res = append(res, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lines: %w", err)
	}
	return res, nil
}

// splitLines is bufio.ScanLines without dropping '\r'
func splitLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
