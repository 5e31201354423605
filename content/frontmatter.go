package content

import (
	"bytes"
	"fmt"
)

var (
	bom       = []byte{0xef, 0xbb, 0xbf}
	delim     = []byte("---")
	delimLine = []byte("\n---")
)

// ParseFrontmatter splits a markdown document into its raw YAML
// frontmatter and body. The document must begin with a "---" line; the
// next line beginning with "---" closes the block. Content files carry
// their metadata in frontmatter, so a missing block is an error rather
// than an empty result.
func ParseFrontmatter(data []byte) (meta, body []byte, err error) {
	data = bytes.TrimPrefix(data, bom)
	if !bytes.HasPrefix(data, delim) {
		return nil, nil, fmt.Errorf("missing opening --- delimiter")
	}
	rest := data[len(delim):]
	nl := bytes.IndexByte(rest, '\n')
	if nl < 0 {
		return nil, nil, fmt.Errorf("missing closing --- delimiter")
	}
	rest = rest[nl+1:]

	end := bytes.Index(rest, delimLine)
	if end < 0 {
		return nil, nil, fmt.Errorf("missing closing --- delimiter")
	}
	meta = rest[:end]

	// Skip the remainder of the closing delimiter line.
	body = rest[end+len(delimLine):]
	if nl := bytes.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = nil
	}
	return meta, body, nil
}
