package document

import (
	"bytes"
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// jsonTree builds a node tree carrying the exact line/column of every key
// and value of a JSON document, so JSON and YAML documents are located the
// same way.
func jsonTree(data []byte) (*yaml.Node, error) {
	w := &jsonWalker{
		data:  data,
		dec:   stdjson.NewDecoder(bytes.NewReader(data)),
		lines: lineStarts(data),
	}
	w.dec.UseNumber()

	node, err := w.value()
	if err != nil {
		return nil, err
	}
	if _, err := w.dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return node, nil
}

type jsonWalker struct {
	data  []byte
	dec   *stdjson.Decoder
	lines []int
}

// next reads a token and the offset where it starts. The decoder offset
// sits right after the previous token, before any separator.
func (w *jsonWalker) next() (stdjson.Token, int, error) {
	start := w.skip(int(w.dec.InputOffset()))
	tok, err := w.dec.Token()
	return tok, start, err
}

func (w *jsonWalker) skip(off int) int {
	for off < len(w.data) {
		switch w.data[off] {
		case ' ', '\t', '\r', '\n', ',', ':':
			off++
		default:
			return off
		}
	}
	return off
}

func (w *jsonWalker) value() (*yaml.Node, error) {
	tok, start, err := w.next()
	if err != nil {
		return nil, err
	}
	line, col := w.position(start)

	switch t := tok.(type) {
	case stdjson.Delim:
		switch t {
		case '{':
			node := &yaml.Node{Kind: yaml.MappingNode, Line: line, Column: col}
			for w.dec.More() {
				keyTok, keyStart, err := w.next()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, errors.New("object key is not a string")
				}
				keyLine, keyCol := w.position(keyStart)

				val, err := w.value()
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content,
					&yaml.Node{Kind: yaml.ScalarNode, Value: key, Line: keyLine, Column: keyCol},
					val,
				)
			}
			if _, err := w.dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		case '[':
			node := &yaml.Node{Kind: yaml.SequenceNode, Line: line, Column: col}
			for w.dec.More() {
				val, err := w.value()
				if err != nil {
					return nil, err
				}
				node.Content = append(node.Content, val)
			}
			if _, err := w.dec.Token(); err != nil {
				return nil, err
			}
			return node, nil
		}
		return nil, fmt.Errorf("unexpected %q", rune(t))
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: "null", Line: line, Column: col}, nil
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(t), Line: line, Column: col}, nil
	}
}

// position converts a byte offset into a 1-based line and a 1-based column
// counted in characters, as yaml.v3 reports them.
func (w *jsonWalker) position(off int) (int, int) {
	i := sort.Search(len(w.lines), func(i int) bool { return w.lines[i] > off }) - 1
	if i < 0 {
		i = 0
	}
	return i + 1, utf8.RuneCount(w.data[w.lines[i]:off]) + 1
}

func lineStarts(data []byte) []int {
	starts := []int{0}
	for i, b := range data {
		if b == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
