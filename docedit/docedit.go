// Package docedit edits the fixture sections of a YAML document in place,
// leaving every other line untouched. Documents routinely carry tags and
// anchors that a full decode and re-encode would lose, so blocks are located
// by indentation and only their text is replaced.
package docedit

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/dedent"
	"gopkg.in/yaml.v3"
)

// Keys of the blocks Rewrite manages.
const (
	ClientsKey  = "clients"
	SessionsKey = "sessions"
)

// Block is the text of one key's value within a document.
type Block struct {
	// Key is empty for the document root.
	Key     string
	KeyLine string
	// Body is the dedented text under the key line.
	Body string
	// Start is the absolute line index of the body's first line, or -1 when
	// the key is not present.
	Start int
	// End is the absolute line index one past the body's last line.
	End int
}

// KeyIndex returns the line index of the key line. The root block reports 0.
func (b Block) KeyIndex() int {
	return max(0, b.Start-1)
}

// Found reports whether the key is present in the document.
func (b Block) Found() bool {
	return b.Start != -1
}

// OuterBody returns the key line followed by the body indented under it.
func (b Block) OuterBody() string {
	if b.Key == "" {
		return b.Body
	}
	return b.KeyLine + "\n" + indent(b.Body, "  ")
}

// Normalize strips carriage returns, removes the common indentation and
// trims surrounding blank space.
func Normalize(contents string) string {
	contents = strings.ReplaceAll(contents, "\r", "")
	return strings.TrimSpace(dedent.Dedent(contents))
}

// Root returns the block spanning a normalized document.
func Root(contents string) Block {
	return Block{Body: contents, Start: 0, End: 1 + strings.Count(contents, "\n")}
}

// Find returns the block for key among parent's top-level entries. The body
// runs until the first line that is not indented; blank lines inside it are
// kept, trailing ones are not.
func Find(key string, parent Block) Block {
	missing := Block{Key: key, KeyLine: key + ":", Start: -1, End: -1}
	if !parent.Found() {
		return missing
	}

	lines := strings.Split(parent.Body, "\n")
	start := -1
	for i, line := range lines {
		if isTopLevel(line) && strings.HasPrefix(strings.TrimSpace(line), key+":") {
			start = i
			break
		}
	}
	if start == -1 {
		return missing
	}

	n := 0
	for i := start + 1; i < len(lines); i++ {
		line := lines[i]
		if strings.HasPrefix(line, " ") {
			n = i - start
			continue
		}
		if strings.TrimSpace(line) != "" {
			break
		}
	}

	offset := parent.Start + start + 1
	return Block{
		Key:     key,
		KeyLine: lines[start],
		Body:    dedent.Dedent(strings.Join(lines[start+1:start+1+n], "\n")),
		Start:   offset,
		End:     offset + n,
	}
}

func isTopLevel(line string) bool {
	return line != "" && line[0] != ' ' && line[0] != '\t' && line[0] != '#'
}

// Extract locates the clients and sessions blocks under prefix. The third
// result is the block the prefix leads to; it is not Found when some prefix
// key is absent.
func Extract(contents string, prefix []string) (clients, sessions, parent Block) {
	parent = Root(Normalize(contents))
	for _, key := range prefix {
		parent = Find(key, parent)
	}
	return Find(ClientsKey, parent), Find(SessionsKey, parent), parent
}

// Rewrite replaces the clients and sessions blocks under prefix with the
// entries of configs and returns the new document. Blocks whose
// configuration is empty are removed. Missing blocks, and missing prefix
// keys, are inserted right after their parent's key line.
func Rewrite(contents string, configs map[string]any, prefix []string) (string, error) {
	body := Normalize(contents)
	lines := strings.Split(body, "\n")

	// Walk down as far as the prefix exists.
	parent := Root(body)
	depth := 0
	for ; depth < len(prefix); depth++ {
		next := Find(prefix[depth], parent)
		if !next.Found() {
			break
		}
		if value := inlineValue(next); value != "" && next.End == next.Start {
			return rewriteInline(lines, next, prefix[depth+1:], configs, value)
		}
		parent = next
	}

	if depth < len(prefix) {
		var err error
		lines, err = insertPrefix(lines, parent, prefix[depth:], configs)
		if err != nil {
			return "", err
		}
		return join(lines), nil
	}

	// Highest line first so earlier indexes stay valid. Missing blocks sort
	// last and are inserted at the same line, sessions before clients so that
	// clients ends up on top.
	blocks := []Block{Find(SessionsKey, parent), Find(ClientsKey, parent)}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Start > blocks[j].Start })

	// Taken before any edit moves the parent's first body line.
	newIndent := childIndent(lines, parent)
	for _, block := range blocks {
		var err error
		lines, err = replaceBlock(lines, configs, block, parent, newIndent)
		if err != nil {
			return "", err
		}
	}
	return join(lines), nil
}

func replaceBlock(lines []string, configs map[string]any, block, parent Block, newIndent string) ([]string, error) {
	prefix := newIndent
	if block.Found() {
		prefix = leadingSpace(lines[block.KeyIndex()])
	}

	var body []string
	if data := configs[block.Key]; !isEmpty(data) {
		text, err := serialize(map[string]any{block.Key: data}, prefix)
		if err != nil {
			return nil, err
		}
		body = []string{text}
	}

	var before, after []string
	if block.Found() {
		before, after = lines[:block.KeyIndex()], lines[block.End:]
	} else {
		at := insertionIndex(parent)
		before, after = lines[:at], lines[at:]
	}
	return splice(before, body, after), nil
}

// insertPrefix creates the missing prefix keys under parent, holding the
// non-empty configuration blocks.
func insertPrefix(lines []string, parent Block, keys []string, configs map[string]any) ([]string, error) {
	value, ok := nested(keys[1:], configs)
	if !ok {
		return lines, nil
	}
	text, err := serialize(map[string]any{keys[0]: value}, childIndent(lines, parent))
	if err != nil {
		return nil, err
	}
	at := insertionIndex(parent)
	return splice(lines[:at], []string{text}, lines[at:]), nil
}

// rewriteInline replaces the key line of a prefix key whose empty value is
// written inline ("test: {}") with a block holding the configuration. Any
// other inline value cannot take children and is an error.
func rewriteInline(lines []string, block Block, keys []string, configs map[string]any, value string) (string, error) {
	switch value {
	case "{}", "null", "~":
	default:
		return "", fmt.Errorf("key %q holds the inline value %s; it must be a mapping block", block.Key, value)
	}

	inner, ok := nested(keys, configs)
	if !ok {
		return join(lines), nil
	}
	at := block.KeyIndex()
	text, err := serialize(map[string]any{block.Key: inner}, leadingSpace(lines[at]))
	if err != nil {
		return "", err
	}
	return join(splice(lines[:at], []string{text}, lines[block.End:])), nil
}

// nested wraps the non-empty configuration blocks in keys, outermost first.
// It reports false when there is nothing to write.
func nested(keys []string, configs map[string]any) (any, bool) {
	inner := map[string]any{}
	for _, key := range []string{ClientsKey, SessionsKey} {
		if data := configs[key]; !isEmpty(data) {
			inner[key] = data
		}
	}
	if len(inner) == 0 {
		return nil, false
	}

	var value any = inner
	for i := len(keys) - 1; i >= 0; i-- {
		value = map[string]any{keys[i]: value}
	}
	return value, true
}

// inlineValue returns the value written on block's key line, without a
// trailing comment.
func inlineValue(block Block) string {
	_, rest, _ := strings.Cut(block.KeyLine, block.Key+":")
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "#") {
		return ""
	}
	if before, _, ok := strings.Cut(rest, " #"); ok {
		rest = strings.TrimSpace(before)
	}
	return rest
}

// insertionIndex is the line new children of parent are inserted at: the top
// of the document for the root, otherwise just below the key line.
func insertionIndex(parent Block) int {
	if parent.Key == "" {
		return 0
	}
	return parent.KeyIndex() + 1
}

// childIndent returns the indentation of parent's entries: that of its first
// body line, or one level under its key line when it has no body.
func childIndent(lines []string, parent Block) string {
	if parent.Key == "" {
		return ""
	}
	for i := parent.Start; i < parent.End && i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return leadingSpace(lines[i])
		}
	}
	return leadingSpace(lines[parent.KeyIndex()]) + "  "
}

func serialize(value map[string]any, prefix string) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(value); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return strings.TrimRight(indent(buf.String(), prefix), " \n"), nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case string:
		return t == ""
	}
	return false
}

func splice(before, middle, after []string) []string {
	out := make([]string, 0, len(before)+len(middle)+len(after))
	out = append(out, before...)
	out = append(out, middle...)
	return append(out, after...)
}

func join(lines []string) string {
	return strings.TrimRight(strings.Join(lines, "\n"), "\n") + "\n"
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// indent prefixes every non-blank line of text.
func indent(text, prefix string) string {
	if prefix == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
