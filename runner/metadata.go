package runner

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

// ImplementationClasspathKey is the metadata property listing the plugin
// under test's classpath.
const ImplementationClasspathKey = "implementation-classpath"

// ErrPluginMetadataNotFound indicates the plugin-under-test metadata file is
// missing.
var ErrPluginMetadataNotFound = errors.New("plugin-under-test metadata not found")

// ReadPluginClasspath reads the implementation classpath from a
// plugin-under-test metadata file (Java properties format). Relative entries
// are resolved against the file's directory.
func ReadPluginClasspath(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrPluginMetadataNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open plugin metadata: %w", err)
	}
	defer f.Close()

	props, err := parseProperties(bufio.NewScanner(f))
	if err != nil {
		return nil, fmt.Errorf("read plugin metadata %s: %w", path, err)
	}

	value, ok := props[ImplementationClasspathKey]
	if !ok {
		return nil, fmt.Errorf("plugin metadata %s has no %s property", path, ImplementationClasspathKey)
	}

	baseDir := filepath.Dir(path)
	var classpath []string
	for _, entry := range filepath.SplitList(value) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(baseDir, entry)
		}
		classpath = append(classpath, entry)
	}
	return classpath, nil
}

// parseProperties reads key=value or key:value lines. Comment lines start
// with '#' or '!'; an unescaped trailing backslash continues the line.
func parseProperties(scanner *bufio.Scanner) (map[string]string, error) {
	props := make(map[string]string)
	var pending strings.Builder

	for scanner.Scan() {
		line := strings.TrimLeft(scanner.Text(), " \t\f")
		if pending.Len() == 0 && (line == "" || line[0] == '#' || line[0] == '!') {
			continue
		}

		if continues(line) {
			pending.WriteString(line[:len(line)-1])
			continue
		}
		pending.WriteString(line)
		logical := pending.String()
		pending.Reset()

		key, value := splitProperty(logical)
		props[unescapeProperty(key)] = unescapeProperty(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return props, nil
}

// continues reports whether line ends in an unescaped backslash, that is an
// odd number of trailing backslashes.
func continues(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

func splitProperty(line string) (string, string) {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '=', ':':
			return strings.TrimSpace(line[:i]), strings.TrimLeft(line[i+1:], " \t\f")
		}
	}
	return strings.TrimSpace(line), ""
}

func unescapeProperty(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			switch s[i] {
			case 't':
				sb.WriteByte('\t')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 'f':
				sb.WriteByte('\f')
			case 'u':
				r, n, ok := unicodeEscape(s[i+1:])
				if !ok {
					sb.WriteByte('u')
					continue
				}
				sb.WriteRune(r)
				i += n
			default:
				sb.WriteByte(s[i])
			}
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// unicodeEscape decodes the four hex digits following a \u, combining a
// UTF-16 surrogate pair written as two consecutive escapes. It returns the
// rune and the number of bytes consumed after the 'u'.
func unicodeEscape(s string) (rune, int, bool) {
	hi, ok := hex4(s)
	if !ok {
		return 0, 0, false
	}
	r := rune(hi)
	if utf16.IsSurrogate(r) && len(s) >= 10 && s[4] == '\\' && s[5] == 'u' {
		if lo, ok := hex4(s[6:]); ok {
			if pair := utf16.DecodeRune(r, rune(lo)); pair != unicode.ReplacementChar {
				return pair, 10, true
			}
		}
	}
	return r, 4, true
}

func hex4(s string) (uint64, bool) {
	if len(s) < 4 {
		return 0, false
	}
	v, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, false
	}
	return v, true
}
