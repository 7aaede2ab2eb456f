package lexicon

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexicon rewrites text into a form the speech model pronounces well.
// Entries run once each, in file order.
type Lexicon struct {
	entries []entry
}

type entry interface {
	rewrite(text string) string
}

// Empty returns a lexicon that leaves text untouched.
func Empty() *Lexicon {
	return &Lexicon{}
}

// Load reads a lexicon file. A blank path or a missing file yields an empty lexicon.
//
// Each non-blank, non-comment line is either
//
//	term => spoken
//	s/pattern/replacement/flags
//
// Terms match case-insensitively on word boundaries. Patterns use RE2 syntax;
// flags are i (ignore case), g (every match), m and s.
func Load(path string) (*Lexicon, error) {
	if strings.TrimSpace(path) == "" {
		return Empty(), nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Empty(), nil
		}
		return nil, fmt.Errorf("failed to read lexicon %q: %w", path, err)
	}

	lex, err := Parse(string(contents))
	if err != nil {
		return nil, fmt.Errorf("failed to parse lexicon %q: %w", path, err)
	}
	return lex, nil
}

// Parse compiles lexicon entries from their text form.
func Parse(contents string) (*Lexicon, error) {
	lines := strings.Split(contents, "\n")
	entries := make([]entry, 0, len(lines))

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var (
			parsed entry
			err    error
		)
		isTerm := strings.Contains(line, "=>")
		switch {
		case isSubstitution(line):
			parsed, err = parseSubstitution(line)
			// "s.t. => such that" looks like a substitution but is a term.
			if err != nil && isTerm {
				parsed, err = parseTerm(line)
			}
		case isTerm:
			parsed, err = parseTerm(line)
		default:
			err = errors.New("expected \"term => spoken\" or \"s/pattern/replacement/\"")
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		entries = append(entries, parsed)
	}

	return &Lexicon{entries: entries}, nil
}

// Apply implements ports.PronunciationLexicon.
func (l *Lexicon) Apply(text string) string {
	if l == nil {
		return text
	}
	for _, e := range l.entries {
		text = e.rewrite(text)
	}
	return text
}

// Len returns the number of compiled entries.
func (l *Lexicon) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

type termEntry struct {
	re     *regexp.Regexp
	spoken string
}

func parseTerm(line string) (entry, error) {
	term, spoken, _ := strings.Cut(line, "=>")
	term = strings.TrimSpace(term)
	spoken = strings.TrimSpace(spoken)
	if term == "" {
		return nil, errors.New("term cannot be empty")
	}

	pattern := regexp.QuoteMeta(term)
	if startsWithWordChar(term) {
		pattern = `\b` + pattern
	}
	if endsWithWordChar(term) {
		pattern += `\b`
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid term %q: %w", term, err)
	}
	return termEntry{re: re, spoken: spoken}, nil
}

func (e termEntry) rewrite(text string) string {
	return e.re.ReplaceAllLiteralString(text, e.spoken)
}

type substitutionEntry struct {
	re          *regexp.Regexp
	replacement string
	all         bool
}

func isSubstitution(line string) bool {
	if len(line) < 2 || line[0] != 's' {
		return false
	}
	r, _ := utf8.DecodeRuneInString(line[1:])
	return r < utf8.RuneSelf && !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r)
}

func parseSubstitution(line string) (entry, error) {
	delim := line[1]

	pattern, next, err := readDelimited(line, 2, delim)
	if err != nil {
		return nil, fmt.Errorf("pattern: %w", err)
	}
	replacement, next, err := readDelimited(line, next, delim)
	if err != nil {
		return nil, fmt.Errorf("replacement: %w", err)
	}

	var inline string
	all := false
	for _, flag := range strings.TrimSpace(line[next:]) {
		switch flag {
		case 'g':
			all = true
		case 'i', 'm', 's':
			if !strings.ContainsRune(inline, flag) {
				inline += string(flag)
			}
		default:
			return nil, fmt.Errorf("unsupported flag %q", flag)
		}
	}
	if inline != "" {
		pattern = "(?" + inline + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern: %w", err)
	}
	return substitutionEntry{re: re, replacement: replacement, all: all}, nil
}

func (e substitutionEntry) rewrite(text string) string {
	if e.all {
		return e.re.ReplaceAllString(text, e.replacement)
	}

	loc := e.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return text
	}
	expanded := e.re.ExpandString(nil, e.replacement, text, loc)
	return text[:loc[0]] + string(expanded) + text[loc[1]:]
}

// readDelimited reads up to the next unescaped delim. Escapes other than an
// escaped delimiter are kept for the regexp compiler.
func readDelimited(line string, start int, delim byte) (string, int, error) {
	var b strings.Builder
	for i := start; i < len(line); i++ {
		c := line[i]
		if c == '\\' && i+1 < len(line) {
			if line[i+1] == delim {
				b.WriteByte(delim)
			} else {
				b.WriteByte(c)
				b.WriteByte(line[i+1])
			}
			i++
			continue
		}
		if c == delim {
			return b.String(), i + 1, nil
		}
		b.WriteByte(c)
	}
	return "", 0, errors.New("missing closing delimiter")
}

func startsWithWordChar(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return isASCIIWord(r)
}

func endsWithWordChar(s string) bool {
	r, _ := utf8.DecodeLastRuneInString(s)
	return isASCIIWord(r)
}

// isASCIIWord mirrors RE2's \b, which only knows ASCII word characters.
func isASCIIWord(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}
