package querystring

import (
	"regexp"
	"strings"
)

const boundary = `[ "\[\]{}()]`

var (
	specialChars = regexp.MustCompile(`([\\+\-&|!(){}\[\]^~*?:/])`)
	lastQuote    = regexp.MustCompile(`"([^"]*)$`)
)

// augment rewrites every standalone occurrence of term in str. A term is
// standalone when it sits between boundary characters or the ends of the
// string; a leading + or - stays in front of the rewritten term.
func augment(str, term string, wildcard, fuzzy bool) string {
	quoted := regexp.QuoteMeta(term)
	patterns := [4]*regexp.Regexp{
		regexp.MustCompile(`(?i)(` + boundary + `[+\-]?)` + quoted + `(` + boundary + `)`),
		regexp.MustCompile(`(?i)^([+\-]?)` + quoted + `(` + boundary + `)`),
		regexp.MustCompile(`(?i)(` + boundary + `[+\-]?)` + quoted + `$`),
		regexp.MustCompile(`(?i)^([+\-]?)` + quoted + `$`),
	}

	repl := replacement(term, wildcard, fuzzy)
	for i, re := range patterns {
		tmpl := "${1}" + repl
		if i < 2 {
			tmpl += "${2}"
		}
		str = re.ReplaceAllString(str, tmpl)
	}
	return str
}

func replacement(term string, wildcard, fuzzy bool) string {
	t := strings.ReplaceAll(term, "$", "$$")
	switch {
	case wildcard && fuzzy:
		return "(" + t + "* OR " + t + "* OR " + t + "~)"
	case wildcard:
		return t + "*"
	default:
		return t + "~"
	}
}

// escapeTerm backslash-escapes the special characters of every occurrence of
// term in str, keeping the case the user typed.
func escapeTerm(str, term string) string {
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term))
	return re.ReplaceAllStringFunc(str, func(m string) string {
		return specialChars.ReplaceAllString(m, `\${1}`)
	})
}

// escape backslash-escapes the Lucene special characters and, when the
// double quotes are unbalanced, the last one.
func escape(str string) string {
	str = specialChars.ReplaceAllString(str, `\${1}`)
	if (strings.Count(str, `"`)-strings.Count(str, `\"`))%2 == 1 {
		str = lastQuote.ReplaceAllString(str, `\"${1}`)
	}
	return str
}
