// Package dateutil expands the "auto" date setting into the current date.
//
// Formats are built from tokens (YYYY, YY, MMMM, MM, M, DD, D). Text in
// brackets is copied literally; any other character is kept as is. MMMM
// is the month name in the document language: Russian documents get the
// genitive form used in dates ("12 марта 2026").
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidFormat indicates a malformed date format or auto value.
var ErrInvalidFormat = errors.New("invalid date format")

// maxFormatLength bounds user-supplied formats.
const maxFormatLength = 50

// DefaultFormat is used for a bare "auto".
const DefaultFormat = "YYYY-MM-DD"

// Presets are named formats accepted after "auto:".
var Presets = map[string]string{
	"iso":      "YYYY-MM-DD",
	"gost":     "DD.MM.YYYY",
	"european": "DD/MM/YYYY",
	"us":       "MM/DD/YYYY",
	"long":     "D MMMM YYYY",
}

var russianMonths = [12]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// tokens are matched longest first.
var tokens = []struct {
	name   string
	render func(t time.Time, lang string) string
}{
	{"YYYY", func(t time.Time, _ string) string { return fmt.Sprintf("%04d", t.Year()) }},
	{"MMMM", monthName},
	{"YY", func(t time.Time, _ string) string { return fmt.Sprintf("%02d", t.Year()%100) }},
	{"MM", func(t time.Time, _ string) string { return fmt.Sprintf("%02d", int(t.Month())) }},
	{"DD", func(t time.Time, _ string) string { return fmt.Sprintf("%02d", t.Day()) }},
	{"M", func(t time.Time, _ string) string { return strconv.Itoa(int(t.Month())) }},
	{"D", func(t time.Time, _ string) string { return strconv.Itoa(t.Day()) }},
}

func monthName(t time.Time, lang string) string {
	if lang == "ru" || strings.HasPrefix(lang, "ru-") {
		return russianMonths[t.Month()-1]
	}
	return t.Month().String()
}

// Format renders t with format in lang.
func Format(format string, t time.Time, lang string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidFormat)
	}
	if len(format) > maxFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidFormat, maxFormatLength)
	}

	var b strings.Builder
	for i := 0; i < len(format); {
		if format[i] == '[' {
			end := strings.IndexByte(format[i+1:], ']')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidFormat, i)
			}
			b.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}
		matched := false
		for _, tok := range tokens {
			if strings.HasPrefix(format[i:], tok.name) {
				b.WriteString(tok.render(t, lang))
				i += len(tok.name)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(format[i])
			i++
		}
	}
	return b.String(), nil
}

// Resolve expands "auto", "auto:FORMAT" and "auto:PRESET" (case-insensitive
// prefix and preset names) to t. Any other value, "Autumn 2026" included,
// is returned unchanged.
func Resolve(value string, t time.Time, lang string) (string, error) {
	lower := strings.ToLower(value)
	if lower == "auto" {
		return Format(DefaultFormat, t, lang)
	}
	if !strings.HasPrefix(lower, "auto:") {
		return value, nil
	}

	format := value[len("auto:"):]
	if preset, ok := Presets[strings.ToLower(format)]; ok {
		format = preset
	}
	return Format(format, t, lang)
}
