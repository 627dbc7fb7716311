// Package ident extracts canonical keys from loosely formatted session identifiers, so that
// pose folder names can be joined against spreadsheet rows.
//
// Identifiers look like "20230115_ABC_2": an 8-digit date, an uppercase site/suffix code and a
// single-digit sequence number, possibly surrounded by other text. Only the date and the suffix
// take part in matching; the sequence number is ignored.
package ident

import "regexp"

var pattern = regexp.MustCompile(`(\d{8})_([A-Z]+)_\d`)

// Key is the canonical part of an identifier
type Key struct {
	Date   string
	Suffix string
}

func (k Key) String() string {
	return k.Date + "_" + k.Suffix
}

// Canonicalize returns the Key found in s, using the first occurrence of the pattern. The
// second return value is false if s has no key.
func Canonicalize(s string) (Key, bool) {
	m := pattern.FindStringSubmatch(s)
	if m == nil {
		return Key{}, false
	}

	return Key{Date: m[1], Suffix: m[2]}, true
}

// Matches returns whether or not both strings have keys and those keys are equal. Strings
// without keys never match anything, including each other.
func Matches(a, b string) bool {
	ka, ok := Canonicalize(a)
	if !ok {
		return false
	}

	kb, ok := Canonicalize(b)
	return ok && ka == kb
}
