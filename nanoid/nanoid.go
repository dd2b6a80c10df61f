package nanoid

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	defaultSize = 16

	Number        = "0123456789"
	Lowercase     = "abcdefghijklmnopqrstuvwxyz"
	Uppercase     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	NumLowerUpper = Number + Lowercase + Uppercase
)

func getSize(l ...int) int {
	size := defaultSize
	if len(l) > 0 && l[0] > 0 {
		size = l[0]
	}
	return size
}

// Must generate optional length nanoid with the default url-safe alphabet
func Must(l ...int) string {
	return gonanoid.Must(getSize(l...))
}

// String generate optional length alphanumeric nanoid
func String(l ...int) string {
	return gonanoid.MustGenerate(NumLowerUpper, getSize(l...))
}

// Lower generate optional length lowercase alphanumeric nanoid
func Lower(l ...int) string {
	return gonanoid.MustGenerate(Number+Lowercase, getSize(l...))
}

// Numeric generate optional length numeric nanoid
func Numeric(l ...int) string {
	return gonanoid.MustGenerate(Number, getSize(l...))
}
