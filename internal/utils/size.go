package utils

import (
	"strconv"
	"strings"
)

var sizeUnits = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// FormatFileSize renders a byte count with a lower-case binary unit: 512b, 1.5kb, 10mb.
// Values below ten keep one decimal place unless it is zero.
func FormatFileSize(byteCount int64) string {
	if byteCount <= 0 {
		return "0" + sizeUnits[0]
	}
	if byteCount < 1024 {
		return strconv.FormatInt(byteCount, 10) + sizeUnits[0]
	}
	scaled := float64(byteCount)
	unitIndex := 0
	for scaled >= 1024 && unitIndex < len(sizeUnits)-1 {
		scaled /= 1024
		unitIndex++
	}
	precision := 0
	if scaled < 10 {
		precision = 1
	}
	formatted := strconv.FormatFloat(scaled, 'f', precision, 64)
	return strings.TrimSuffix(formatted, ".0") + sizeUnits[unitIndex]
}
