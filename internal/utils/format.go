package utils

import "github.com/dustin/go-humanize"

// ConvertBytesToHumanReadable formats a byte count as "1.2 kB"
func ConvertBytesToHumanReadable(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
