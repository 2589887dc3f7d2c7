// Package util holds small helpers shared by the drivers.
package util

import (
	"fmt"
	"strings"
)

// HexDump renders b like xxd: a hex offset, bytesPerRow bytes in hex with an extra space
// every 8, then the printable ASCII of the row. Unprintable bytes show as '.'.
func HexDump(b []byte, bytesPerRow int) string {
	if bytesPerRow <= 0 {
		bytesPerRow = 16
	}
	var out strings.Builder
	for first := 0; first < len(b); first += bytesPerRow {
		fmt.Fprintf(&out, "%08x :", first)
		ascii := make([]byte, 0, bytesPerRow)
		for j := first; j < first+bytesPerRow; j++ {
			if j%8 == 0 {
				out.WriteByte(' ')
			}
			if j >= len(b) {
				out.WriteString("   ")
				ascii = append(ascii, ' ')
				continue
			}
			fmt.Fprintf(&out, " %02x", b[j])
			if b[j] < 32 || b[j] > 126 {
				ascii = append(ascii, '.')
			} else {
				ascii = append(ascii, b[j])
			}
		}
		fmt.Fprintf(&out, "  %s\n", ascii)
	}
	return out.String()
}
