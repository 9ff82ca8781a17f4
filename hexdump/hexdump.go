package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/Moonlight-Companies/gologger/coloransi"
)

// HexDumpOptions defines options for customizing the hexdump output
type HexDumpOptions struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// StartOffset is the address of the first byte
	StartOffset uint64

	// OffsetWidth is the width of the offset column in hex digits
	OffsetWidth int

	// Highlight reports whether the byte at an address should stand out
	Highlight func(addr uint64) bool

	// Color enables ANSI colour for highlighted bytes and the offset column
	Color bool
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() HexDumpOptions {
	return HexDumpOptions{
		BytesPerLine: 16,
		OffsetWidth:  12,
	}
}

// Dump creates a hex dump of the given data with specified options
func Dump(data []byte, options HexDumpOptions) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(writer io.Writer, data []byte, options HexDumpOptions) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 12
	}

	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		end := min(offset+options.BytesPerLine, len(data))
		formatLine(writer, data[offset:end], options.StartOffset+uint64(offset), options)
	}
}

// formatLine formats a single line of the hex dump
func formatLine(writer io.Writer, data []byte, addr uint64, options HexDumpOptions) {
	offsetStr := fmt.Sprintf("%0*x", options.OffsetWidth, addr)
	if options.Color {
		offsetStr = coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, offsetStr)
	}
	fmt.Fprint(writer, offsetStr, "  ")

	var ascii strings.Builder
	for i := 0; i < options.BytesPerLine; i++ {
		if i > 0 {
			fmt.Fprint(writer, " ")
		}
		if i == options.BytesPerLine/2 && i > 0 {
			fmt.Fprint(writer, " ")
		}
		if i >= len(data) {
			fmt.Fprint(writer, "  ")
			continue
		}

		b := data[i]
		hexValue := fmt.Sprintf("%02x", b)
		char := "."
		if b != 0 && b < unicode.MaxASCII && unicode.IsPrint(rune(b)) {
			char = string(rune(b))
		}

		if options.Highlight != nil && options.Highlight(addr+uint64(i)) {
			if options.Color {
				hexValue = coloransi.Color(coloransi.Red, coloransi.ColorOrange, hexValue)
				char = coloransi.Color(coloransi.Red, coloransi.ColorOrange, char)
			} else {
				char = strings.ToUpper(char)
			}
		}

		fmt.Fprint(writer, hexValue)
		ascii.WriteString(char)
	}

	fmt.Fprintln(writer, "  |"+ascii.String()+"|")
}
