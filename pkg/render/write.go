package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	toon "github.com/toon-format/toon-go"
)

// ErrUnknownFormat is returned for an output format name that is not supported.
var ErrUnknownFormat = errors.New("unknown output format")

// Format is an output format.
type Format string

const (
	FormatDOT     Format = "dot"
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatTOON    Format = "toon"
	FormatTable   Format = "table"
)

// Formats lists the supported formats.
var Formats = []Format{FormatDOT, FormatJSON, FormatMsgpack, FormatTOON, FormatTable}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Options controls rendering.
type Options struct {
	// TrueLabel and FalseLabel caption branch edges. Defaults are "true" and "false".
	TrueLabel  string
	FalseLabel string
	// Color enables colored table headings.
	Color bool
}

func (o Options) withDefaults() Options {
	if o.TrueLabel == "" {
		o.TrueLabel = "true"
	}
	if o.FalseLabel == "" {
		o.FalseLabel = "false"
	}
	return o
}

// Write writes g to w in format f.
func Write(w io.Writer, g Graph, f Format, opts Options) error {
	switch f {
	case FormatDOT, "":
		return WriteDOT(w, g, opts)
	case FormatJSON:
		return WriteJSON(w, g)
	case FormatMsgpack:
		return WriteMsgpack(w, g)
	case FormatTOON:
		return WriteTOON(w, g)
	case FormatTable:
		return WriteTable(w, g, opts)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// WriteMsgpack writes v as msgpack.
func WriteMsgpack(w io.Writer, v any) error {
	if err := msgpack.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encoding msgpack: %w", err)
	}
	return nil
}

// WriteTOON writes v in TOON notation.
func WriteTOON(w io.Writer, v any) error {
	out, err := toon.Marshal(v, toon.WithIndent(2))
	if err != nil {
		return fmt.Errorf("encoding TOON: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
