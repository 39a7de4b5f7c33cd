// Package parser reads pull request records exported from the GitHub GraphQL
// search API. It accepts a single node, a JSON array of nodes, the raw search
// envelope ({"data":{"search":{"edges":[{"node":...}]}}}), JSON Lines with one
// node per line, or the same shapes written as YAML.
package parser

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/boshu2/prmetrics/internal/pullrequest"
)

// Format names an input encoding.
type Format string

// Supported input formats. FormatAuto sniffs the content.
const (
	FormatAuto  Format = "auto"
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Error classification constants for parse errors.
const (
	errClassJSON     = "json"
	errClassSchema   = "schema"
	errClassEncoding = "encoding"
	errClassYAML     = "yaml"
)

// maxLineSize bounds a single JSON Lines record.
const maxLineSize = 4 * 1024 * 1024

// ParseFormat validates a format name. An empty name means FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatJSON, FormatJSONL, FormatYAML:
		return f, nil
	case "ndjson":
		return FormatJSONL, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath guesses the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// Parser decodes pull request records with configurable options.
type Parser struct {
	// Format forces an input encoding. FormatAuto sniffs it.
	Format Format

	// SkipMalformed drops bad records without recording a ParseError.
	// Malformed records are always counted.
	SkipMalformed bool
}

// NewParser creates a parser with default settings.
func NewParser() *Parser {
	return &Parser{
		Format:        FormatAuto,
		SkipMalformed: true,
	}
}

// ParseResult contains the records decoded from one input.
type ParseResult struct {
	PullRequests     []*pullrequest.PullRequest
	TotalRecords     int
	MalformedRecords int
	Errors           []error

	// Checksum is the first 16 hex chars of the SHA256 of the input.
	Checksum string

	// FilePath is the source file path (if parsed from file).
	FilePath string

	// ParsedAt is when parsing completed.
	ParsedAt time.Time
}

// ParseError describes one record that could not be decoded.
type ParseError struct {
	// Line is set for JSON Lines input.
	Line int `json:"line,omitempty"`
	// Record is the zero-based index of the record within the input.
	Record     int    `json:"record"`
	Message    string `json:"message"`
	RawContent string `json:"raw_content,omitempty"`
	ErrorType  string `json:"error_type"` // "json", "schema", "encoding", "yaml"
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s (%s)", e.Line, e.Message, e.ErrorType)
	}
	return fmt.Sprintf("record %d: %s (%s)", e.Record, e.Message, e.ErrorType)
}

// Parse reads every pull request record from r.
func (p *Parser) Parse(r io.Reader) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return p.ParseBytes(data)
}

// ParseBytes decodes records from an in-memory document.
func (p *Parser) ParseBytes(data []byte) (*ParseResult, error) {
	result := &ParseResult{
		PullRequests: make([]*pullrequest.PullRequest, 0),
	}

	sum := sha256.Sum256(data)
	result.Checksum = hex.EncodeToString(sum[:8])

	if !utf8.Valid(data) {
		return result, &ParseError{Message: "input is not valid UTF-8", ErrorType: errClassEncoding}
	}

	format := p.Format
	if format == "" || format == FormatAuto {
		format = sniff(data)
	}

	var err error
	switch format {
	case FormatJSONL:
		err = p.parseLines(data, result)
	case FormatYAML:
		err = p.parseYAML(data, result)
	case FormatJSON:
		err = p.parseDocument(data, result)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	result.ParsedAt = time.Now()
	return result, err
}

// ParseFile parses a file by path. The format comes from the extension unless
// the parser has one set.
func (p *Parser) ParseFile(path string) (result *ParseResult, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	fp := *p
	if fp.Format == "" || fp.Format == FormatAuto {
		fp.Format = FormatFromPath(path)
	}

	result, err = fp.Parse(f)
	if result != nil {
		result.FilePath = path
	}
	return result, err
}

// sniff picks a format from the first significant byte. A '{' followed by
// more top-level values is JSON Lines.
func sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return FormatJSON
	}
	switch trimmed[0] {
	case '[':
		return FormatJSON
	case '{':
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		var first json.RawMessage
		if err := dec.Decode(&first); err != nil {
			return FormatJSON
		}
		if dec.More() {
			return FormatJSONL
		}
		return FormatJSON
	default:
		return FormatYAML
	}
}

// parseDocument handles a single JSON document: an array of nodes, a search
// envelope, or one node.
func (p *Parser) parseDocument(data []byte, result *ParseResult) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	records, err := splitDocument(trimmed)
	if err != nil {
		return &ParseError{Message: err.Error(), ErrorType: classifyError(err), RawContent: truncateForError(string(trimmed), 100)}
	}

	for i, raw := range records {
		p.processRecord(raw, i, 0, result)
	}
	return nil
}

// splitDocument returns the raw pull request nodes held by a JSON document.
func splitDocument(doc []byte) ([]json.RawMessage, error) {
	if doc[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(doc, &records); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return records, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(doc, &probe); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	envelope, ok := probe["data"]
	if !ok {
		if _, ok := probe["search"]; !ok {
			return []json.RawMessage{doc}, nil
		}
		envelope = doc
	}

	var search struct {
		Search *struct {
			Edges []struct {
				Node json.RawMessage `json:"node"`
			} `json:"edges"`
		} `json:"search"`
	}
	if err := json.Unmarshal(envelope, &search); err != nil {
		return nil, fmt.Errorf("invalid search envelope: %w", err)
	}
	if search.Search == nil {
		return nil, ErrMissingSearch
	}

	records := make([]json.RawMessage, 0, len(search.Search.Edges))
	for _, edge := range search.Search.Edges {
		records = append(records, edge.Node)
	}
	return records, nil
}

// parseLines handles JSON Lines input, one node per non-blank line.
func (p *Parser) parseLines(data []byte, result *ParseResult) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, maxLineSize)

	lineNum := 0
	record := 0
	for scanner.Scan() {
		lineNum++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		p.processRecord(line, record, lineNum, result)
		record++
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

// parseYAML converts a YAML document to JSON and decodes it like a JSON
// document, so both encodings share one schema.
func (p *Parser) parseYAML(data []byte, result *ParseResult) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &ParseError{Message: err.Error(), ErrorType: errClassYAML}
	}
	if doc == nil {
		return nil
	}

	converted, err := json.Marshal(doc)
	if err != nil {
		return &ParseError{Message: fmt.Sprintf("convert YAML: %v", err), ErrorType: errClassYAML}
	}
	return p.parseDocument(converted, result)
}

// processRecord decodes a single node and appends the result or error.
func (p *Parser) processRecord(raw []byte, index, lineNum int, result *ParseResult) {
	result.TotalRecords++

	var pr pullrequest.PullRequest
	if err := json.Unmarshal(raw, &pr); err != nil {
		result.MalformedRecords++
		if !p.SkipMalformed {
			result.Errors = append(result.Errors, &ParseError{
				Line:       lineNum,
				Record:     index,
				Message:    err.Error(),
				ErrorType:  classifyError(err),
				RawContent: truncateForError(string(raw), 100),
			})
		}
		return
	}
	result.PullRequests = append(result.PullRequests, &pr)
}

// classifyError determines the error type for structured reporting.
func classifyError(err error) string {
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, pullrequest.ErrInvalidRecord), errors.Is(err, ErrMissingSearch):
		return errClassSchema
	case errors.As(err, &typeErr):
		return errClassSchema
	case strings.Contains(err.Error(), "invalid UTF-8"):
		return errClassEncoding
	default:
		return errClassJSON
	}
}

// truncateForError limits error context to a reasonable size.
func truncateForError(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
