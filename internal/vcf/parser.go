// Package vcf provides parsing for the fixed-layout variant call files
// this tool annotates.
package vcf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// The input is a fixed 11-column layout: the eight standard VCF columns,
// FORMAT, and two sample columns. The trailing three are positional only.
const recordColumns = 11

const (
	colChrom = iota
	colPos
	colID
	colRef
	colAlt
	colQual
	colFilter
	colInfo
)

// requiredInfoKeys are the INFO keys every record must carry.
var requiredInfoKeys = []string{"TYPE", "DP", "AO", "RO"}

// Parser reads variants from a variant call file.
type Parser struct {
	reader       *bufio.Reader
	file         *os.File
	gzipReader   *gzip.Reader
	lineNumber   int
	commentLines int
}

// NewParser creates a parser for the given file. Gzipped input is detected
// by magic bytes; "-" reads from stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}

	p := &Parser{file: file}

	buf := make([]byte, 2)
	if _, err := io.ReadFull(file, buf); err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		file.Close()
		return nil, fmt.Errorf("read input file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, fmt.Errorf("seek input file: %w", err)
	}

	// Gzip magic number (0x1f, 0x8b)
	if buf[0] == 0x1f && buf[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = bufio.NewReader(file)
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) *Parser {
	return &Parser{reader: bufio.NewReader(r)}
}

// Next reads the next variant. Comment lines (leading '#') are skipped and
// counted; blank lines are skipped. Returns nil, nil at end of input.
func (p *Parser) Next() (*Variant, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read line: %w", err)
		}
		atEOF := err == io.EOF

		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			p.lineNumber++
			if strings.HasPrefix(line, "#") {
				p.commentLines++
			} else {
				return p.parseLine(line)
			}
		}

		if atEOF {
			return nil, nil
		}
	}
}

// parseLine parses a single data line into a Variant.
func (p *Parser) parseLine(line string) (*Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != recordColumns {
		return nil, &MalformedRecordError{
			Line:   p.lineNumber,
			Reason: fmt.Sprintf("expected %d tab-separated columns, found %d", recordColumns, len(fields)),
		}
	}

	info := parseInfo(fields[colInfo])
	for _, key := range requiredInfoKeys {
		if _, ok := info[key]; !ok {
			return nil, &MissingInfoKeyError{Line: p.lineNumber, Key: key}
		}
	}

	depth, err := p.parseCount("DP", info["DP"])
	if err != nil {
		return nil, err
	}
	refReads, err := p.parseCount("RO", info["RO"])
	if err != nil {
		return nil, err
	}

	alt := fields[colAlt]
	varReadCount := info["AO"]
	aoEntries := strings.Split(varReadCount, ",")
	varReads := make([]int, len(aoEntries))
	for i, entry := range aoEntries {
		varReads[i], err = p.parseCount("AO", entry)
		if err != nil {
			return nil, err
		}
	}

	// Multi-valued AO entries pair positionally with the alternate alleles.
	if strings.Contains(alt, ",") && strings.Contains(varReadCount, ",") {
		if altCount := strings.Count(alt, ",") + 1; altCount != len(aoEntries) {
			return nil, &MalformedRecordError{
				Line: p.lineNumber,
				Reason: fmt.Sprintf("%d alternate alleles but %d AO entries",
					altCount, len(aoEntries)),
			}
		}
	}

	return &Variant{
		Chrom:        fields[colChrom],
		Pos:          fields[colPos],
		ID:           fields[colID],
		Ref:          fields[colRef],
		Alt:          alt,
		Qual:         fields[colQual],
		Type:         info["TYPE"],
		Depth:        depth,
		VarReadCount: varReadCount,
		RefReadCount: refReads,
		SupportRatio: FormatSupportRatio(varReads, refReads),
	}, nil
}

// parseCount parses a read count or depth value, which must be a
// non-negative integer.
func (p *Parser) parseCount(key, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &MalformedRecordError{
			Line:   p.lineNumber,
			Reason: fmt.Sprintf("INFO %s value %q is not an integer", key, raw),
		}
	}
	if n < 0 {
		return 0, &MalformedRecordError{
			Line:   p.lineNumber,
			Reason: fmt.Sprintf("INFO %s value %d is negative", key, n),
		}
	}
	return n, nil
}

// parseInfo parses the INFO column into a map. Entries are ';'-separated
// KEY=VALUE pairs, split on the first '='; flag entries without '=' are
// recorded with an empty value.
func parseInfo(info string) map[string]string {
	result := make(map[string]string)
	for _, kv := range strings.Split(info, ";") {
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		} else {
			result[parts[0]] = ""
		}
	}
	return result
}

// LineNumber returns the number of the line most recently read.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// CommentLines returns how many comment lines have been skipped so far.
func (p *Parser) CommentLines() int {
	return p.commentLines
}

// Close closes the parser and the underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// MalformedRecordError reports a data line that does not fit the fixed
// record layout or carries values the layout forbids.
type MalformedRecordError struct {
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record at line %d: %s", e.Line, e.Reason)
}

// MissingInfoKeyError reports a record whose INFO column lacks a required key.
type MissingInfoKeyError struct {
	Line int
	Key  string
}

func (e *MissingInfoKeyError) Error() string {
	return fmt.Sprintf("record at line %d is missing required INFO key %s", e.Line, e.Key)
}
