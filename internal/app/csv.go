package app

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"phrasebook/internal/domain"
)

// PhrasePair is one data row of an import file.
type PhrasePair struct {
	Target string
	Source string
}

// phraseReader yields phrase pairs from a CSV stream whose first record is
// a header. Column 0 is the target-language text and column 1 the
// source-language text; missing columns read as "".
type phraseReader struct {
	r          *csv.Reader
	headerSeen bool
}

func newPhraseReader(r io.Reader) *phraseReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &phraseReader{r: cr}
}

// Next returns the next pair, io.EOF after the last row, or a KindParse
// error naming the offending line.
func (p *phraseReader) Next() (PhrasePair, error) {
	if !p.headerSeen {
		p.headerSeen = true
		if _, err := p.read(); err != nil {
			return PhrasePair{}, err
		}
	}

	record, err := p.read()
	if err != nil {
		return PhrasePair{}, err
	}

	var pair PhrasePair
	if len(record) > 0 {
		pair.Target = record[0]
	}
	if len(record) > 1 {
		pair.Source = record[1]
	}
	return pair, nil
}

func (p *phraseReader) read() ([]string, error) {
	record, err := p.r.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, domain.E(domain.KindParse, fmt.Sprintf("CSV parsing error: line %d: %v", perr.Line, perr.Err), err)
		}
		return nil, domain.E(domain.KindUpload, "Upload error: could not read file.", err)
	}
	for i, field := range record {
		if !utf8.ValidString(field) {
			line, _ := p.r.FieldPos(i)
			return nil, domain.E(domain.KindParse, fmt.Sprintf("CSV parsing error: line %d: invalid UTF-8", line), nil)
		}
	}
	return record, nil
}
