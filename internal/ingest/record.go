// Package ingest drives a batch of scraped job records through entity
// resolution, job upserts, and relation linking, and reports run
// statistics.
package ingest

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Record is the decoded form of one upstream job record, produced by
// the collection and text-cleaning stages. It is decoded once at this
// boundary; nothing downstream touches raw JSON.
type Record struct {
	ExternalID      string              `json:"external_id"`
	Title           string              `json:"title"`
	Company         CompanyInfo         `json:"company"`
	Description     string              `json:"description"`
	SalaryText      string              `json:"salary_text,omitempty"`
	IsRemote        bool                `json:"is_remote"`
	PublicationDate string              `json:"publication_date,omitempty"`
	URL             string              `json:"url,omitempty"`
	Locations       []LocationRef       `json:"locations"`
	Skills          map[string][]string `json:"skills"`
}

type CompanyInfo struct {
	IDOrName    string `json:"id_or_name"`
	DisplayName string `json:"display_name"`
	ShortName   string `json:"short_name,omitempty"`
}

// LocationRef accepts both shapes the collectors emit: a bare string
// ("New York, NY") or an object ({"name": "New York, NY"}).
type LocationRef struct {
	Name string
}

func (l *LocationRef) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &l.Name)
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("location must be a string or {\"name\": ...}: %w", err)
	}
	l.Name = obj.Name
	return nil
}

func (l LocationRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Name string `json:"name"`
	}{Name: l.Name})
}

// ReadRecords decodes a batch of records from either a single JSON
// array or a JSONL stream (one object per line), detected from the
// first non-space byte.
func ReadRecords(r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	if first == '[' {
		var records []Record
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decoding record array: %w", err)
		}
		return records, nil
	}

	var records []Record
	for {
		var rec Record
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decoding record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\n', '\r':
			br.Discard(1)
		default:
			return b[0], nil
		}
	}
}
