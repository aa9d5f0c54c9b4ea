package domain

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// Payload is the document handed to a backend. Text marks payloads that
// arrived as UTF-8 text so backends can pick a matching document format.
type Payload struct {
	Data     []byte
	Text     bool
	FileName string
}

// JobHandle identifies a submitted job as reported by the backend.
type JobHandle struct {
	ID      string `json:"jobId"`
	Printer string `json:"printer"`
}

// PrintJobRequest is the decoded body of a print request. Exactly one of
// Data or Text must be set.
type PrintJobRequest struct {
	PrinterName string
	Data        []byte
	Text        *string
	FileName    string
	hasData     bool
}

// WithData marks raw bytes as the payload, even when b is empty.
func (r *PrintJobRequest) WithData(b []byte) {
	r.Data = b
	r.hasData = true
}

// WithText marks s as the payload.
func (r *PrintJobRequest) WithText(s string) {
	r.Text = &s
}

// Payload validates the request and returns the bytes to print.
func (r *PrintJobRequest) Payload() (Payload, error) {
	if strings.TrimSpace(r.PrinterName) == "" {
		return Payload{}, Errorf(KindMalformedPayload, "printer_name is required")
	}
	switch {
	case r.hasData && r.Text != nil:
		return Payload{}, Errorf(KindMalformedPayload, "provide either raw data or text, not both")
	case !r.hasData && r.Text == nil:
		return Payload{}, Errorf(KindMalformedPayload, "no printable data provided")
	case r.Text != nil:
		if !utf8.ValidString(*r.Text) {
			return Payload{}, Errorf(KindMalformedPayload, "text payload is not valid UTF-8")
		}
		if *r.Text == "" {
			return Payload{}, Errorf(KindMalformedPayload, "text payload is empty")
		}
		return Payload{Data: []byte(*r.Text), Text: true, FileName: r.FileName}, nil
	default:
		if len(r.Data) == 0 {
			return Payload{}, Errorf(KindMalformedPayload, "print job is empty")
		}
		return Payload{Data: r.Data, FileName: r.FileName}, nil
	}
}

// DecodeBase64 decodes a data_base64 field strictly.
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.Strict().DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, Wrap(KindMalformedPayload, err, "invalid base64 payload")
	}
	return b, nil
}
