package domain

import (
	"errors"
	"testing"
)

func TestPrintJobRequestPayload(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *PrintJobRequest
		wantKind Kind
		wantData string
		wantText bool
	}{
		{
			name: "text payload",
			build: func() *PrintJobRequest {
				r := &PrintJobRequest{PrinterName: "LabelWriter - station1"}
				r.WithText("HELLO")
				return r
			},
			wantData: "HELLO",
			wantText: true,
		},
		{
			name: "raw payload",
			build: func() *PrintJobRequest {
				r := &PrintJobRequest{PrinterName: "LabelWriter - station1"}
				r.WithData([]byte{0x1b, 0x40})
				return r
			},
			wantData: "\x1b\x40",
		},
		{
			name: "neither",
			build: func() *PrintJobRequest {
				return &PrintJobRequest{PrinterName: "LabelWriter - station1"}
			},
			wantKind: KindMalformedPayload,
		},
		{
			name: "both",
			build: func() *PrintJobRequest {
				r := &PrintJobRequest{PrinterName: "LabelWriter - station1"}
				r.WithData([]byte("x"))
				r.WithText("y")
				return r
			},
			wantKind: KindMalformedPayload,
		},
		{
			name: "empty raw data",
			build: func() *PrintJobRequest {
				r := &PrintJobRequest{PrinterName: "LabelWriter - station1"}
				r.WithData(nil)
				return r
			},
			wantKind: KindMalformedPayload,
		},
		{
			name: "missing printer",
			build: func() *PrintJobRequest {
				r := &PrintJobRequest{}
				r.WithText("HELLO")
				return r
			},
			wantKind: KindMalformedPayload,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.build().Payload()
			if tt.wantKind != "" {
				if err == nil {
					t.Fatalf("Payload() error = nil, want %s", tt.wantKind)
				}
				if KindOf(err) != tt.wantKind {
					t.Errorf("KindOf() = %s, want %s", KindOf(err), tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("Payload() error = %v", err)
			}
			if string(p.Data) != tt.wantData || p.Text != tt.wantText {
				t.Errorf("Payload() = %q text=%v, want %q text=%v", p.Data, p.Text, tt.wantData, tt.wantText)
			}
		})
	}
}

func TestDecodeBase64(t *testing.T) {
	b, err := DecodeBase64("SEVMTE8=")
	if err != nil || string(b) != "HELLO" {
		t.Fatalf("DecodeBase64() = %q, %v", b, err)
	}

	_, err = DecodeBase64("not base64!")
	if !errors.Is(err, ErrMalformedPayload) {
		t.Errorf("DecodeBase64() error = %v, want MalformedPayload", err)
	}
}

func TestErrorKinds(t *testing.T) {
	err := Wrap(KindPrinterNotFound, errors.New("boom"), "no such printer")
	if !errors.Is(err, ErrPrinterNotFound) {
		t.Error("errors.Is should match by kind")
	}
	if errors.Is(err, ErrSubmissionFailed) {
		t.Error("errors.Is should not match a different kind")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Error("foreign errors should map to Internal")
	}
	if MessageOf(err) != "no such printer: boom" {
		t.Errorf("MessageOf() = %q", MessageOf(err))
	}
}
