package printsvc

import (
	"context"

	"github.com/MrSnakeDoc/printshare/internal/domain"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

// PrintResult is the answer to POST /print.
type PrintResult struct {
	JobAccepted bool   `json:"jobAccepted"`
	JobID       string `json:"jobId"`
	PrinterName string `json:"printerName"`
}

// PrintJob resolves req.PrinterName against a fresh enumeration and submits
// the payload once. Sharing does not need to be enabled.
func (s *Service) PrintJob(ctx context.Context, req domain.PrintJobRequest) (PrintResult, error) {
	payload, err := req.Payload()
	if err != nil {
		s.rec.JobSubmitted(string(domain.KindMalformedPayload))
		return PrintResult{}, err
	}

	printers, err := s.ListPrinters(ctx)
	if err != nil {
		s.rec.JobSubmitted(string(domain.KindOf(err)))
		return PrintResult{}, err
	}
	target, ok := domain.Resolve(printers, req.PrinterName)
	if !ok {
		s.rec.JobSubmitted(string(domain.KindPrinterNotFound))
		return PrintResult{}, domain.Errorf(domain.KindPrinterNotFound, "printer %q not found", req.PrinterName)
	}

	h, err := s.backend.Submit(ctx, target.SystemName, payload)
	if err != nil {
		s.rec.JobSubmitted(string(domain.KindOf(err)))
		return PrintResult{}, err
	}

	s.rec.JobSubmitted("accepted")
	s.log.Info("print job accepted",
		logger.String("printer", target.DisplayName),
		logger.String("job_id", h.ID),
		logger.Int("bytes", len(payload.Data)),
		logger.Bool("text", payload.Text))
	return PrintResult{JobAccepted: true, JobID: h.ID, PrinterName: target.DisplayName}, nil
}
