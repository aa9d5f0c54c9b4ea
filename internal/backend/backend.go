// Package backend talks to the host's print system. Exactly one variant is
// compiled into a binary: the Windows spooler on windows, CUPS elsewhere.
package backend

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/printshare/internal/domain"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

// Backend enumerates printers and submits jobs. Implementations return
// *domain.Error values of kind PrinterNotFound, BackendUnavailable or
// SubmissionFailed.
type Backend interface {
	Kind() domain.BackendKind
	// ListPrinters queries the print system. Results are never cached.
	ListPrinters(ctx context.Context) ([]domain.Printer, error)
	Submit(ctx context.Context, systemName string, p domain.Payload) (domain.JobHandle, error)
	// Available reports whether the print system can be reached right now.
	Available(ctx context.Context) error
}

// Options configures backend construction.
type Options struct {
	CUPSAddr  string
	UserAgent string
	Logger    logger.Logger
}

func (o Options) logger() logger.Logger {
	if o.Logger == nil {
		return logger.Nop()
	}
	return o.Logger
}

const jobName = "printshare job"

// handle builds a JobHandle, generating a name-based UUID when the print
// system did not report a job id.
func handle(printer string, id int64) domain.JobHandle {
	if id > 0 {
		return domain.JobHandle{ID: strconv.FormatInt(id, 10), Printer: printer}
	}
	seed := "printshare:job:" + printer + ":" + strconv.FormatInt(time.Now().UnixNano(), 10)
	return domain.JobHandle{ID: uuid.NewSHA1(uuid.NameSpaceURL, []byte(seed)).String(), Printer: printer}
}
