package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/printshare/internal/domain"
	"github.com/MrSnakeDoc/printshare/internal/logger"
	"github.com/MrSnakeDoc/printshare/internal/printsvc"
)

// PrintService is the subset of *printsvc.Service the handlers call.
type PrintService interface {
	Status(ctx context.Context) printsvc.Status
	ListPrinters(ctx context.Context) ([]domain.Printer, error)
	EnableSharing(ctx context.Context) (printsvc.SharingResult, error)
	DisableSharing(ctx context.Context) (printsvc.SharingResult, error)
	PrintJob(ctx context.Context, req domain.PrintJobRequest) (printsvc.PrintResult, error)
	Discover(ctx context.Context) ([]printsvc.Discovered, error)
}

// RequestObserver records served requests; implemented by *metrics.Metrics.
type RequestObserver interface {
	ObserveRequest(route, method string, status int, d time.Duration)
	Handler() http.Handler
}

type Deps struct {
	Logger         logger.Logger
	Service        PrintService
	Metrics        RequestObserver
	Token          string        // bearer token every request must present
	TrustProxy     bool          // resolve the client from X-Forwarded-For / X-Real-IP
	AllowedHosts   []string      // Host headers accepted; empty disables the check
	MaxBodyBytes   int64         // request body cap
	RequestTimeout time.Duration // per-request deadline
	RateLimitRPS   float64       // per-client refill rate; 0 disables limiting
	RateLimitBurst int
	StartTime      time.Time
}
