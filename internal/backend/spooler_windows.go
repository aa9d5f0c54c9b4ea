//go:build windows

package backend

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/MrSnakeDoc/printshare/internal/domain"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

var (
	winspool = windows.NewLazySystemDLL("winspool.drv")

	procEnumPrintersW      = winspool.NewProc("EnumPrintersW")
	procGetDefaultPrinterW = winspool.NewProc("GetDefaultPrinterW")
	procOpenPrinterW       = winspool.NewProc("OpenPrinterW")
	procClosePrinter       = winspool.NewProc("ClosePrinter")
	procStartDocPrinterW   = winspool.NewProc("StartDocPrinterW")
	procStartPagePrinter   = winspool.NewProc("StartPagePrinter")
	procWritePrinter       = winspool.NewProc("WritePrinter")
	procEndPagePrinter     = winspool.NewProc("EndPagePrinter")
	procEndDocPrinter      = winspool.NewProc("EndDocPrinter")
)

const (
	printerEnumLocal       = 0x00000002
	printerEnumConnections = 0x00000004

	errInvalidPrinterName syscall.Errno = 1801
	rpcServerUnavailable  syscall.Errno = 1722
)

// PRINTER_INFO_4W
type printerInfo4 struct {
	PrinterName *uint16
	ServerName  *uint16
	Attributes  uint32
}

// DOC_INFO_1W
type docInfo1 struct {
	DocName    *uint16
	OutputFile *uint16
	Datatype   *uint16
}

// Spooler submits RAW jobs through winspool.drv.
type Spooler struct {
	log logger.Logger
}

func NewSpooler(opts Options) *Spooler {
	return &Spooler{log: opts.logger()}
}

func (s *Spooler) Kind() domain.BackendKind { return domain.BackendNativeSpooler }

func (s *Spooler) Available(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return domain.Wrap(domain.KindBackendUnavailable, err, "spooler query cancelled")
	}
	_, err := enumPrinters()
	return err
}

func (s *Spooler) ListPrinters(ctx context.Context) ([]domain.Printer, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.Wrap(domain.KindBackendUnavailable, err, "spooler query cancelled")
	}
	names, err := enumPrinters()
	if err != nil {
		return nil, err
	}
	def := defaultPrinter()

	printers := make([]domain.Printer, 0, len(names))
	for _, n := range names {
		printers = append(printers, domain.Printer{
			SystemName:  n,
			IsDefault:   n == def,
			BackendKind: domain.BackendNativeSpooler,
		})
	}
	s.log.Debug("spooler printers listed", logger.Int("count", len(printers)), logger.String("default", def))
	return printers, nil
}

func (s *Spooler) Submit(ctx context.Context, systemName string, p domain.Payload) (domain.JobHandle, error) {
	if err := ctx.Err(); err != nil {
		return domain.JobHandle{}, domain.Wrap(domain.KindSubmissionFailed, err, "submission cancelled")
	}
	if err := winspool.Load(); err != nil {
		return domain.JobHandle{}, domain.Wrap(domain.KindBackendUnavailable, err, "load winspool.drv")
	}

	name, err := windows.UTF16PtrFromString(systemName)
	if err != nil {
		return domain.JobHandle{}, domain.Wrap(domain.KindPrinterNotFound, err, "invalid printer name")
	}

	var h windows.Handle
	r1, _, callErr := procOpenPrinterW.Call(uintptr(unsafe.Pointer(name)), uintptr(unsafe.Pointer(&h)), 0)
	if r1 == 0 {
		return domain.JobHandle{}, spoolerError("OpenPrinter", systemName, callErr)
	}
	defer func() { _, _, _ = procClosePrinter.Call(uintptr(h)) }()

	docName := jobName
	if p.FileName != "" {
		docName = p.FileName
	}
	doc := docInfo1{
		DocName:  windows.StringToUTF16Ptr(docName),
		Datatype: windows.StringToUTF16Ptr("RAW"),
	}
	jobID, _, callErr := procStartDocPrinterW.Call(uintptr(h), 1, uintptr(unsafe.Pointer(&doc)))
	if jobID == 0 {
		return domain.JobHandle{}, spoolerError("StartDocPrinter", systemName, callErr)
	}

	if err := writeDocument(h, p.Data); err != nil {
		_, _, _ = procEndDocPrinter.Call(uintptr(h))
		return domain.JobHandle{}, spoolerError("WritePrinter", systemName, err)
	}
	if r1, _, callErr = procEndDocPrinter.Call(uintptr(h)); r1 == 0 {
		return domain.JobHandle{}, spoolerError("EndDocPrinter", systemName, callErr)
	}

	s.log.Debug("spooler job submitted", logger.String("printer", systemName), logger.Int64("job_id", int64(jobID)))
	return handle(systemName, int64(jobID)), nil
}

func writeDocument(h windows.Handle, data []byte) error {
	if r1, _, err := procStartPagePrinter.Call(uintptr(h)); r1 == 0 {
		return err
	}
	for len(data) > 0 {
		var written uint32
		r1, _, err := procWritePrinter.Call(uintptr(h), uintptr(unsafe.Pointer(&data[0])), uintptr(len(data)), uintptr(unsafe.Pointer(&written)))
		if r1 == 0 {
			return err
		}
		if written == 0 {
			return errors.New("spooler accepted no bytes")
		}
		data = data[written:]
	}
	if r1, _, err := procEndPagePrinter.Call(uintptr(h)); r1 == 0 {
		return err
	}
	return nil
}

// enumPrinters lists local and connected queues (level 4 carries only names).
func enumPrinters() ([]string, error) {
	if err := procEnumPrintersW.Find(); err != nil {
		return nil, domain.Wrap(domain.KindBackendUnavailable, err, "load winspool.drv")
	}
	flags := uintptr(printerEnumLocal | printerEnumConnections)

	var needed, returned uint32
	r1, _, err := procEnumPrintersW.Call(flags, 0, 4, 0, 0, uintptr(unsafe.Pointer(&needed)), uintptr(unsafe.Pointer(&returned)))
	if r1 == 0 && !errors.Is(err, windows.ERROR_INSUFFICIENT_BUFFER) {
		return nil, domain.Wrap(domain.KindBackendUnavailable, err, "EnumPrinters")
	}
	if needed == 0 {
		return []string{}, nil
	}

	buf := make([]byte, needed)
	r1, _, err = procEnumPrintersW.Call(flags, 0, 4, uintptr(unsafe.Pointer(&buf[0])), uintptr(needed),
		uintptr(unsafe.Pointer(&needed)), uintptr(unsafe.Pointer(&returned)))
	if r1 == 0 {
		return nil, domain.Wrap(domain.KindBackendUnavailable, err, "EnumPrinters")
	}

	infos := unsafe.Slice((*printerInfo4)(unsafe.Pointer(&buf[0])), returned)
	names := make([]string, 0, returned)
	for _, info := range infos {
		if info.PrinterName == nil {
			continue
		}
		names = append(names, windows.UTF16PtrToString(info.PrinterName))
	}
	return names, nil
}

// defaultPrinter returns "" when no default is configured or the call fails.
func defaultPrinter() string {
	var size uint32
	r1, _, err := procGetDefaultPrinterW.Call(0, uintptr(unsafe.Pointer(&size)))
	if r1 == 0 && !errors.Is(err, windows.ERROR_INSUFFICIENT_BUFFER) {
		return ""
	}
	if size == 0 {
		return ""
	}
	buf := make([]uint16, size)
	if r1, _, _ = procGetDefaultPrinterW.Call(uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size))); r1 == 0 {
		return ""
	}
	return windows.UTF16ToString(buf)
}

func spoolerError(op, printer string, err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case errInvalidPrinterName:
			return domain.Wrap(domain.KindPrinterNotFound, err, fmt.Sprintf("%s: printer %q not found", op, printer))
		case rpcServerUnavailable:
			return domain.Wrap(domain.KindBackendUnavailable, err, op+": spooler service unavailable")
		}
	}
	return domain.Wrap(domain.KindSubmissionFailed, err, fmt.Sprintf("%s on %q", op, printer))
}

var _ Backend = (*Spooler)(nil)
