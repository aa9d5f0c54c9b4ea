package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goipp "github.com/OpenPrinting/goipp"

	"github.com/MrSnakeDoc/printshare/internal/domain"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

// CUPS speaks IPP over plain HTTP to the local scheduler.
type CUPS struct {
	addr      string
	userAgent string
	client    *http.Client
	log       logger.Logger
}

// NewCUPS builds a CUPS backend for the scheduler at opts.CUPSAddr
// (host:port, default localhost:631).
func NewCUPS(opts Options) *CUPS {
	addr := strings.TrimSpace(opts.CUPSAddr)
	if addr == "" {
		addr = "localhost:631"
	}
	return &CUPS{
		addr:      addr,
		userAgent: opts.UserAgent,
		// No client timeout: callers bound every call with their context.
		client: &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()},
		log:    opts.logger(),
	}
}

func (c *CUPS) Kind() domain.BackendKind { return domain.BackendCUPS }

func (c *CUPS) ListPrinters(ctx context.Context) ([]domain.Printer, error) {
	req := c.newRequest(goipp.OpCupsGetPrinters)
	req.Operation.Add(goipp.MakeAttr("requested-attributes", goipp.TagKeyword,
		goipp.String("printer-name"),
		goipp.String("printer-info"),
		goipp.String("printer-location"),
	))

	resp, err := c.send(ctx, "/", req, nil)
	if err != nil {
		return nil, err
	}
	status := goipp.Status(resp.Code)
	// CUPS answers not-found when no queue exists.
	if status == goipp.StatusErrorNotFound {
		return []domain.Printer{}, nil
	}
	if status >= goipp.StatusRedirectionOtherSite {
		return nil, domain.Errorf(domain.KindBackendUnavailable, "CUPS-Get-Printers: %s", status)
	}

	def, err := c.defaultPrinter(ctx)
	if err != nil {
		return nil, err
	}

	printers := make([]domain.Printer, 0, len(resp.Groups))
	for _, g := range resp.Groups {
		if g.Tag != goipp.TagPrinterGroup {
			continue
		}
		name := findAttr(g.Attrs, "printer-name")
		if name == "" {
			continue
		}
		printers = append(printers, domain.Printer{
			SystemName:  name,
			IsDefault:   name == def,
			BackendKind: domain.BackendCUPS,
			Info:        findAttr(g.Attrs, "printer-info"),
			Location:    findAttr(g.Attrs, "printer-location"),
		})
	}
	c.log.Debug("cups printers listed", logger.Int("count", len(printers)), logger.String("default", def))
	return printers, nil
}

// defaultPrinter returns the scheduler's default queue, or "" when none is set.
func (c *CUPS) defaultPrinter(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, "/", c.newRequest(goipp.OpCupsGetDefault), nil)
	if err != nil {
		return "", err
	}
	if goipp.Status(resp.Code) >= goipp.StatusRedirectionOtherSite {
		return "", nil
	}
	return findAttr(resp.Printer, "printer-name"), nil
}

func (c *CUPS) Submit(ctx context.Context, systemName string, p domain.Payload) (domain.JobHandle, error) {
	format := "application/octet-stream"
	if p.Text {
		format = "text/plain"
	}
	name := jobName
	if p.FileName != "" {
		name = p.FileName
	}

	req := c.newRequest(goipp.OpPrintJob)
	req.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(c.printerURI(systemName))))
	req.Operation.Add(goipp.MakeAttribute("requesting-user-name", goipp.TagName, goipp.String("printshare")))
	req.Operation.Add(goipp.MakeAttribute("job-name", goipp.TagName, goipp.String(name)))
	req.Operation.Add(goipp.MakeAttribute("document-format", goipp.TagMimeType, goipp.String(format)))

	resp, err := c.send(ctx, "/printers/"+url.PathEscape(systemName), req, bytes.NewReader(p.Data))
	if err != nil {
		return domain.JobHandle{}, err
	}
	status := goipp.Status(resp.Code)
	switch {
	case status == goipp.StatusErrorNotFound:
		return domain.JobHandle{}, domain.Errorf(domain.KindPrinterNotFound, "printer %q not found", systemName)
	case status >= goipp.StatusRedirectionOtherSite:
		return domain.JobHandle{}, domain.Errorf(domain.KindSubmissionFailed, "Print-Job on %q: %s", systemName, status)
	}

	id := findAttr(resp.Job, "job-id")
	for _, g := range resp.Groups {
		if id != "" {
			break
		}
		if g.Tag == goipp.TagJobGroup {
			id = findAttr(g.Attrs, "job-id")
		}
	}
	n, _ := strconv.ParseInt(id, 10, 64)
	return handle(systemName, n), nil
}

// Available succeeds when the scheduler answers any IPP request.
func (c *CUPS) Available(ctx context.Context) error {
	_, err := c.send(ctx, "/", c.newRequest(goipp.OpCupsGetDefault), nil)
	return err
}

func (c *CUPS) newRequest(op goipp.Op) *goipp.Message {
	req := goipp.NewRequest(goipp.DefaultVersion, op, uint32(time.Now().UnixNano()))
	req.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String("utf-8")))
	req.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String("en-US")))
	return req
}

func (c *CUPS) printerURI(name string) string {
	return "ipp://" + c.addr + "/printers/" + url.PathEscape(name)
}

// send posts an IPP message (plus optional document data) to path. Transport,
// HTTP and decoding failures are BackendUnavailable; the IPP status is left
// to the caller.
func (c *CUPS) send(ctx context.Context, path string, msg *goipp.Message, data io.Reader) (*goipp.Message, error) {
	payload, err := msg.EncodeBytes()
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, err, "encode ipp request")
	}
	body := io.Reader(bytes.NewReader(payload))
	if data != nil {
		body = io.MultiReader(bytes.NewReader(payload), data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://"+c.addr+path, body)
	if err != nil {
		return nil, domain.Wrap(domain.KindInternal, err, "build ipp request")
	}
	req.Header.Set("Content-Type", goipp.ContentType)
	req.Header.Set("Accept", goipp.ContentType)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, domain.Wrap(domain.KindBackendUnavailable, err, "cups scheduler unreachable at "+c.addr)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode/100 != 2 {
		return nil, domain.Errorf(domain.KindBackendUnavailable, "cups scheduler answered %s", resp.Status)
	}
	out := &goipp.Message{}
	if err := out.Decode(resp.Body); err != nil {
		return nil, domain.Wrap(domain.KindBackendUnavailable, err, "decode ipp response")
	}
	return out, nil
}

func findAttr(attrs goipp.Attributes, name string) string {
	for _, attr := range attrs {
		if attr.Name != name || len(attr.Values) == 0 {
			continue
		}
		return strings.TrimSpace(attr.Values[0].V.String())
	}
	return ""
}

var _ Backend = (*CUPS)(nil)

func (c *CUPS) String() string { return fmt.Sprintf("cups(%s)", c.addr) }
