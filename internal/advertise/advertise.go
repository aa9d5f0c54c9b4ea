// Package advertise publishes shared printers as DNS-SD records on the local
// segment and browses for records published by other hosts.
package advertise

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/miekg/dns"

	"github.com/MrSnakeDoc/printshare/internal/domain"
	"github.com/MrSnakeDoc/printshare/internal/logger"
)

// Advertiser registers and releases DNS-SD records.
type Advertiser interface {
	Register(ctx context.Context, rec Record) (Handle, error)
	Unregister(h Handle) error
	Browse(ctx context.Context) ([]Entry, error)
	// Close releases every record still registered.
	Close() error
}

type responder interface {
	Shutdown() error
}

// LookupFunc queries the segment for instances of service.
type LookupFunc func(ctx context.Context, service string, timeout time.Duration) ([]*mdns.ServiceEntry, error)

// Options configures an MDNS advertiser.
type Options struct {
	HostIdentity  string
	IPs           []net.IP
	ProbeTimeout  time.Duration
	BrowseTimeout time.Duration
	Logger        logger.Logger

	// Lookup and NewResponder replace the multicast transport in tests.
	Lookup       LookupFunc
	NewResponder func(*mdns.Config) (responder, error)
}

// zone serves the registered records to the mDNS responder.
type zone struct {
	mu       sync.RWMutex
	services map[uint64]*mdns.MDNSService
}

func (z *zone) Records(q dns.Question) []dns.RR {
	z.mu.RLock()
	services := make([]*mdns.MDNSService, 0, len(z.services))
	for _, svc := range z.services {
		services = append(services, svc)
	}
	z.mu.RUnlock()

	var out []dns.RR
	for _, svc := range services {
		out = append(out, svc.Records(q)...)
	}
	return out
}

func (z *zone) add(id uint64, svc *mdns.MDNSService) {
	z.mu.Lock()
	z.services[id] = svc
	z.mu.Unlock()
}

func (z *zone) remove(id uint64) (remaining int, found bool) {
	z.mu.Lock()
	defer z.mu.Unlock()
	_, found = z.services[id]
	delete(z.services, id)
	return len(z.services), found
}

func (z *zone) clear() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	n := len(z.services)
	z.services = map[uint64]*mdns.MDNSService{}
	return n
}

// MDNS is the Advertiser backed by one multicast responder per process. The
// responder starts with the first record and stops when the zone empties.
type MDNS struct {
	mu     sync.Mutex
	zone   *zone
	server responder
	names  map[uint64]string
	nextID uint64

	host          string
	hostName      string
	ips           []net.IP
	probeTimeout  time.Duration
	browseTimeout time.Duration
	lookup        LookupFunc
	newResponder  func(*mdns.Config) (responder, error)
	log           logger.Logger
}

func New(opts Options) *MDNS {
	a := &MDNS{
		zone:          &zone{services: map[uint64]*mdns.MDNSService{}},
		names:         map[uint64]string{},
		host:          opts.HostIdentity,
		hostName:      hostFQDN(opts.HostIdentity),
		ips:           opts.IPs,
		probeTimeout:  opts.ProbeTimeout,
		browseTimeout: opts.BrowseTimeout,
		lookup:        opts.Lookup,
		newResponder:  opts.NewResponder,
		log:           opts.Logger,
	}
	if a.probeTimeout <= 0 {
		a.probeTimeout = 750 * time.Millisecond
	}
	if a.browseTimeout <= 0 {
		a.browseTimeout = 2 * time.Second
	}
	if a.lookup == nil {
		a.lookup = Query
	}
	if a.newResponder == nil {
		a.newResponder = func(c *mdns.Config) (responder, error) {
			s, err := mdns.NewServer(c)
			if err != nil {
				return nil, err
			}
			return s, nil
		}
	}
	if a.log == nil {
		a.log = logger.Nop()
	}
	if len(a.ips) == 0 {
		a.ips = localIPs()
	}
	return a
}

func (a *MDNS) Register(ctx context.Context, rec Record) (Handle, error) {
	if rec.Name == "" {
		return Handle{}, domain.Errorf(domain.KindInternal, "record name is empty")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Handle{}, fmt.Errorf("register %q: %w", rec.Name, err)
	}
	for _, n := range a.names {
		if n == rec.Name {
			return Handle{}, domain.Errorf(domain.KindAdvertisementConflict, "%q is already advertised by this host", rec.Name)
		}
	}
	if err := a.probe(ctx, rec); err != nil {
		return Handle{}, err
	}

	svc, err := mdns.NewMDNSService(escapeInstance(rec.Name), rec.service(), Domain, a.hostName, rec.Port, a.ips, rec.TXT)
	if err != nil {
		if len(a.ips) == 0 {
			return Handle{}, domain.Wrap(domain.KindBackendUnavailable, err, "no usable network address to advertise "+a.hostName)
		}
		return Handle{}, domain.Wrap(domain.KindInternal, err, "build dns-sd record")
	}

	a.nextID++
	id := a.nextID
	a.zone.add(id, svc)
	if a.server == nil {
		srv, err := a.newResponder(&mdns.Config{Zone: a.zone})
		if err != nil {
			a.zone.remove(id)
			return Handle{}, domain.Wrap(domain.KindBackendUnavailable, err, "start mdns responder")
		}
		a.server = srv
		a.log.Debug("mdns responder started")
	}
	a.names[id] = rec.Name

	a.log.Info("record advertised", logger.String("name", rec.Name), logger.String("service", rec.service()), logger.Int("port", rec.Port))
	return Handle{id: id, Name: rec.Name}, nil
}

// probe fails with AdvertisementConflict when another responder already
// answers for rec.Name. Probe transport errors are logged and ignored; a
// cancelled ctx is not.
func (a *MDNS) probe(ctx context.Context, rec Record) error {
	entries, err := a.lookup(ctx, rec.service(), a.probeTimeout)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return fmt.Errorf("probe %q: %w", rec.Name, cerr)
		}
		a.log.Debug("conflict probe failed", logger.String("name", rec.Name), logger.Error(err))
		return nil
	}
	for _, e := range entries {
		if e == nil {
			continue
		}
		if instanceFromFQDN(e.Name, rec.service()) == rec.Name {
			return domain.Errorf(domain.KindAdvertisementConflict, "%q is already advertised on the local network by %s", rec.Name, e.Host)
		}
	}
	return nil
}

// Unregister is a no-op for unknown or already released handles.
func (a *MDNS) Unregister(h Handle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	remaining, found := a.zone.remove(h.id)
	if !found {
		return nil
	}
	delete(a.names, h.id)
	a.log.Info("record withdrawn", logger.String("name", h.Name))
	if remaining == 0 {
		return a.stopLocked()
	}
	return nil
}

func (a *MDNS) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if n := a.zone.clear(); n > 0 {
		a.log.Info("records released", logger.Int("count", n))
	}
	a.names = map[uint64]string{}
	return a.stopLocked()
}

func (a *MDNS) stopLocked() error {
	if a.server == nil {
		return nil
	}
	err := a.server.Shutdown()
	a.server = nil
	a.log.Debug("mdns responder stopped")
	if err != nil {
		return fmt.Errorf("shutdown mdns responder: %w", err)
	}
	return nil
}

// Browse lists printer records currently answered on the segment.
func (a *MDNS) Browse(ctx context.Context) ([]Entry, error) {
	found, err := a.lookup(ctx, ServiceType, a.browseTimeout)
	if err != nil {
		return nil, domain.Wrap(domain.KindBackendUnavailable, err, "mdns browse")
	}

	seen := make(map[string]bool, len(found))
	out := make([]Entry, 0, len(found))
	for _, e := range found {
		if e == nil || seen[e.Name] {
			continue
		}
		seen[e.Name] = true

		addr := ""
		switch {
		case e.AddrV4 != nil:
			addr = e.AddrV4.String()
		case e.AddrV6 != nil:
			addr = e.AddrV6.String()
		}
		out = append(out, Entry{
			Instance: instanceFromFQDN(e.Name, ServiceType),
			Host:     e.Host,
			Addr:     addr,
			Port:     e.Port,
			TXT:      ParseTXT(e.InfoFields),
		})
	}
	return out, nil
}

// Advertised returns the number of records currently in the zone.
func (a *MDNS) Advertised() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.names)
}

// Query runs one multicast browse for service, bounded by timeout and ctx.
func Query(ctx context.Context, service string, timeout time.Duration) ([]*mdns.ServiceEntry, error) {
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem < timeout {
			timeout = rem
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries := make(chan *mdns.ServiceEntry, 32)
	var found []*mdns.ServiceEntry
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			found = append(found, e)
		}
	}()

	// mdns.Query only knows its timeout; a cancelled ctx abandons it and the
	// goroutine drains on its own once the timeout fires.
	result := make(chan error, 1)
	go func() {
		err := mdns.Query(&mdns.QueryParam{
			Service: service,
			Domain:  "local",
			Timeout: timeout,
			Entries: entries,
		})
		close(entries)
		result <- err
	}()

	select {
	case err := <-result:
		<-done
		if err != nil {
			return nil, err
		}
		return found, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// localIPs lists the addresses of up interfaces.
func localIPs() []net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	list := make([]ifaceAddrs, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		list = append(list, ifaceAddrs{flags: iface.Flags, addrs: addrs})
	}
	return pickIPs(list)
}

type ifaceAddrs struct {
	flags net.Flags
	addrs []net.Addr
}

// pickIPs prefers non-loopback addresses and falls back to loopback ones
// when the host has nothing else, so records stay publishable on-host.
func pickIPs(list []ifaceAddrs) []net.IP {
	var ips, loopback []net.IP
	for _, iface := range list {
		if iface.flags&net.FlagUp == 0 {
			continue
		}
		for _, addr := range iface.addrs {
			ipn, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			if iface.flags&net.FlagLoopback != 0 || ipn.IP.IsLoopback() {
				loopback = append(loopback, ipn.IP)
				continue
			}
			ips = append(ips, ipn.IP)
		}
	}
	if len(ips) == 0 {
		return loopback
	}
	return ips
}

var _ Advertiser = (*MDNS)(nil)
