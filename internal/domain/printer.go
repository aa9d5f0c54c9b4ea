package domain

import "strings"

// BackendKind identifies which OS print subsystem produced a descriptor.
type BackendKind string

const (
	BackendNativeSpooler BackendKind = "NATIVE_SPOOLER"
	BackendCUPS          BackendKind = "CUPS"
)

// UnknownPrinterName replaces blank system names reported by the OS.
const UnknownPrinterName = "Unknown Printer"

const displaySeparator = " - "

// Printer describes one printer as enumerated from the OS on a single call.
// Descriptors are never cached: the OS owns the printer set.
type Printer struct {
	SystemName  string      `json:"systemName"`
	DisplayName string      `json:"displayName"`
	IsDefault   bool        `json:"isDefault"`
	BackendKind BackendKind `json:"backendKind"`
	Info        string      `json:"info,omitempty"`
	Location    string      `json:"location,omitempty"`
}

// DisplayName builds the network-visible name "{systemName} - {hostIdentity}".
// The host suffix is not repeated when already present, and an empty host
// identity yields the bare system name.
func DisplayName(systemName, hostIdentity string) string {
	base := strings.TrimSpace(systemName)
	if base == "" {
		base = UnknownPrinterName
	}
	host := strings.TrimSpace(hostIdentity)
	if host == "" {
		return base
	}
	suffix := displaySeparator + host
	if strings.HasSuffix(base, suffix) {
		return base
	}
	return base + suffix
}

// SplitDisplayName is the inverse of DisplayName. host is empty when name
// carries no host suffix.
func SplitDisplayName(name string) (systemName, host string) {
	name = strings.TrimSpace(name)
	idx := strings.LastIndex(name, displaySeparator)
	if idx < 0 {
		return name, ""
	}
	return strings.TrimSpace(name[:idx]), strings.TrimSpace(name[idx+len(displaySeparator):])
}

// Decorate fills DisplayName for every printer using hostIdentity.
func Decorate(printers []Printer, hostIdentity string) []Printer {
	out := make([]Printer, 0, len(printers))
	for _, p := range printers {
		p.SystemName = strings.TrimSpace(p.SystemName)
		if p.SystemName == "" {
			p.SystemName = UnknownPrinterName
		}
		p.DisplayName = DisplayName(p.SystemName, hostIdentity)
		out = append(out, p)
	}
	return out
}

// Resolve finds the printer a client addressed. Display names win; an exact
// system name is accepted as a fallback.
func Resolve(printers []Printer, requested string) (Printer, bool) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return Printer{}, false
	}
	for _, p := range printers {
		if p.DisplayName == requested {
			return p, true
		}
	}
	for _, p := range printers {
		if p.SystemName == requested {
			return p, true
		}
	}
	return Printer{}, false
}
