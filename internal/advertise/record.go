package advertise

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// ServiceType is the DNS-SD service every record is published under.
	ServiceType = "_printer._tcp"
	Domain      = "local."
)

// Record is one DNS-SD service instance. Name is the instance label as
// clients see it.
type Record struct {
	Name    string
	Service string
	Port    int
	TXT     []string
}

func (r Record) service() string {
	if r.Service == "" {
		return ServiceType
	}
	return r.Service
}

// Handle identifies a registered record.
type Handle struct {
	id   uint64
	Name string
}

// Entry is a record observed on the segment by Browse.
type Entry struct {
	Instance string
	Host     string
	Addr     string
	Port     int
	TXT      map[string]string
}

// RecordUUID is stable for a given host and printer.
func RecordUUID(host, systemName string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("printshare://"+host+"/"+systemName)).String()
}

// PrinterRecord describes one shared printer.
func PrinterRecord(displayName, systemName, host string, port int) Record {
	return Record{
		Name: displayName,
		Port: port,
		TXT: []string{
			"sharing=true",
			"hostname=" + host,
			"raw_name=" + systemName,
			"UUID=" + RecordUUID(host, systemName),
		},
	}
}

// ServerRecord is published instead of printer records when the host has
// no printers, so clients can still find the daemon.
func ServerRecord(host string, port int) Record {
	return Record{
		Name: "printshare - " + host,
		Port: port,
		TXT: []string{
			"sharing=true",
			"hostname=" + host,
			"kind=server",
			"UUID=" + RecordUUID(host, ""),
		},
	}
}

// ParseTXT splits key=value strings. Keys without "=" map to "".
func ParseTXT(fields []string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		k, v, _ := strings.Cut(f, "=")
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// hostFQDN turns a host identity into the target name of SRV records.
func hostFQDN(host string) string {
	host = strings.TrimSpace(strings.ReplaceAll(host, " ", "-"))
	if host == "" {
		return ""
	}
	if strings.Contains(host, ".") {
		if !strings.HasSuffix(host, ".") {
			host += "."
		}
		return host
	}
	return host + ".local."
}

// escapeInstance keeps dots inside an instance label from splitting it.
func escapeInstance(name string) string {
	r := strings.NewReplacer(`\`, `\\`, ".", `\.`)
	return r.Replace(name)
}

// instanceFromFQDN recovers the instance label of "<instance>.<service>.<domain>",
// undoing the presentation-format escapes applied by the DNS layer.
func instanceFromFQDN(fqdn, service string) string {
	suffix := "." + strings.Trim(service, ".") + "." + Domain
	label := strings.TrimSuffix(fqdn, suffix)
	if label == fqdn {
		label = strings.TrimSuffix(fqdn, ".")
	}

	var b strings.Builder
	for i := 0; i < len(label); i++ {
		c := label[i]
		if c != '\\' || i+1 >= len(label) {
			b.WriteByte(c)
			continue
		}
		// \DDD decimal escape
		if i+3 < len(label) && isDigit(label[i+1]) && isDigit(label[i+2]) && isDigit(label[i+3]) {
			n := int(label[i+1]-'0')*100 + int(label[i+2]-'0')*10 + int(label[i+3]-'0')
			if n <= 255 {
				b.WriteByte(byte(n))
				i += 3
				continue
			}
		}
		b.WriteByte(label[i+1])
		i++
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
