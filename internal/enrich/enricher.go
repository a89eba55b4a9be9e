package enrich

import (
	"errors"
	"net"

	log "github.com/sirupsen/logrus"

	"github.com/KilimcininKorOglu/sonda/internal/trace"
)

// Source answers ASN and location queries for one address. A nil result
// with a nil error means the source knows nothing about the address.
type Source interface {
	LookupASN(ip net.IP) (*trace.ASNInfo, error)
	LookupGeo(ip net.IP) (*trace.GeoInfo, error)
}

// annotation is what the enricher remembers per address.
type annotation struct {
	asn *trace.ASNInfo
	geo *trace.GeoInfo
}

// Enricher fills the ASN and Geo fields of trace hops. It satisfies
// trace.Enricher.
type Enricher struct {
	source  Source
	cache   *Cache[annotation]
	logger  *log.Logger
	noASN   bool
	noGeoIP bool
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithoutASN disables ASN annotation.
func WithoutASN() Option {
	return func(e *Enricher) { e.noASN = true }
}

// WithoutGeoIP disables location annotation.
func WithoutGeoIP() Option {
	return func(e *Enricher) { e.noGeoIP = true }
}

// NewEnricher creates an enricher reading from source.
func NewEnricher(source Source, logger *log.Logger, opts ...Option) *Enricher {
	if logger == nil {
		logger = log.StandardLogger()
	}

	e := &Enricher{
		source: source,
		cache:  NewCache[annotation](1000, 0),
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EnrichHop annotates the last responder of hop. Private and link-local
// addresses are left alone. Lookup failures are logged and otherwise
// ignored.
func (e *Enricher) EnrichHop(hop *trace.Hop) {
	if hop == nil || isPrivateIP(hop.IP) {
		return
	}

	a := e.lookup(hop.IP)
	if !e.noASN {
		hop.ASN = a.asn
	}
	if !e.noGeoIP {
		hop.Geo = a.geo
	}
}

func (e *Enricher) lookup(ip net.IP) annotation {
	key := ip.String()
	if a, ok := e.cache.Get(key); ok {
		return a
	}

	var a annotation
	var err error

	if !e.noASN {
		a.asn, err = e.source.LookupASN(ip)
		if err != nil && !errors.Is(err, ErrNotLoaded) {
			e.logger.WithError(err).WithField("ip", key).Debug("asn lookup failed")
		}
	}
	if !e.noGeoIP {
		a.geo, err = e.source.LookupGeo(ip)
		if err != nil && !errors.Is(err, ErrNotLoaded) {
			e.logger.WithError(err).WithField("ip", key).Debug("geoip lookup failed")
		}
	}

	e.cache.Set(key, a)
	return a
}

// isPrivateIP checks if an IP is private/reserved.
func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return true
	}

	// Check for loopback
	if ip.IsLoopback() {
		return true
	}

	// Check for private ranges
	if ip.IsPrivate() {
		return true
	}

	// Check for link-local
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	return ip.IsUnspecified()
}
