// Package enrich annotates trace hops with ASN and location data read from
// local MaxMind databases.
package enrich

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/oschwald/maxminddb-golang"

	"github.com/KilimcininKorOglu/sonda/internal/trace"
)

// ErrNotLoaded is returned by lookups against a database that was not
// configured.
var ErrNotLoaded = errors.New("database not loaded")

// Database provides ASN and GeoIP lookups using MaxMind GeoLite2 or GeoIP2
// database files.
type Database struct {
	asnDB *maxminddb.Reader
	geoDB *maxminddb.Reader
	mu    sync.RWMutex
}

// MaxMind ASN record structure
type maxmindASNRecord struct {
	AutonomousSystemNumber       uint   `maxminddb:"autonomous_system_number"`
	AutonomousSystemOrganization string `maxminddb:"autonomous_system_organization"`
}

// MaxMind City record structure
type maxmindCityRecord struct {
	City struct {
		Names map[string]string `maxminddb:"names"`
	} `maxminddb:"city"`
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
	Location struct {
		Latitude  float64 `maxminddb:"latitude"`
		Longitude float64 `maxminddb:"longitude"`
	} `maxminddb:"location"`
}

// Open opens the ASN and City databases at the given paths. An empty path
// leaves that database unloaded; a path that cannot be opened is an error.
func Open(asnPath, cityPath string) (*Database, error) {
	db := &Database{}

	if asnPath != "" {
		asnDB, err := maxminddb.Open(asnPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open ASN database: %w", err)
		}
		db.asnDB = asnDB
	}

	if cityPath != "" {
		geoDB, err := maxminddb.Open(cityPath)
		if err != nil {
			if db.asnDB != nil {
				db.asnDB.Close()
			}
			return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
		}
		db.geoDB = geoDB
	}

	return db, nil
}

// HasASN returns true if ASN database is available.
func (db *Database) HasASN() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.asnDB != nil
}

// HasGeo returns true if GeoIP database is available.
func (db *Database) HasGeo() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.geoDB != nil
}

// LookupASN looks up ASN information for an IP address. It returns nil
// without error when the database has no entry for ip.
func (db *Database) LookupASN(ip net.IP) (*trace.ASNInfo, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.asnDB == nil {
		return nil, ErrNotLoaded
	}

	var record maxmindASNRecord
	if err := db.asnDB.Lookup(ip, &record); err != nil {
		return nil, err
	}

	if record.AutonomousSystemNumber == 0 {
		return nil, nil
	}

	return &trace.ASNInfo{
		Number:  int(record.AutonomousSystemNumber),
		Org:     record.AutonomousSystemOrganization,
		Country: orgCountry(record.AutonomousSystemOrganization),
	}, nil
}

// LookupGeo looks up geographic information for an IP address. It returns
// nil without error when the database has no entry for ip.
func (db *Database) LookupGeo(ip net.IP) (*trace.GeoInfo, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.geoDB == nil {
		return nil, ErrNotLoaded
	}

	var record maxmindCityRecord
	if err := db.geoDB.Lookup(ip, &record); err != nil {
		return nil, err
	}

	if record.Country.ISOCode == "" {
		return nil, nil
	}

	return &trace.GeoInfo{
		Country:     record.Country.Names["en"],
		CountryCode: record.Country.ISOCode,
		City:        record.City.Names["en"],
		Latitude:    record.Location.Latitude,
		Longitude:   record.Location.Longitude,
	}, nil
}

// Close releases database resources.
func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	var errs []error
	if db.asnDB != nil {
		errs = append(errs, db.asnDB.Close())
		db.asnDB = nil
	}
	if db.geoDB != nil {
		errs = append(errs, db.geoDB.Close())
		db.geoDB = nil
	}

	return errors.Join(errs...)
}

// orgCountry extracts the country suffix some registries append to the
// organization name, as in "GOOGLE, US".
func orgCountry(org string) string {
	idx := strings.LastIndex(org, ", ")
	if idx == -1 {
		return ""
	}
	country := org[idx+2:]
	if len(country) != 2 || strings.ToUpper(country) != country {
		return ""
	}
	return country
}
