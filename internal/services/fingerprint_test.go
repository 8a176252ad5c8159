package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chromeOnMacUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

type stubGeolocator struct {
	country string
	city    string
	err     error
}

func (s stubGeolocator) Locate(_ context.Context, _ string) (string, string, error) {
	return s.country, s.city, s.err
}

func fingerprintRequest(ua, ip string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
	r.Header.Set("User-Agent", ua)
	r.RemoteAddr = ip + ":51324"
	return r
}

func TestBuildFingerprintDesktopBrowser(t *testing.T) {
	r := fingerprintRequest(chromeOnMacUA, "203.0.113.7")

	fp := BuildFingerprint(context.Background(), r, stubGeolocator{country: "India", city: "Pune"})

	assert.Equal(t, "203.0.113.7", fp.IP)
	assert.Equal(t, "India", fp.Country)
	assert.Equal(t, "Pune", fp.City)
	assert.Equal(t, DeviceDesktop, fp.DeviceType)
	assert.Contains(t, fp.Browser, "Chrome")
	assert.Contains(t, fp.OS, "Mac OS X")
	assert.Contains(t, fp.Device, " on ")
}

func TestBuildFingerprintMobileDevice(t *testing.T) {
	r := fingerprintRequest(iphoneUA, "198.51.100.4")

	fp := BuildFingerprint(context.Background(), r, NoGeolocator{})

	assert.Equal(t, DeviceMobile, fp.DeviceType)
	assert.Contains(t, fp.Browser, "Safari")

	// NoGeolocator leaves location unfilled, normalized to "unknown".
	assert.Equal(t, "unknown", fp.Country)
	assert.Equal(t, "unknown", fp.City)
}

func TestBuildFingerprintGeoFailureDegradesToUnknown(t *testing.T) {
	r := fingerprintRequest(chromeOnMacUA, "203.0.113.7")

	fp := BuildFingerprint(context.Background(), r, stubGeolocator{err: errors.New("lookup timed out")})

	assert.Equal(t, "unknown", fp.Country)
	assert.Equal(t, "unknown", fp.City)
	assert.Equal(t, "203.0.113.7", fp.IP)
}

func TestBuildFingerprintEmptyUserAgent(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
	r.RemoteAddr = "203.0.113.7:400"

	fp := BuildFingerprint(context.Background(), r, nil)

	assert.Equal(t, "unknown", fp.Browser)
	assert.Equal(t, "unknown", fp.OS)
	assert.Equal(t, "unknown", fp.Device)
	assert.Equal(t, DeviceDesktop, fp.DeviceType)
}

func TestBuildFingerprintStableForSameRequestShape(t *testing.T) {
	geo := stubGeolocator{country: "India", city: "Pune"}

	a := BuildFingerprint(context.Background(), fingerprintRequest(chromeOnMacUA, "203.0.113.7"), geo)
	b := BuildFingerprint(context.Background(), fingerprintRequest(chromeOnMacUA, "203.0.113.7"), geo)
	assert.True(t, a.Equal(b))

	c := BuildFingerprint(context.Background(), fingerprintRequest(iphoneUA, "203.0.113.7"), geo)
	assert.False(t, a.Equal(c))
}

func TestIPAPIGeolocator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "success",
			"country": "India",
			"city":    "Pune",
		})
	}))
	defer srv.Close()

	geo := NewIPAPIGeolocator(time.Second)
	geo.base = srv.URL

	country, city, err := geo.Locate(context.Background(), "203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, "India", country)
	assert.Equal(t, "Pune", city)
}

func TestIPAPIGeolocatorFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "fail"})
	}))
	defer srv.Close()

	geo := NewIPAPIGeolocator(time.Second)
	geo.base = srv.URL

	_, _, err := geo.Locate(context.Background(), "203.0.113.7")
	assert.Error(t, err)
}
