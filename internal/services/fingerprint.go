package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mssola/user_agent"

	"github.com/manoj0727/Nexify-server/internal/models"
	"github.com/manoj0727/Nexify-server/pkg/clientip"
)

// Device types derived from the User-Agent.
const (
	DeviceDesktop = "Desktop"
	DeviceMobile  = "Mobile"
	DeviceTablet  = "Tablet"
	DeviceBot     = "Bot"
)

// Geolocator resolves an IP address to a coarse location. Lookups are
// best-effort; failures degrade to "unknown" rather than failing a login.
type Geolocator interface {
	Locate(ctx context.Context, ip string) (country, city string, err error)
}

// NoGeolocator disables location lookups.
type NoGeolocator struct{}

func (NoGeolocator) Locate(ctx context.Context, ip string) (string, string, error) {
	return "", "", nil
}

// IPAPIGeolocator resolves locations via the ip-api.com JSON endpoint.
type IPAPIGeolocator struct {
	client *http.Client
	base   string
}

func NewIPAPIGeolocator(timeout time.Duration) *IPAPIGeolocator {
	return &IPAPIGeolocator{
		client: &http.Client{Timeout: timeout},
		base:   "http://ip-api.com/json",
	}
}

func (g *IPAPIGeolocator) Locate(ctx context.Context, ip string) (string, string, error) {
	url := fmt.Sprintf("%s/%s?fields=status,country,city", g.base, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var body struct {
		Status  string `json:"status"`
		Country string `json:"country"`
		City    string `json:"city"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", "", err
	}
	if body.Status != "success" {
		return "", "", fmt.Errorf("geo lookup failed for %s", ip)
	}
	return body.Country, body.City, nil
}

// BuildFingerprint derives the request's device/location fingerprint from
// the client IP, the User-Agent header and a geo lookup. Every field falls
// back to "unknown" so fingerprints always compare on the same shape.
func BuildFingerprint(ctx context.Context, r *http.Request, geo Geolocator) models.Fingerprint {
	ip := clientip.RealClientIP(r)

	uaString := r.UserAgent()
	ua := user_agent.New(uaString)

	browserName, browserVersion := ua.Browser()
	browser := strings.TrimSpace(browserName + " " + browserVersion)

	osName := ua.OS()
	platform := ua.Platform()

	deviceType := DeviceDesktop
	lower := strings.ToLower(uaString)
	switch {
	case strings.Contains(lower, "tablet") || strings.Contains(lower, "ipad"):
		deviceType = DeviceTablet
	case ua.Mobile():
		deviceType = DeviceMobile
	case ua.Bot():
		deviceType = DeviceBot
	}

	device := browser
	if osName != "" {
		if device != "" {
			device += " on "
		}
		device += osName
	}

	country, city := "", ""
	if geo != nil {
		c, ci, err := geo.Locate(ctx, ip)
		if err == nil {
			country, city = c, ci
		}
	}

	fp := models.Fingerprint{
		IP:         ip,
		Country:    country,
		City:       city,
		Device:     device,
		DeviceType: deviceType,
		Browser:    browser,
		OS:         osName,
		Platform:   platform,
	}
	return normalizeFingerprint(fp)
}

// normalizeFingerprint fills empty fields so equality checks never hinge
// on "" vs "unknown".
func normalizeFingerprint(fp models.Fingerprint) models.Fingerprint {
	fill := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "unknown"
		}
		return s
	}
	fp.IP = fill(fp.IP)
	fp.Country = fill(fp.Country)
	fp.City = fill(fp.City)
	fp.Device = fill(fp.Device)
	fp.DeviceType = fill(fp.DeviceType)
	fp.Browser = fill(fp.Browser)
	fp.OS = fill(fp.OS)
	fp.Platform = fill(fp.Platform)
	return fp
}
