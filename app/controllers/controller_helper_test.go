package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientIPFor(t *testing.T, configure func(*http.Request)) (string, string) {
	t.Helper()

	var ipv4, ipv6 string
	app := fiber.New()
	app.Get("/t", func(c *fiber.Ctx) error {
		ipv4, ipv6 = GetClientIP(c)
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	if configure != nil {
		configure(req)
	}
	_, err := app.Test(req, -1)
	require.NoError(t, err)

	return ipv4, ipv6
}

func TestGetClientIPFromForwardedFor(t *testing.T) {
	ipv4, ipv6 := clientIPFor(t, func(req *http.Request) {
		req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	})
	assert.Equal(t, "203.0.113.7", ipv4)
	assert.Empty(t, ipv6)
}

func TestGetClientIPFromForwardedForIPv6(t *testing.T) {
	ipv4, ipv6 := clientIPFor(t, func(req *http.Request) {
		req.Header.Set("X-Forwarded-For", "2001:db8::1")
	})
	assert.Empty(t, ipv4)
	assert.Equal(t, "2001:db8::1", ipv6)
}

func TestGetClientIPDualStackForwardedFor(t *testing.T) {
	ipv4, ipv6 := clientIPFor(t, func(req *http.Request) {
		req.Header.Set("X-Forwarded-For", "2001:db8::1, 203.0.113.9")
	})
	assert.Equal(t, "203.0.113.9", ipv4)
	assert.Equal(t, "2001:db8::1", ipv6)
}
