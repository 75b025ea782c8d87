package clients

import (
	"net/http"
	"time"
)

type HTTP struct{ c *http.Client }

func NewHTTP() *HTTP { return &HTTP{c: &http.Client{Timeout: 10 * time.Minute}} }

// NewHTTPWith wraps a caller-supplied client, e.g. one with a shorter timeout.
func NewHTTPWith(c *http.Client) *HTTP { return &HTTP{c: c} }
