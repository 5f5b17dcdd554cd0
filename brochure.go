// Package brochure contains the version number of the site server and the
// handful of process-wide names shared between its packages.
package brochure

import "time"

// Version is the current version of the site server.
//
// This variable is set at build time using the -X linker flag. If not set,
// it defaults to "devel".
var Version = "devel"

// SessionCookieName is the name of the admin session cookie.
var SessionCookieName = "brochure-session"

// BasePrefix is a global prefix for all site routes. Set at startup from
// the -base-prefix flag.
var BasePrefix = ""

// StaticPath is the location where all static assets are served from.
const StaticPath = "/.brochure/static/"

// APIPrefix is the prefix for machine-readable endpoints such as the
// CAPTCHA challenge endpoint.
const APIPrefix = "/api/"

// AdminPrefix is where the admin panel API is mounted.
const AdminPrefix = "/admin"

// CaptchaTTL is how long an issued CAPTCHA token stays acceptable.
const CaptchaTTL = 5 * time.Minute

// SessionDefaultExpirationTime is how long an admin session lasts before
// the admin has to log in again.
const SessionDefaultExpirationTime = 12 * time.Hour

// PrefixedPath joins BasePrefix and path without doubling slashes.
func PrefixedPath(path string) string {
	base := BasePrefix
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	if len(path) == 0 || path[0] != '/' {
		path = "/" + path
	}
	return base + path
}
