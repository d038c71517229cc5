package ltpanel

import "errors"

// Failure kinds. Each is reported to the user as a short status and is
// never retried automatically.
var (
	// ErrNoResponse: the service answered with an empty body.
	ErrNoResponse = errors.New("ltpanel: no response from server")
	// ErrNonSuccessStatus: non-2xx status or a body that does not parse.
	ErrNonSuccessStatus = errors.New("ltpanel: no valid response from server")
	// ErrNetwork: the request did not complete.
	ErrNetwork = errors.New("ltpanel: network error")
	// ErrTimeout: the request ran past the hard timeout.
	ErrTimeout = errors.New("ltpanel: timeout")
	// ErrUnsupportedSite: the host cannot safely read or write this page.
	// Raised before any network call.
	ErrUnsupportedSite = errors.New("ltpanel: site not supported")
	// ErrFreshInstall: the host returned no page at all.
	ErrFreshInstall = errors.New("ltpanel: no response from page, reload it")

	// ErrBusy: an action arrived while a check was in flight.
	ErrBusy = errors.New("ltpanel: check in progress")
	// ErrClosed: the session was closed.
	ErrClosed = errors.New("ltpanel: session closed")
	// ErrInvalidServerURL: server URLs must start with http:// or https://.
	ErrInvalidServerURL = errors.New("ltpanel: server URL must start with http:// or https://")
	// ErrRuleNotIgnored: EnableRule found nothing to remove.
	ErrRuleNotIgnored = errors.New("ltpanel: rule is not ignored")
)

// Kind names the failure class of err for status displays and
// diagnostics, or "" when err is not one of the kinds above.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNoResponse):
		return "noResponseFromServer"
	case errors.Is(err, ErrNonSuccessStatus):
		return "noValidResponseFromServer"
	case errors.Is(err, ErrTimeout):
		return "timeoutError"
	case errors.Is(err, ErrNetwork):
		return "networkError"
	case errors.Is(err, ErrUnsupportedSite):
		return "siteNotSupported"
	case errors.Is(err, ErrFreshInstall):
		return "freshInstallReload"
	default:
		return ""
	}
}
