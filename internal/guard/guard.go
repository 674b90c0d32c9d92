// Package guard decides whether a session may reach a route.
//
// Decisions are pure functions of the Session loaded for the current request.
// Page routes turn a denial into a 303 redirect; API routes into a coded
// JSON error.
package guard

import (
	"log/slog"
	"net/http"

	"zkid/internal/session"
	dErrors "zkid/pkg/domain-errors"
	"zkid/pkg/platform/httputil"
	"zkid/pkg/requestcontext"
)

const (
	PathLanding = "/"
	PathKYC     = "/kyc-verification"
	PathDash    = "/dashboard"

	MessageWalletRequired = "Please connect your wallet first"
)

// Requirements lists the capabilities a route needs. KYC and Wallet imply Auth.
type Requirements struct {
	Auth   bool
	KYC    bool
	Wallet bool
}

// Decision is the outcome for one request. RedirectTo is set only on denial.
type Decision struct {
	Allowed    bool
	RedirectTo string
	Message    string
	Code       dErrors.Code
}

var allow = Decision{Allowed: true}

// Decide checks authentication, then KYC, then the wallet.
func Decide(sess *session.Session, req Requirements) Decision {
	needAuth := req.Auth || req.KYC || req.Wallet
	if needAuth && !sess.Authenticated() {
		return Decision{RedirectTo: PathLanding, Code: dErrors.CodeUnauthorized, Message: "authentication required"}
	}
	if req.KYC && !sess.KYCComplete() {
		return Decision{RedirectTo: PathKYC, Code: dErrors.CodeKYCRequired, Message: "KYC verification required"}
	}
	if req.Wallet && !sess.HasWallet() {
		return Decision{RedirectTo: PathLanding, Code: dErrors.CodeWalletRequired, Message: MessageWalletRequired}
	}
	return allow
}

// redirectBody is the JSON body sent with page redirects.
type redirectBody struct {
	RedirectTo string `json:"redirect_to"`
	Message    string `json:"message,omitempty"`
}

// Redirect writes a 303 with a Location header and a JSON body for clients
// that do not follow redirects.
func Redirect(w http.ResponseWriter, location, message string) {
	w.Header().Set("Location", location)
	httputil.WriteJSON(w, http.StatusSeeOther, redirectBody{RedirectTo: location, Message: message})
}

// Page guards a page route. Only the wallet denial carries a toast message.
func Page(req Requirements, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Decide(session.FromContext(r.Context()), req)
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			logDenial(r, logger, d)
			msg := ""
			if d.Code == dErrors.CodeWalletRequired {
				msg = d.Message
			}
			Redirect(w, d.RedirectTo, msg)
		})
	}
}

// API guards a JSON route.
func API(req Requirements, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := Decide(session.FromContext(r.Context()), req)
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}
			logDenial(r, logger, d)
			httputil.WriteError(w, dErrors.New(d.Code, d.Message))
		})
	}
}

func logDenial(r *http.Request, logger *slog.Logger, d Decision) {
	ctx := r.Context()
	logger.DebugContext(ctx, "route guard denied request",
		"request_id", requestcontext.RequestID(ctx),
		"path", r.URL.Path,
		"code", string(d.Code),
	)
}
