// Package access decides whether a resolved identity may reach a route.
// It is pure: callers resolve the State and enforce the Decision.
package access

import (
	"net/url"
	"strings"
)

// StateKind tags the resolved authentication state of a request.
type StateKind int

const (
	Unauthenticated StateKind = iota
	Authenticating
	Authenticated
	Failed
)

// Identity is the database-backed view of the caller used for authorization.
type Identity struct {
	UserID uint
	Email  string
	Role   string
}

// State is the tagged union {Unauthenticated, Authenticating, Authenticated(identity), Error(reason)}.
type State struct {
	Kind     StateKind
	Identity Identity
	Reason   string
}

// Anonymous returns the unauthenticated state.
func Anonymous() State { return State{Kind: Unauthenticated} }

// Pending returns the state used while identity resolution is still in flight.
func Pending() State { return State{Kind: Authenticating} }

// SignedIn returns the authenticated state for id.
func SignedIn(id Identity) State { return State{Kind: Authenticated, Identity: id} }

// Errored returns the error state with a reason for logs.
func Errored(reason string) State { return State{Kind: Failed, Reason: reason} }

// Requirement describes who may reach a route.
type Requirement struct {
	public bool
	roles  []string
}

// Public allows everyone.
func Public() Requirement { return Requirement{public: true} }

// AnyAuthenticated allows any signed-in identity.
func AnyAuthenticated() Requirement { return Requirement{} }

// AnyOf allows identities holding one of roles.
func AnyOf(roles ...string) Requirement { return Requirement{roles: roles} }

// IsPublic reports whether the requirement admits everyone.
func (r Requirement) IsPublic() bool { return r.public }

// DecisionKind is the outcome of an access check.
type DecisionKind int

const (
	Allow DecisionKind = iota
	RedirectToLogin
	Forbidden
)

func (k DecisionKind) String() string {
	switch k {
	case Allow:
		return "allow"
	case RedirectToLogin:
		return "redirect_to_login"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Decision is the outcome plus the destination to resume after login.
type Decision struct {
	Kind DecisionKind
	Next string
}

// Decide evaluates state against req for a request to path.
// Anything other than a settled Authenticated state is treated as signed out.
func Decide(state State, req Requirement, path string) Decision {
	if req.public {
		return Decision{Kind: Allow}
	}
	if state.Kind != Authenticated {
		return Decision{Kind: RedirectToLogin, Next: SafeNext(path)}
	}
	if len(req.roles) == 0 {
		return Decision{Kind: Allow}
	}
	for _, role := range req.roles {
		if role == state.Identity.Role {
			return Decision{Kind: Allow}
		}
	}
	return Decision{Kind: Forbidden}
}

// LoginRedirect builds the login URL preserving the intended destination.
func LoginRedirect(next string) string {
	safe := SafeNext(next)
	if safe == "" || safe == "/" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(safe)
}

// SafeNext returns next when it is a same-origin relative path, otherwise "/".
func SafeNext(next string) string {
	trimmed := strings.TrimSpace(next)
	if trimmed == "" || !strings.HasPrefix(trimmed, "/") {
		return "/"
	}
	// 拒绝协议相对地址和反斜杠变体
	if strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/\\") || strings.ContainsAny(trimmed, "\r\n") {
		return "/"
	}
	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return trimmed
}
