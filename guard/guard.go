// Package guard decides whether a navigation may render, given the current session.
package guard

import (
	"net/url"
	"slices"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

type Principal interface {
	IsAuthenticated() bool
	HasRole(role string) bool
}

type Outcome int

const (
	Allow Outcome = iota
	RedirectLogin
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	}
	return "unknown"
}

// Decision is the result of evaluating a chain of guards. From is set on RedirectLogin
// so the login view can return the user to the requested location.
type Decision struct {
	Outcome  Outcome
	Redirect string
	From     string
}

func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

// Guard requires an authenticated principal and, when Roles is non-empty, at least one of Roles.
type Guard struct {
	Roles []string
}

func RequireAuth() Guard {
	return Guard{}
}

func RequireAnyRole(roles ...string) Guard {
	return Guard{Roles: slices.Clone(roles)}
}

func (g Guard) check(p Principal, location string) Decision {
	if p == nil || !p.IsAuthenticated() {
		return Decision{Outcome: RedirectLogin, Redirect: LoginPath, From: location}
	}
	if len(g.Roles) == 0 {
		return Decision{Outcome: Allow}
	}
	for _, role := range g.Roles {
		if p.HasRole(role) {
			return Decision{Outcome: Allow}
		}
	}
	return Decision{Outcome: RedirectHome, Redirect: HomePath}
}

// Evaluate runs guards outermost first and stops at the first one that denies.
// With no guards it still requires authentication.
func Evaluate(p Principal, location string, guards ...Guard) Decision {
	if len(guards) == 0 {
		return RequireAuth().check(p, location)
	}
	for _, g := range guards {
		if d := g.check(p, location); !d.Allowed() {
			return d
		}
	}
	return Decision{Outcome: Allow}
}

// LoginURL renders the login redirect with the requested location as the from parameter.
func LoginURL(d Decision) string {
	if d.From == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"from": {d.From}}.Encode()
}
