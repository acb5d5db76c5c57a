package client

import "useradmin/m/domain"

// Route describes what a client-side page needs before it is shown.
type Route struct {
	Path         string
	Public       bool
	RequiresAuth bool
	Roles        []domain.Role
	// Redirect, when set, always sends the visitor elsewhere.
	Redirect string
}

// Routes is the client route table.
var Routes = []Route{
	{Path: "/", Redirect: "/login"},
	{Path: "/login", Public: true},
	{Path: "/register", Public: true},
	{Path: "/admin", RequiresAuth: true, Roles: []domain.Role{domain.RoleAdmin}},
	{Path: "/user-home", RequiresAuth: true},
}

// Decision is the outcome of a navigation check. An empty Redirect means
// the navigation may proceed.
type Decision struct {
	Redirect string
}

func (d Decision) Allowed() bool { return d.Redirect == "" }

// Guard decides whether navigating to path is allowed with the cached
// session. It only inspects local state and is advisory: the server checks
// every request again.
func Guard(path string, s *Session) Decision {
	route, ok := lookup(path)
	if !ok {
		return Decision{}
	}
	if route.Redirect != "" {
		return Decision{Redirect: route.Redirect}
	}

	loggedIn := s.LoggedIn()
	if len(route.Roles) > 0 && (!loggedIn || !hasRole(route.Roles, s.Role)) {
		return Decision{Redirect: "/login"}
	}
	if route.RequiresAuth && !loggedIn {
		return Decision{Redirect: "/login"}
	}
	if route.Public && loggedIn {
		return Decision{Redirect: Landing(s.Role)}
	}
	return Decision{}
}

// Landing is the page a signed in user starts on.
func Landing(role domain.Role) string {
	if role == domain.RoleAdmin {
		return "/admin"
	}
	return "/user-home"
}

func lookup(path string) (Route, bool) {
	for _, r := range Routes {
		if r.Path == path {
			return r, true
		}
	}
	return Route{}, false
}

func hasRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
