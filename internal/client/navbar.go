package client

// NavBar is the header line: who is logged in and the way out.
type NavBar struct {
	Session Session
}

func (n NavBar) Greeting() string {
	if n.Session.User == nil {
		return "Not logged in"
	}

	name := n.Session.User.Name
	if name == "" {
		name = n.Session.User.ID
	}
	return "Welcome, " + name
}

// Logout invalidates the session through logOut and returns the logged-out
// session. The user is cleared even when logOut fails.
func (n NavBar) Logout(logOut func() error) (Session, error) {
	var err error
	if logOut != nil {
		err = logOut()
	}
	return Session{}, err
}
