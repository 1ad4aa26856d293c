package auth

// Navigator sends the user somewhere: the authorization endpoint on login
// or the login entry point after the session ends.
type Navigator interface {
	Navigate(target string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(target string)

func (f NavigatorFunc) Navigate(target string) { f(target) }

// NopNavigator ignores navigation. Used where the caller does its own
// redirects, such as the HTTP server.
type NopNavigator struct{}

func (NopNavigator) Navigate(string) {}
