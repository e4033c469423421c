// Package browser holds the shell state that does not depend on the GUI
// toolkit: resolving address bar input and the set of open tabs with their
// navigation history.
package browser
