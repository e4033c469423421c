// Package model defines the download session record, its lifecycle states and
// the derived row projection shown in the downloads window. Everything here is
// plain data plus pure functions so it can be exercised without a UI.
package model
