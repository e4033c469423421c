package platform

// Package platform contains OS integration: the default downloads directory,
// file name helpers and opening or revealing files with system tools.
