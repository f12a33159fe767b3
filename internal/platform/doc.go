// Package platform contains filesystem helpers shared by the listener engine:
// directory creation, destination-folder scanning, and filename sanitization.
package platform
