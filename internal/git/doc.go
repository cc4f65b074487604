// Package git inspects the work tree a documentation project lives in, so
// page versions can name the commit they were synced from.
package git
