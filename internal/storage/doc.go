// Package storage renders markdown into Confluence storage format XHTML.
//
// Rendering is the first of two passes. Local images and relative links
// cannot be finalized until every page of the site is known, so Render
// returns them alongside the markup: images keep their literal filename and
// relative links point at a placeholder href. internal/xref rewrites both
// once the whole page tree has been rendered.
package storage
