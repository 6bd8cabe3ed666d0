// Package appfs exposes the app's embedded assets: email templates, lesson
// catalogs and database migrations.
package appfs

import "embed"

//go:embed all:assets migrations
var FS embed.FS
