package folio

import "embed"

// EmbeddedAssets holds the default stylesheet and favicon served when
// the user's static dir does not provide its own.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
