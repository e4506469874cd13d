package web

import "embed"

// StaticFS embeds the front page and its assets.
//
//go:embed static/*
var StaticFS embed.FS
