package build

import "strings"

// Set at build time via ldflags.
var (
	Version = "dev"
	AppName = "Multik"
	Slug    = ""
)

func init() {
	if Slug == "" {
		Slug = strings.ToLower(AppName)
	}
}
