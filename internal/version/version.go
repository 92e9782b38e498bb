package version

import "github.com/fatih/color"

// Version information for the fulltrace CLI.
// These variables can be overridden at build time via -ldflags.

var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	nameColor    = color.New(color.FgGreen, color.Bold)
	versionColor = color.New(color.FgYellow, color.Bold)
)

// Banner returns "fulltrace <version>", colored when colored is set.
func Banner(colored bool) string {
	v := Version
	if v == "" {
		v = "dev"
	}
	if !colored {
		return "fulltrace " + v
	}
	name := *nameColor
	ver := *versionColor
	name.EnableColor()
	ver.EnableColor()
	return name.Sprint("fulltrace") + " " + ver.Sprint(v)
}
