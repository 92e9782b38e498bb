package tracefmt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// IDE selects the hyperlink flavor of the default templates.
type IDE string

const (
	IDEUnknown IDE = "unknown"
	IDEVSCode  IDE = "vscode"
	IDEPyCharm IDE = "pycharm"
)

// DetectIDE inspects the environment for a hosting IDE.
func DetectIDE(getenv func(string) string) IDE {
	switch {
	case getenv("TERM_PROGRAM") == "vscode":
		return IDEVSCode
	case getenv("PYCHARM_HOSTED") != "":
		return IDEPyCharm
	default:
		return IDEUnknown
	}
}

// Hyperlink templates understood by IDE terminals.
const (
	PyCharmLink = `File "%file", line %lineno`
	VSCodeLink  = "[" + PyCharmLink + "](command:workbench.action.files.openFile?path=%file&line=%lineno)"
)

// LinkFor returns the hyperlink template for an IDE.
func LinkFor(ide IDE) string {
	if ide == IDEVSCode {
		return VSCodeLink
	}
	return PyCharmLink
}

const (
	DefaultAnchor               = "⚓"
	DefaultQuotationReplacement = "”"
	DefaultLineLength           = 80
	notFoundText                = "Not found"
)

// palette returns the colors used by the built-in templates. Colors are
// forced on so rendered output does not depend on the terminal.
func palette(enabled bool) (link, missing func(a ...any) string) {
	if !enabled {
		return fmt.Sprint, fmt.Sprint
	}
	green := color.New(color.FgGreen)
	green.EnableColor()
	yellow := color.New(color.FgHiYellow)
	yellow.EnableColor()
	return green.SprintFunc(), yellow.SprintFunc()
}

// defaultModes builds the default normal and consecutive templates:
//
//	(%depth)%depth_indent⚓10⚓%line⚓90⚓<link> (%func)
//	 ⚓10⚓%line⚓90⚓<link> (%func)
func defaultModes(anchor string, lineLength int, link string, colored bool) (mode, consecutive string) {
	green, _ := palette(colored)
	tail := anchor + "10" + anchor + "%line" + anchor + strconv.Itoa(lineLength+10) + anchor + green(link+" (%func)")
	return "(%depth)%depth_indent" + tail, " " + tail
}

func defaultNotFound(colored bool) string {
	_, yellow := palette(colored)
	return yellow(notFoundText)
}

// DefaultSettings returns the built-in settings. Derived values (link,
// templates, not-found marker) are left empty and filled in by Compile.
func DefaultSettings() Settings {
	return Settings{
		Anchor:               DefaultAnchor,
		QuotationReplacement: DefaultQuotationReplacement,
		LineLength:           DefaultLineLength,
		IDE:                  IDEUnknown,
		TraceLines:           true,
		IgnoreUnfoundLines:   true,
		Color:                true,
	}
}

// ParseIDE converts a string to IDE.
func ParseIDE(s string) (IDE, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unknown":
		return IDEUnknown, nil
	case "vscode":
		return IDEVSCode, nil
	case "pycharm":
		return IDEPyCharm, nil
	default:
		return IDEUnknown, fmt.Errorf("invalid IDE: %q (expected: auto|vscode|pycharm|unknown)", s)
	}
}

// ParseIDEOverride parses the IDE of an override layer. "auto" leaves the
// IDE to environment detection and yields nil.
func ParseIDEOverride(s string) (*IDE, error) {
	if strings.EqualFold(strings.TrimSpace(s), "auto") {
		return nil, nil
	}
	ide, err := ParseIDE(s)
	if err != nil {
		return nil, err
	}
	return &ide, nil
}
