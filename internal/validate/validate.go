package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Input is the raw generation request as received from the form.
type Input struct {
	AppName     string
	WebsiteURL  string
	PackageName string
}

var (
	appNameRe      = regexp.MustCompile(`^[A-Za-z0-9 _-]+$`)
	packageRe      = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)
	tldRe          = regexp.MustCompile(`^[A-Za-z]{2,}$`)
	hostLabelDotRe = regexp.MustCompile(`\.`)
)

// Namespaces the Play Store and the Android toolchain reserve for themselves.
var reservedPrefixes = []string{
	"com.android",
	"com.google",
	"android",
	"java",
	"javax",
	"kotlin",
}

// A package segment equal to a Java keyword breaks the generated sources.
var reservedWords = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true, "class": true,
	"const": true, "continue": true, "default": true, "do": true,
	"double": true, "else": true, "enum": true, "extends": true,
	"final": true, "finally": true, "float": true, "for": true, "goto": true,
	"if": true, "implements": true, "import": true, "instanceof": true,
	"int": true, "interface": true, "long": true, "native": true,
	"new": true, "package": true, "private": true, "protected": true,
	"public": true, "return": true, "short": true, "static": true,
	"strictfp": true, "super": true, "switch": true, "synchronized": true,
	"this": true, "throw": true, "throws": true, "transient": true,
	"try": true, "void": true, "volatile": true, "while": true,
}

// AppName checks the display name. The returned warning is non-fatal.
func AppName(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("app name is required")
	}
	if len(name) < 2 || len(name) > 50 {
		return "", fmt.Errorf("app name must be between 2 and 50 characters")
	}
	if !appNameRe.MatchString(name) {
		return "", fmt.Errorf("app name may only contain letters, digits, spaces, hyphens and underscores")
	}
	return "", nil
}

// WebsiteURL checks that the URL is a well-formed http(s) address with a
// plausible hostname. localhost and loopback addresses are accepted with a
// warning because the resulting app only works on the build machine.
func WebsiteURL(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("website URL is required")
	}
	if strings.ContainsAny(raw, `"'`) {
		return "", fmt.Errorf("website URL must not contain quote characters")
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return "", fmt.Errorf("website URL must not contain whitespace")
	}
	if i := strings.Index(raw, ":"); i > 0 && !strings.HasPrefix(raw[i:], "://") {
		return "", fmt.Errorf("malformed URL: scheme must be followed by //")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("website URL is not a valid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("website URL must use http or https")
	}
	host := u.Hostname()
	if len(host) < 3 {
		return "", fmt.Errorf("hostname %q is too short", host)
	}
	if host == "localhost" || strings.HasPrefix(host, "127.") {
		return "localhost URLs only work on the machine running the app", nil
	}
	if !hostLabelDotRe.MatchString(host) {
		return "", fmt.Errorf("hostname %q must contain a dot-separated domain", host)
	}
	labels := strings.Split(host, ".")
	tld := labels[len(labels)-1]
	if !tldRe.MatchString(tld) {
		return "", fmt.Errorf("hostname %q has an invalid top-level domain %q", host, tld)
	}
	return "", nil
}

// PackageName checks a reverse-domain Android application id.
func PackageName(pkg string) error {
	if strings.TrimSpace(pkg) == "" {
		return fmt.Errorf("package name is required")
	}
	if !packageRe.MatchString(pkg) {
		return fmt.Errorf("package name must be lowercase reverse-domain form, e.g. com.example.app")
	}
	segments := strings.Split(pkg, ".")
	if len(segments) < 3 {
		return fmt.Errorf("package name must have at least 3 segments")
	}
	if len(segments) > 5 {
		return fmt.Errorf("package name must have at most 5 segments")
	}
	for _, prefix := range reservedPrefixes {
		if pkg == prefix || strings.HasPrefix(pkg, prefix+".") {
			return fmt.Errorf("package name must not use the reserved namespace %q", prefix)
		}
	}
	for _, seg := range segments {
		if reservedWords[seg] {
			return fmt.Errorf("package segment %q is a reserved word", seg)
		}
	}
	return nil
}

// Request validates a full generation request. All rules are checked before
// returning so the caller gets the first hard error; warnings accumulate.
func Request(in Input) ([]string, error) {
	var warnings []string
	if w, err := AppName(in.AppName); err != nil {
		return nil, err
	} else if w != "" {
		warnings = append(warnings, w)
	}
	if w, err := WebsiteURL(in.WebsiteURL); err != nil {
		return nil, err
	} else if w != "" {
		warnings = append(warnings, w)
	}
	if err := PackageName(in.PackageName); err != nil {
		return nil, err
	}
	return warnings, nil
}
