package validate

import (
	"strings"
	"testing"
)

func TestAppNameValid(t *testing.T) {
	for _, name := range []string{"MyStore", "My Store 2", "my_app-1", "ab"} {
		if _, err := AppName(name); err != nil {
			t.Errorf("AppName(%q) = %v, want nil", name, err)
		}
	}
}

func TestAppNameInvalid(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"", "required"},
		{"a", "between 2 and 50"},
		{strings.Repeat("x", 51), "between 2 and 50"},
		{"bad!name", "letters, digits"},
		{"emojié❤", "letters, digits"},
	}
	for _, c := range cases {
		if _, err := AppName(c.name); err == nil {
			t.Errorf("AppName(%q) accepted, want rejection", c.name)
		} else if !strings.Contains(err.Error(), c.want) {
			t.Errorf("AppName(%q) = %q, want mention of %q", c.name, err, c.want)
		}
	}
}

func TestWebsiteURLValid(t *testing.T) {
	for _, u := range []string{
		"https://mystoreapp.com",
		"http://shop.example.co.uk/path?q=1",
		"https://example.com:8443",
	} {
		if _, err := WebsiteURL(u); err != nil {
			t.Errorf("WebsiteURL(%q) = %v, want nil", u, err)
		}
	}
}

func TestWebsiteURLLocalhostWarns(t *testing.T) {
	warn, err := WebsiteURL("http://localhost:8100")
	if err != nil {
		t.Fatalf("localhost rejected: %v", err)
	}
	if warn == "" {
		t.Fatal("localhost accepted without a warning")
	}
	if warn2, err := WebsiteURL("http://127.0.0.1"); err != nil || warn2 == "" {
		t.Fatalf("loopback: warn=%q err=%v", warn2, err)
	}
}

func TestWebsiteURLInvalid(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"", "required"},
		{"http:badurl", "scheme must be followed by //"},
		{"https://example .com", "whitespace"},
		{`https://exa"mple.com`, "quote"},
		{"ftp://example.com", "http or https"},
		{"not-a-valid-url", "http or https"},
		{"https://ab", "too short"},
		{"https://nodothost", "dot-separated"},
		{"https://example.c0m!", "top-level"},
	}
	for _, c := range cases {
		if _, err := WebsiteURL(c.url); err == nil {
			t.Errorf("WebsiteURL(%q) accepted, want rejection", c.url)
		} else if !strings.Contains(err.Error(), c.want) {
			t.Errorf("WebsiteURL(%q) = %q, want mention of %q", c.url, err, c.want)
		}
	}
}

func TestPackageNameValid(t *testing.T) {
	for _, p := range []string{
		"com.mystore.app",
		"io.my_company.shop.mobile",
		"net.a1.b2.c3.d4",
	} {
		if err := PackageName(p); err != nil {
			t.Errorf("PackageName(%q) = %v, want nil", p, err)
		}
	}
}

func TestPackageNameInvalid(t *testing.T) {
	cases := []struct {
		pkg  string
		want string
	}{
		{"", "required"},
		{"com.example", "at least 3"},
		{"a.b.c.d.e.f", "at most 5"},
		{"Com.Example.App", "lowercase"},
		{"com.1bad.app", "lowercase"},
		{"com.android.test", "reserved namespace"},
		{"com.google.shop.app", "reserved namespace"},
		{"java.util.app", "reserved namespace"},
		{"com.example.class", "reserved word"},
	}
	for _, c := range cases {
		if err := PackageName(c.pkg); err == nil {
			t.Errorf("PackageName(%q) accepted, want rejection", c.pkg)
		} else if !strings.Contains(err.Error(), c.want) {
			t.Errorf("PackageName(%q) = %q, want mention of %q", c.pkg, err, c.want)
		}
	}
}

func TestRequest(t *testing.T) {
	warns, err := Request(Input{
		AppName:     "MyStore",
		WebsiteURL:  "https://mystoreapp.com",
		PackageName: "com.mystore.app",
	})
	if err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}

	if _, err := Request(Input{AppName: "MyStore", WebsiteURL: "not-a-valid-url", PackageName: "com.mystore.app"}); err == nil {
		t.Fatal("invalid URL accepted")
	}
	if _, err := Request(Input{AppName: "MyStore", WebsiteURL: "https://mystoreapp.com", PackageName: "com.android.test"}); err == nil {
		t.Fatal("reserved package accepted")
	}
}
