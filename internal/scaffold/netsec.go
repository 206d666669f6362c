package scaffold

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const netsecRelPath = "android/app/src/main/res/xml/network_security_config.xml"

// AllowHostname inserts host into the cleartext/domain allow-list of the
// workspace's network security config. The edit is line-oriented on purpose:
// round-tripping the file through an XML parser would reorder attributes and
// churn the template diff. Inserting twice is a no-op; a template without the
// config file is tolerated.
func AllowHostname(wsDir, host string) error {
	if host == "" {
		return nil
	}
	path := filepath.Join(wsDir, netsecRelPath)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	content := string(raw)
	entry := fmt.Sprintf(`<domain includeSubdomains="true">%s</domain>`, host)
	if strings.Contains(content, ">"+host+"<") {
		return nil
	}
	idx := strings.Index(content, "</domain-config>")
	if idx < 0 {
		return fmt.Errorf("no <domain-config> block in %s", netsecRelPath)
	}
	indent := "        "
	patched := content[:idx] + indent + entry + "\n    " + content[idx:]
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(patched), info.Mode().Perm())
}
