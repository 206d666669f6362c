package android

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/EZ-CORE/EZ-GEN/internal/progress"
	"github.com/EZ-CORE/EZ-GEN/internal/scaffold"
	"github.com/EZ-CORE/EZ-GEN/internal/toolrun"
	"github.com/EZ-CORE/EZ-GEN/internal/utils"
)

const (
	keystoreFileName = "release-key.keystore"
	keystoreSidecar  = "keystore-info.json"
	keystoreValidity = "10000" // days, ~27 years, outlives any Play listing
)

// ErrVerifyFailed means the generated keystore could not be read back with
// its own credentials. Proceeding to a release build would fail much later
// with a far worse diagnostic.
var ErrVerifyFailed = errors.New("keystore verification failed")

// KeystoreInfo is the signing credential record persisted next to the
// keystore so the customer can keep signing future releases.
type KeystoreInfo struct {
	KeystorePath  string    `json:"keystorePath"`
	StorePassword string    `json:"storePassword"`
	KeyAlias      string    `json:"keyAlias"`
	KeyPassword   string    `json:"keyPassword"`
	PackageName   string    `json:"packageName"`
	AppName       string    `json:"appName"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// KeystoreOptions tunes credential generation. The store password doubles as
// the key password unless SeparateKeyPassword is set; reusing it avoids a
// whole class of password-mismatch Gradle failures.
type KeystoreOptions struct {
	SeparateKeyPassword bool
}

// GenerateKeystore creates the release signing key for a workspace, persists
// the credential sidecar, and verifies the keystore is actually readable
// before returning it.
func GenerateKeystore(ctx context.Context, r toolrun.Runner, hub *progress.Hub, session string, ws *scaffold.Workspace, opt KeystoreOptions) (*KeystoreInfo, error) {
	ksPath := filepath.Join(ws.Dir, keystoreFileName)
	sidecar := filepath.Join(ws.Dir, keystoreSidecar)
	if _, err := os.Stat(sidecar); err == nil {
		// Regeneration overwrites the previous signing identity; apps signed
		// with the old key can no longer be updated.
		hub.Log(session, progress.Warning, "Existing keystore credentials found, overwriting")
	}

	storePass, err := randomCredential()
	if err != nil {
		return nil, fmt.Errorf("generating credential: %w", err)
	}
	keyPass := storePass
	if opt.SeparateKeyPassword {
		if keyPass, err = randomCredential(); err != nil {
			return nil, fmt.Errorf("generating key credential: %w", err)
		}
	}

	alias := utils.SanitizeName(ws.AppName)
	if alias == "" {
		alias = "app"
	}
	dname := fmt.Sprintf("CN=%s, OU=Mobile, O=%s, L=Unknown, S=Unknown, C=US", ws.AppName, ws.AppName)

	hub.Log(session, progress.Info, "Generating release keystore (alias %s)", alias)
	res, err := r.Run(ctx, toolrun.Spec{
		Name: "keytool",
		Args: []string{
			"-genkeypair", "-v",
			"-keystore", ksPath,
			"-alias", alias,
			"-keyalg", "RSA",
			"-keysize", "2048",
			"-validity", keystoreValidity,
			"-storepass", storePass,
			"-keypass", keyPass,
			"-dname", dname,
			"-noprompt",
		},
		Dir:     ws.Dir,
		Timeout: 2 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("running keytool: %w", err)
	}
	if res.ExitCode != 0 || res.TimedOut {
		return nil, fmt.Errorf("keytool exited %d: %s", res.ExitCode, tail(res.Output(), 400))
	}

	info := &KeystoreInfo{
		KeystorePath:  ksPath,
		StorePassword: storePass,
		KeyAlias:      alias,
		KeyPassword:   keyPass,
		PackageName:   ws.PackageName,
		AppName:       ws.AppName,
		GeneratedAt:   time.Now().UTC(),
	}
	raw, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(sidecar, raw, 0o600); err != nil {
		return nil, fmt.Errorf("writing credential sidecar: %w", err)
	}

	if err := VerifyKeystore(ctx, r, info); err != nil {
		return nil, err
	}
	hub.Log(session, progress.Success, "Keystore generated and verified")
	return info, nil
}

// VerifyKeystore lists the keystore with its recorded credentials. Any
// nonzero exit is a hard failure.
func VerifyKeystore(ctx context.Context, r toolrun.Runner, info *KeystoreInfo) error {
	res, err := r.Run(ctx, toolrun.Spec{
		Name: "keytool",
		Args: []string{
			"-list",
			"-keystore", info.KeystorePath,
			"-alias", info.KeyAlias,
			"-storepass", info.StorePassword,
		},
		Timeout: time.Minute,
	})
	if err != nil {
		return fmt.Errorf("running keytool -list: %w", err)
	}
	if res.ExitCode != 0 || res.TimedOut {
		return fmt.Errorf("%w: keytool -list exited %d: %s", ErrVerifyFailed, res.ExitCode, tail(res.Output(), 400))
	}
	return nil
}

// LoadKeystoreInfo reads the credential sidecar of an existing workspace.
func LoadKeystoreInfo(wsDir string) (*KeystoreInfo, error) {
	raw, err := os.ReadFile(filepath.Join(wsDir, keystoreSidecar))
	if err != nil {
		return nil, err
	}
	var info KeystoreInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func randomCredential() (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
