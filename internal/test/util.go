package test

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/futurehomeno/cliffhanger/manifest"
)

var (
	// SerialNumber is the serial number of the scooter used in tests.
	SerialNumber = "NT1234567890"
	// ScooterName is the display name of the scooter used in tests.
	ScooterName = "My NQi"
	// AccessToken is the access token used in tests.
	AccessToken = "test.access.token"
	// Username is the account used in tests.
	Username = "rider@example.com"
	// Password is the plaintext password used in tests.
	Password = "secret"
	// PasswordMD5 is the MD5 hex digest of Password.
	PasswordMD5 = "5ebe2294ecd0e0f08eab7690d2a6ee69"
)

// LoadManifest loads and parses app manifest from default test files.
func LoadManifest(t *testing.T) *manifest.Manifest {
	t.Helper()

	f, err := os.ReadFile("./../../testdata/defaults/app-manifest.json")
	if err != nil {
		t.Fatalf("failed to load manifest from file: %+v", err)
	}

	mf := manifest.New()

	err = json.Unmarshal(f, mf)
	if err != nil {
		t.Fatalf("failed to unmarshal manifest: %+v", err)
	}

	return mf
}
