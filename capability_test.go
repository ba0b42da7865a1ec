package archetype

import "testing"

func TestCapabilityNames(t *testing.T) {
	tests := []struct {
		name  string
		valid func(string) bool
		known []string
	}{
		{
			name:  "encrypt",
			valid: func(s string) bool { return IsValidEncryptAlgo(EncryptAlgo(s)) },
			known: []string{"aes"},
		},
		{
			name:  "hash",
			valid: func(s string) bool { return IsValidHashAlgo(HashAlgo(s)) },
			known: []string{"argon2", "bcrypt", "sha256", "sha512"},
		},
		{
			name:  "mask",
			valid: func(s string) bool { return IsValidMaskType(MaskType(s)) },
			known: []string{"ssn", "email", "phone", "card", "name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range tt.known {
				if !tt.valid(k) {
					t.Errorf("%q should be valid", k)
				}
			}
			// Names are case and whitespace sensitive.
			for _, k := range []string{"", "unknown", "AES", "SHA256", "Email", " aes", "email "} {
				if tt.valid(k) {
					t.Errorf("%q should be invalid", k)
				}
			}
		})
	}
}

func TestBuiltinCapabilitiesMatchValidNames(t *testing.T) {
	hashers := builtinHashers()
	for algo := range validHashAlgos {
		if _, ok := hashers[algo]; !ok {
			t.Errorf("no builtin hasher for %q", algo)
		}
	}

	f := NewFactory(nil)
	if _, ok := f.encryptor(EncryptAES); ok {
		t.Error("encryptors must not be registered by default")
	}
}
