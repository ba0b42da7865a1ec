package archetype

import (
	"context"
	"encoding/base64"
	"fmt"
)

// Capability transforms accept string and []byte values. A nil value passes
// through untouched so optional properties are not forced to a zero value.

// textValue extracts the bytes of a string or []byte value.
func textValue(value any) ([]byte, bool, bool) {
	switch v := value.(type) {
	case string:
		return []byte(v), false, true
	case []byte:
		return v, true, true
	default:
		return nil, false, false
	}
}

func fieldName(fc FieldContext) string {
	if fc.Property == nil {
		return ""
	}
	return fc.Property.Name()
}

// MaskTransform masks string values with m. Byte slices stay byte slices.
func MaskTransform(m Masker) Transform {
	return func(_ context.Context, value any, fc FieldContext) (any, error) {
		if value == nil {
			return nil, nil
		}
		raw, isBytes, ok := textValue(value)
		if !ok {
			return nil, newTransformError(ErrMask, "mask", fieldName(fc), fmt.Errorf("unsupported type %T", value))
		}
		masked := m.Mask(string(raw))
		if isBytes {
			return []byte(masked), nil
		}
		return masked, nil
	}
}

// RedactTransform replaces every non-nil value with replacement.
func RedactTransform(replacement string) Transform {
	return func(_ context.Context, value any, _ FieldContext) (any, error) {
		if value == nil {
			return nil, nil
		}
		return replacement, nil
	}
}

// HashTransform replaces the value with its hash. The result is always a string.
func HashTransform(h Hasher) Transform {
	return func(_ context.Context, value any, fc FieldContext) (any, error) {
		if value == nil {
			return nil, nil
		}
		raw, _, ok := textValue(value)
		if !ok {
			return nil, newTransformError(ErrHash, "hash", fieldName(fc), fmt.Errorf("unsupported type %T", value))
		}
		hashed, err := h.Hash(raw)
		if err != nil {
			return nil, newTransformError(ErrHash, "hash", fieldName(fc), err)
		}
		return hashed, nil
	}
}

// EncryptTransform encrypts the value with e. Strings are encrypted into
// base64 text, byte slices into raw ciphertext.
func EncryptTransform(e Encryptor) Transform {
	return func(_ context.Context, value any, fc FieldContext) (any, error) {
		if value == nil {
			return nil, nil
		}
		raw, isBytes, ok := textValue(value)
		if !ok {
			return nil, newTransformError(ErrEncrypt, "encrypt", fieldName(fc), fmt.Errorf("unsupported type %T", value))
		}
		ciphertext, err := e.Encrypt(raw)
		if err != nil {
			return nil, newTransformError(ErrEncrypt, "encrypt", fieldName(fc), err)
		}
		if isBytes {
			return ciphertext, nil
		}
		return base64.StdEncoding.EncodeToString(ciphertext), nil
	}
}

// DecryptTransform reverses EncryptTransform.
func DecryptTransform(e Encryptor) Transform {
	return func(_ context.Context, value any, fc FieldContext) (any, error) {
		if value == nil {
			return nil, nil
		}
		raw, isBytes, ok := textValue(value)
		if !ok {
			return nil, newTransformError(ErrDecrypt, "decrypt", fieldName(fc), fmt.Errorf("unsupported type %T", value))
		}
		ciphertext := raw
		if !isBytes {
			decoded, err := base64.StdEncoding.DecodeString(string(raw))
			if err != nil {
				return nil, newTransformError(ErrDecrypt, "base64 decode", fieldName(fc), err)
			}
			ciphertext = decoded
		}
		plaintext, err := e.Decrypt(ciphertext)
		if err != nil {
			return nil, newTransformError(ErrDecrypt, "decrypt", fieldName(fc), err)
		}
		if isBytes {
			return plaintext, nil
		}
		return string(plaintext), nil
	}
}
