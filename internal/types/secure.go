package types

import "log/slog"

const redacted = "[redacted]"

// SecretString holds a credential such as DATABASE_URL. It never prints,
// marshals or logs its raw value; call Reveal where the driver needs it.
type SecretString string

func (s SecretString) String() string { return redacted }

// GoString covers %#v, which bypasses String.
func (s SecretString) GoString() string { return redacted }

func (s SecretString) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

// LogValue keeps the value out of slog output, including nested groups.
func (s SecretString) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

// Reveal returns the plaintext value.
func (s SecretString) Reveal() string { return string(s) }

// IsSet reports whether a non-empty value was configured.
func (s SecretString) IsSet() bool { return s != "" }
