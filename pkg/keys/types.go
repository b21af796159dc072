package keys

import "time"

// Key is the persisted form of an issued API key credential.
//
// The struct deliberately has no plaintext field: the secret is returned
// exactly once from the issuing call and is not re-derivable from SecretHash
// and Salt.
type Key struct {
	// ID is the unique identifier assigned at creation. Immutable.
	ID int64 `json:"id"`

	// Name is a caller-supplied label (owner email, service name). Free text.
	Name string `json:"name"`

	// Prefix is the public key prefix this credential was issued under.
	Prefix string `json:"prefix"`

	// SecretHash is the argon2id hash of the plaintext secret.
	SecretHash []byte `json:"-"`

	// Salt is the per-key random salt used to derive SecretHash.
	Salt []byte `json:"-"`

	// CreatedAt is when the credential was issued.
	CreatedAt time.Time `json:"created_at"`

	// RevokedAt is when the credential was revoked. Nil means active.
	// Once set it is never cleared; revocation is terminal.
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Active reports whether the credential can still authenticate requests.
func (k *Key) Active() bool {
	return k.RevokedAt == nil
}

// Redacted is the admin-facing view of a credential. It structurally omits
// SecretHash and Salt so listings cannot leak verification material.
type Redacted struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Prefix    string     `json:"prefix"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

// Redact converts a Key to its admin-facing view.
func (k *Key) Redact() Redacted {
	return Redacted{
		ID:        k.ID,
		Name:      k.Name,
		Prefix:    k.Prefix,
		Active:    k.Active(),
		CreatedAt: k.CreatedAt,
		RevokedAt: k.RevokedAt,
	}
}
