package model

// Credential holds a tenant's e-invoicing platform login. The password is
// plaintext only after decryption and only for the duration of a token
// fetch; callers must never persist or log it.
type Credential struct {
	Tenant   string
	Username string
	Password string
}
