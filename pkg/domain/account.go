package domain

// Account is the CMS user a session belongs to.
type Account struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// AuthResult is the body returned by the authentication endpoint.
type AuthResult struct {
	JWT  string   `json:"jwt"`
	User *Account `json:"user,omitempty"`
}
