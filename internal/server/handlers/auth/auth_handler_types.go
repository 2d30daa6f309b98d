package auth

// TokenRequest asks for a session token for an account.
type TokenRequest struct {
	Account string `json:"account" binding:"required"`
}

// TokenResponse carries the issued session token.
type TokenResponse struct {
	Token string `json:"token"`
}
