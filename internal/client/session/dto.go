package session

type loginRequest struct {
	Code string `json:"code"`
}

type reissueRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// tokenResponse is the data of both /login and /token/reissue. On reissue
// RefreshToken is empty when the backend does not rotate it.
type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}
