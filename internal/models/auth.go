package models

type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SignInResponse struct {
	ID       ID       `json:"id"`
	JWTToken string   `json:"jwtToken"`
	Roles    []string `json:"roles"`
	Username string   `json:"username"`
}

type SignUpRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     []string `json:"role"`
}

// MessageResponse is the generic body the API returns for errors and acks.
type MessageResponse struct {
	Message string `json:"message"`
}
