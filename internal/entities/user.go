package entities

// AdminUser is the operator allowed to use the administrative API.
type AdminUser struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}
