package models

// Request and response payloads of the public API.

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Message struct {
	Message string `json:"message"`
}

// UserCreate is used by superusers; IsActive defaults to true.
type UserCreate struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	IsActive    bool    `json:"is_active"`
	IsSuperuser bool    `json:"is_superuser"`
	FullName    *string `json:"full_name"`
}

// NewUserCreate returns a UserCreate with defaults applied, ready for decoding.
func NewUserCreate() UserCreate {
	return UserCreate{IsActive: true}
}

// UserRegister is the open sign-up payload.
type UserRegister struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"full_name"`
}

type UserUpdate struct {
	Email       Field[string]  `json:"email"`
	Password    Field[string]  `json:"password"`
	FullName    Field[*string] `json:"full_name"`
	IsActive    Field[bool]    `json:"is_active"`
	IsSuperuser Field[bool]    `json:"is_superuser"`
}

type UserUpdateMe struct {
	Email    Field[string]  `json:"email"`
	FullName Field[*string] `json:"full_name"`
}

type UpdatePassword struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type NewPassword struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type ItemCreate struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
}

type ItemUpdate struct {
	Title       Field[string]  `json:"title"`
	Description Field[*string] `json:"description"`
}
