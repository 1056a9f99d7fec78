package request

// CreateProfileRequest represents the request body for creating a profile
type CreateProfileRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Visibility  string `json:"visibility"`
}
