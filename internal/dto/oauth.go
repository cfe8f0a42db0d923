package dto

type GoogleCallbackRequest struct {
	Code       string `json:"code" binding:"required"`
	ClientName string `json:"client_name" binding:"omitempty,max=200"`
}

// AppleCallbackRequest carries Apple's form_post redirect payload. The user
// field is a JSON blob Apple sends exactly once, on first authorization.
type AppleCallbackRequest struct {
	Code       string `json:"code" form:"code" binding:"required"`
	IDToken    string `json:"id_token" form:"id_token" binding:"required"`
	User       string `json:"user" form:"user"`
	ClientName string `json:"client_name" form:"client_name"`
}

// AppleNativeRequest is the client-embedded flow: the native SDK hands the
// service an identity token directly.
type AppleNativeRequest struct {
	IDToken    string `json:"id_token" binding:"required"`
	User       string `json:"user"`
	ClientName string `json:"client_name" binding:"omitempty,max=200"`
}

type OAuthURLResponse struct {
	URL string `json:"url"`
}

// AppleUserPayload is the optional one-time profile blob shape.
type AppleUserPayload struct {
	Name struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	} `json:"name"`
	Email string `json:"email"`
}
