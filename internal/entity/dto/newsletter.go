package dto

// NewsletterRequest subscribes an email to the newsletter.
type NewsletterRequest struct {
	Email  string `json:"email" binding:"required,email"`
	Source string `json:"source,omitempty"`
}
