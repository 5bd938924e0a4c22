package api

// Credentials are sent to the login endpoint.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is sent to the register endpoint.
type Registration struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ContactMessage is the body of the contact form.
type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// ToolFilters narrows the tool listing. Keys and values go into the query string.
type ToolFilters map[string]string

type newsletterSubscription struct {
	Email string `json:"email"`
}

type analyticsQuery struct {
	Period string `json:"period"`
}
