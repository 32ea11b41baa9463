package api

// User is the identity record the backend echoes on register and login.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Book is a catalog entry. ID is assigned by the backend.
type Book struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Cover       string `json:"cover"`
}

// NewBook is the create payload. All fields are sent.
type NewBook struct {
	Name        string `json:"name"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Cover       string `json:"cover"`
}

// BookPatch is a partial update. Nil fields are left unchanged.
type BookPatch struct {
	Name        *string `json:"name,omitempty"`
	Author      *string `json:"author,omitempty"`
	Description *string `json:"description,omitempty"`
	Cover       *string `json:"cover,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p BookPatch) Empty() bool {
	return p.Name == nil && p.Author == nil && p.Description == nil && p.Cover == nil
}

// Result is the acknowledgement returned by update and delete.
type Result struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Upload describes a stored file. Path is what goes into Book.Cover.
type Upload struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
}
