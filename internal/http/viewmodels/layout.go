package viewmodels

type LayoutData struct {
	Title      string
	UserEmail  string
	UserRole   string
	IsAdmin    bool
	Toast      *ToastViewData
	ActivePath string
}

type ToastViewData struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}
