package models

// NotificationLevel classifies a toast
type NotificationLevel string

const (
	NotificationError   NotificationLevel = "error"
	NotificationSuccess NotificationLevel = "success"
)

// Notification is a transient, dismissible message shown at the top of a page
type Notification struct {
	Level   NotificationLevel `json:"level"`
	Message string            `json:"message"`
}

// ErrorNotification builds an error toast
func ErrorNotification(message string) Notification {
	return Notification{Level: NotificationError, Message: message}
}

// FormValues are the raw text inputs echoed back into the form on re-render
type FormValues struct {
	Name     string
	Email    string
	Whatsapp string
	UF       string
	City     string
}

// MapSettings configures the location picker
type MapSettings struct {
	TileURL     string
	Attribution string
	Zoom        int
}

// RegisterPage is the view model of the registration page
type RegisterPage struct {
	Items         []Item
	States        []string
	Cities        []string
	SelectedItems ItemSet
	Values        FormValues
	Position      Position
	ImageToken    string
	Errors        ValidationErrors
	Notifications []Notification
	Map           MapSettings
	ShowOverlay   bool
	RedirectTo    string
	RedirectAfter int // seconds
}

// NewRegisterPage returns an empty page with the sentinel position
func NewRegisterPage() *RegisterPage {
	return &RegisterPage{
		Items:         []Item{},
		States:        []string{},
		Cities:        []string{},
		SelectedItems: NewItemSet(),
		Errors:        ValidationErrors{},
	}
}

// Notify appends a notification
func (p *RegisterPage) Notify(n Notification) {
	p.Notifications = append(p.Notifications, n)
}

// SubmitPointResponse is the JSON body returned by the points API on success
type SubmitPointResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message,omitempty"`
	Redirect        string `json:"redirect,omitempty"`
	RedirectAfterMs int    `json:"redirectAfterMs,omitempty"`
}
