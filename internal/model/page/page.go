package page

// ID names a page of the client.
type ID string

const (
	Index     ID = "index"
	Forgot    ID = "forgot"
	Dashboard ID = "dashboard"
	History   ID = "history"
	Forecast  ID = "forecast"
	Chat      ID = "chat"
)

// Page describes a navigable view. RequiresAuth is declared per page; the
// auth guard reads it instead of comparing addresses.
type Page struct {
	ID           ID     `json:"id"`
	Path         string `json:"path"`
	Title        string `json:"title"`
	RequiresAuth bool   `json:"requiresAuth"`
	Live         bool   `json:"live,omitempty"`
}

// Seed declares every page of the carbon tracker client. Index is the entry
// page (login and signup); Dashboard is the authenticated landing page.
func Seed() []Page {
	return []Page{
		{ID: Index, Path: "/", Title: "Sign in"},
		{ID: Forgot, Path: "/forgot", Title: "Forgot password"},
		{ID: Dashboard, Path: "/dashboard", Title: "Daily emissions", RequiresAuth: true},
		{ID: History, Path: "/history", Title: "History", RequiresAuth: true},
		{ID: Forecast, Path: "/forecast", Title: "Forecast", RequiresAuth: true},
		{ID: Chat, Path: "/chat", Title: "Carbon assistant", RequiresAuth: true, Live: true},
	}
}
