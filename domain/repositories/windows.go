package repositories

// Window is one visible desktop window as reported by the platform.
type Window struct {
	Title string `json:"title"`
}

// WindowLister enumerates visible windows. It may fail or return an empty
// list; callers treat failure as empty.
type WindowLister interface {
	ListWindows() ([]Window, error)
}
