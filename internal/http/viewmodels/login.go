package viewmodels

type LoginViewData struct {
	Email         string
	Next          string
	ErrorMessage  string
	SetupRequired bool
	Toast         *ToastViewData
}
