package currency

// PreferenceRequest carries an explicit currency choice.
type PreferenceRequest struct {
	Currency string `json:"currency" validate:"required,len=3,alpha"`
}

// ShopCurrenciesResponse lists the shop default and accepted currencies.
type ShopCurrenciesResponse struct {
	ShopCurrency string   `json:"shopCurrency"`
	Fallback     bool     `json:"fallback,omitempty"`
	Enabled      []string `json:"enabled"`
}

// FormatResponse is a rendered price.
type FormatResponse struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Locale    string `json:"locale"`
	Formatted string `json:"formatted"`
	Symbol    string `json:"symbol"`
}
