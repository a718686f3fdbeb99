package integrations

// LinkedinClient reads the OIDC userinfo endpoint.
type LinkedinClient struct {
	BaseURL string
}

func NewLinkedinClient() *LinkedinClient {
	return &LinkedinClient{BaseURL: "https://api.linkedin.com"}
}

type LinkedinUserinfo struct {
	Sub        string `json:"sub"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
	Picture    string `json:"picture"`
	Locale     string `json:"locale"`
}

func (c *LinkedinClient) FetchUserinfo(token string) (*LinkedinUserinfo, error) {
	var info LinkedinUserinfo
	if err := getJSON(c.BaseURL+"/v2/userinfo", token, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
