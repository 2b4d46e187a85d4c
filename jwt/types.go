package jwt

type Header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

type Claims struct {
	Issuer         string `json:"iss,omitempty"` // fqdn of the issuing server
	Subject        string `json:"sub,omitempty"` // user id
	Audience       string `json:"aud,omitempty"` // fqdn of the intended receiver
	ExpirationTime string `json:"exp,omitempty"` // unix seconds
	IssuedAt       string `json:"iat,omitempty"` // unix seconds
	JWTID          string `json:"jti,omitempty"`
	Email          string `json:"eml,omitempty"`
}
