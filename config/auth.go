package config

// Auth configures the authn package: JWT signing and the bootstrap
// first-user-becomes-admin rule.
type Auth struct {
	JWTSecret        string `json:"jwt_secret" mapstructure:"jwt_secret" ini:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer        string `json:"jwt_issuer" mapstructure:"jwt_issuer" ini:"jwt_issuer" yaml:"jwt_issuer"`
	AccessTokenTTL   string `json:"access_token_ttl" mapstructure:"access_token_ttl" ini:"access_token_ttl" yaml:"access_token_ttl"`
	RefreshTokenTTL  string `json:"refresh_token_ttl" mapstructure:"refresh_token_ttl" ini:"refresh_token_ttl" yaml:"refresh_token_ttl"`
	PasswordMinLen   int    `json:"password_min_len" mapstructure:"password_min_len" ini:"password_min_len" yaml:"password_min_len"`
	RBACEnable       bool   `json:"rbac_enable" mapstructure:"rbac_enable" ini:"rbac_enable" yaml:"rbac_enable"`
	APIKeyAuthEnable bool   `json:"api_key_auth_enable" mapstructure:"api_key_auth_enable" ini:"api_key_auth_enable" yaml:"api_key_auth_enable"` // deprecated alias, see DESIGN.md
}

func (*Auth) setDefault() {
	cv.SetDefault("auth.jwt_secret", "change-me-in-production")
	cv.SetDefault("auth.jwt_issuer", "jvspatiald")
	cv.SetDefault("auth.access_token_ttl", "15m")
	cv.SetDefault("auth.refresh_token_ttl", "168h")
	cv.SetDefault("auth.password_min_len", 8)
	cv.SetDefault("auth.rbac_enable", true)
	cv.SetDefault("auth.api_key_auth_enable", true)
}
